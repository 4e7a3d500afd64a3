package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []string{"NAME", "EMAIL"}, [][]string{
		{"Alice", "alice@example.com"},
		{"Bob", "bob@example.com"},
	}))

	assert.Equal(t, ""+
		"NAME   EMAIL\n"+
		"----   -----\n"+
		"Alice  alice@example.com\n"+
		"Bob    bob@example.com\n", buf.String())
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []string{"NAME"}, nil))
	assert.Contains(t, buf.String(), "No results")
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{W: &buf, Format: FormatJSON}
	require.NoError(t, p.Validate())
	require.NoError(t, p.Print(map[string]int{"count": 2}, nil, nil))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got["count"])
}

func TestPrinter_ValidateRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, Printer{Format: "yaml"}.Validate())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
