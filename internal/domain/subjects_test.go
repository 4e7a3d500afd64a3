package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSubjects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"simple", "Math,Bio", []string{"Math", "Bio"}},
		{"whitespace", " Math , Bio ", []string{"Math", "Bio"}},
		{"duplicates collapse", "Math,Bio,Math", []string{"Math", "Bio"}},
		{"empty string", "", []string{}},
		{"only separators", ", ,,", []string{}},
		{"case sensitive", "math,Math", []string{"math", "Math"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseSubjects(tt.raw)
			assert.Equal(t, tt.want, s.Tags())
		})
	}
}

func TestSubjectSet_Intersect(t *testing.T) {
	a := NewSubjectSet("Math", "Bio")
	b := NewSubjectSet("Bio", "Art")

	overlap := a.Intersect(b)
	assert.Equal(t, []string{"Bio"}, overlap.Tags())
	assert.True(t, overlap.Equal(b.Intersect(a)))

	assert.True(t, a.Intersect(NewSubjectSet()).IsEmpty())
	assert.True(t, NewSubjectSet().Intersect(a).IsEmpty())
}

func TestSubjectSet_String(t *testing.T) {
	assert.Equal(t, "Math,Bio", NewSubjectSet("Math", "Bio", "Math").String())
	assert.Equal(t, "", NewSubjectSet().String())
	assert.Equal(t, "Math, Bio", NewSubjectSet("Math", "Bio").Join(", "))
}

func TestSubjectSet_Equal(t *testing.T) {
	assert.True(t, NewSubjectSet("A", "B").Equal(NewSubjectSet("B", "A")))
	assert.False(t, NewSubjectSet("A").Equal(NewSubjectSet("A", "B")))
	assert.True(t, NewSubjectSet().Equal(SubjectSet{}))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@x.com", NormalizeEmail("  ANA@X.com "))
	assert.Equal(t, NormalizeEmail("Ana@x.com"), NormalizeEmail("ana@X.COM"))
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(" Ana ", "ANA@X.com", ParseSubjects("Math,Bio"))
	assert.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, "Math,Bio", u.Subjects.String())

	_, err = NewUser("", "ana@x.com", SubjectSet{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewUser("Ana", "   ", SubjectSet{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
