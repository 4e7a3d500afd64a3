package matcher

import (
	"testing"

	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(name, email string, subjects ...string) domain.User {
	return domain.User{Name: name, Email: email, Subjects: domain.NewSubjectSet(subjects...)}
}

func TestMatches_Scenario(t *testing.T) {
	a := user("A", "a@x.com", "Math", "Bio")
	b := user("B", "b@x.com", "Bio", "Art")
	c := user("C", "c@x.com", "Art")
	all := []domain.User{a, b, c}

	got := Matches(a, all)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, "b@x.com", got[0].Email)
	assert.Equal(t, "Bio", got[0].Overlap.String())

	got = Matches(c, all)
	require.Len(t, got, 1)
	assert.Equal(t, "b@x.com", got[0].Email)
	assert.Equal(t, "Art", got[0].OverlapText())
}

func TestMatches_ExcludesSelf(t *testing.T) {
	a := user("A", "a@x.com", "Math")
	got := Matches(a, []domain.User{a})
	assert.Empty(t, got)
}

func TestMatches_EmptySetsNeverMatch(t *testing.T) {
	empty := user("E", "e@x.com")
	alsoEmpty := user("F", "f@x.com")
	full := user("G", "g@x.com", "Math")
	all := []domain.User{empty, alsoEmpty, full}

	assert.Empty(t, Matches(empty, all))
	assert.Empty(t, Matches(full, all))
}

func TestMatches_OverlapHasNoDuplicates(t *testing.T) {
	a := domain.User{Email: "a@x.com", Subjects: domain.ParseSubjects("Math,Math,Bio")}
	b := domain.User{Email: "b@x.com", Subjects: domain.ParseSubjects("Bio,Math,Math")}

	got := Matches(a, []domain.User{b})
	require.Len(t, got, 1)
	assert.Equal(t, "Math, Bio", got[0].OverlapText())
}

func TestMatches_Symmetric(t *testing.T) {
	a := user("A", "a@x.com", "Math", "Bio", "Chem")
	b := user("B", "b@x.com", "Chem", "Bio")

	ab := Matches(a, []domain.User{b})
	ba := Matches(b, []domain.User{a})
	require.Len(t, ab, 1)
	require.Len(t, ba, 1)
	assert.True(t, ab[0].Overlap.Equal(ba[0].Overlap))
}
