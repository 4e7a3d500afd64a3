// Package matcher finds study buddies by subject overlap.
package matcher

import "github.com/nfrund/studybuddy/internal/domain"

// Match is another user who shares at least one subject with the requester.
type Match struct {
	Name    string
	Email   string
	Overlap domain.SubjectSet
}

// OverlapText renders the shared subjects comma-joined.
func (m Match) OverlapText() string {
	return m.Overlap.Join(", ")
}

// Matches returns every user in all, other than me, whose subjects intersect
// with mine. Results follow the order of all. A user with no subjects never
// matches and is never matched.
func Matches(me domain.User, all []domain.User) []Match {
	if me.Subjects.IsEmpty() {
		return nil
	}

	var out []Match
	for _, other := range all {
		if other.Email == me.Email {
			continue
		}
		overlap := me.Subjects.Intersect(other.Subjects)
		if overlap.IsEmpty() {
			continue
		}
		out = append(out, Match{
			Name:    other.Name,
			Email:   other.Email,
			Overlap: overlap,
		})
	}
	return out
}
