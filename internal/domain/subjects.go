package domain

import "strings"

// subjectSeparator is the delimiter used when a SubjectSet is stored as text.
const subjectSeparator = ","

// SubjectSet is a set of subject tags. Iteration follows first insertion so
// rendering is stable, but equality and matching ignore order.
type SubjectSet struct {
	order []string
	index map[string]struct{}
}

// NewSubjectSet builds a set from tags. Tags are trimmed, empty tags are
// dropped and duplicates collapse.
func NewSubjectSet(tags ...string) SubjectSet {
	var s SubjectSet
	for _, t := range tags {
		s.add(t)
	}
	return s
}

// ParseSubjects splits a delimited subject list such as "Math, Bio".
func ParseSubjects(raw string) SubjectSet {
	return NewSubjectSet(strings.Split(raw, subjectSeparator)...)
}

func (s *SubjectSet) add(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[tag]; ok {
		return
	}
	s.index[tag] = struct{}{}
	s.order = append(s.order, tag)
}

// Len returns the number of distinct tags.
func (s SubjectSet) Len() int { return len(s.order) }

// IsEmpty reports whether the set has no tags.
func (s SubjectSet) IsEmpty() bool { return len(s.order) == 0 }

// Contains reports whether tag is in the set.
func (s SubjectSet) Contains(tag string) bool {
	_, ok := s.index[strings.TrimSpace(tag)]
	return ok
}

// Tags returns a copy of the tags in insertion order.
func (s SubjectSet) Tags() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Intersect returns the tags present in both sets, in the receiver's order.
func (s SubjectSet) Intersect(other SubjectSet) SubjectSet {
	var out SubjectSet
	for _, t := range s.order {
		if other.Contains(t) {
			out.add(t)
		}
	}
	return out
}

// Equal reports whether both sets hold the same tags regardless of order.
func (s SubjectSet) Equal(other SubjectSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, t := range s.order {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}

// String renders the set as a comma-joined list, the form it is stored in.
func (s SubjectSet) String() string {
	return strings.Join(s.order, subjectSeparator)
}

// Join renders the set with a custom separator for display.
func (s SubjectSet) Join(sep string) string {
	return strings.Join(s.order, sep)
}
