package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var emailFolder = cases.Lower(language.Und)

// User represents a registered student.
type User struct {
	ID       int64
	Name     string
	Email    string
	Subjects SubjectSet
}

// NewUser builds a user with a normalized identifier and a trimmed name.
func NewUser(name, email string, subjects SubjectSet) (User, error) {
	u := User{
		Name:     strings.TrimSpace(name),
		Email:    NormalizeEmail(email),
		Subjects: subjects,
	}
	if u.Name == "" || u.Email == "" {
		return User{}, ErrInvalidInput
	}
	return u, nil
}

// NormalizeEmail returns the canonical identifier for an email address.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}
