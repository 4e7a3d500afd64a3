package database

import (
	"errors"
	"fmt"

	"github.com/nfrund/studybuddy/internal/domain"
	"gorm.io/gorm"
)

// ErrHandleReleased is returned when a gateway is used after its unit of
// work has finished.
var ErrHandleReleased = errors.New("gateway handle used after release")

// DBError represents a database error with additional context.
type DBError struct {
	// The underlying error that was returned by the database driver.
	err error

	// The gateway operation that was running, e.g. "save message".
	op string

	// The query that was being executed when the error occurred.
	query string
}

// NewDBError creates a new DBError for the given operation.
func NewDBError(err error, op string) *DBError {
	return &DBError{err: err, op: op}
}

// WithQuery adds query information to the error.
func (e *DBError) WithQuery(query string) *DBError {
	e.query = query
	return e
}

// Error returns the error message.
func (e *DBError) Error() string {
	msg := e.op
	if e.query != "" {
		msg = fmt.Sprintf("%s\nQuery: %s", msg, e.query)
	}
	if e.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DBError) Unwrap() error {
	return e.err
}

// Is maps driver failures onto the domain sentinels. A missing row is
// domain.ErrNotFound and anything else the driver reports is
// domain.ErrStoreUnavailable.
func (e *DBError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return errors.Is(e.err, gorm.ErrRecordNotFound) || errors.Is(e.err, domain.ErrNotFound)
	case domain.ErrStoreUnavailable:
		return !errors.Is(e, domain.ErrNotFound) && !errors.Is(e.err, domain.ErrInvalidInput)
	}
	return false
}

// wrapError wraps a driver error with the operation it came from.
// It returns nil for a nil error.
func wrapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return err
	}
	return NewDBError(err, op)
}
