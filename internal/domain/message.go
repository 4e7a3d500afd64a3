package domain

import (
	"context"
	"time"
)

// Message is a single chat line between two users. It is immutable once stored.
type Message struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Gateway is the only component allowed to issue storage operations.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type Gateway interface {
	// SaveUser inserts the user unless the email is already taken, in which
	// case it does nothing and returns nil.
	SaveUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	// SaveMessage appends a message stamped with the server's clock.
	SaveMessage(ctx context.Context, sender, receiver, content string) (Message, error)
	// LoadMessagesBetween returns the conversation between a and b in either
	// direction, oldest first.
	LoadMessagesBetween(ctx context.Context, a, b string) ([]Message, error)
}
