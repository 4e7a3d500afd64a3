// Package pubsub is the in-process message bus connecting the websocket
// bridge, presence and the feature modules.
package pubsub

import "context"

// Message is one bus delivery.
type Message struct {
	Topic string
	// Sender is the email of the user behind the message, if any.
	Sender   string
	Payload  []byte
	Metadata map[string]string
}

// Handler processes one delivery. Returned errors are logged, never retried.
type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber registers handlers. Subscribe returns at once and handler runs
// on a goroutine owned by the subscription until ctx ends or Close is called.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
