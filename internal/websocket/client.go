package websocket

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Client is one websocket connection. A user with two tabs has two clients.
type Client struct {
	// ID is unique per connection.
	ID string
	// Identity is the user identifier resolved from the session at upgrade
	// time. It is empty for anonymous connections.
	Identity string

	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
}

func newClient(id, identity string, conn *websocket.Conn) *Client {
	return &Client{
		ID:       id,
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

// SendMessage queues msg for the client without blocking. The message is
// dropped if the client is gone or its buffer is full.
func (c *Client) SendMessage(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		slog.Warn("Client send channel full, dropping message", "clientID", c.ID)
		return false
	}
}

// close closes the send channel; later SendMessage calls are no-ops.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

func (c *Client) outbox() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}
