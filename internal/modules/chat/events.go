package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nfrund/studybuddy/internal/domain"
	ws "github.com/nfrund/studybuddy/internal/websocket"
)

// Inbound websocket event names handled by the relay.
const (
	EventSendMessage = "send_message"
	EventJoin        = "join"
	EventLeave       = "leave"
)

// SendData is the payload of send_message.
type SendData struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

// RoomData is the payload of a room join or leave.
type RoomData struct {
	User  string `json:"user"`
	Other string `json:"other"`
}

// Register wires the relay's handlers into the bridge.
func (r *Relay) Register(b *ws.Bridge) {
	b.On(EventSendMessage, r.HandleSend)
	b.On(EventJoin, r.HandleJoin)
	b.On(EventLeave, r.HandleLeave)
}

// HandleSend handles send_message. The connection's identity stands in for
// a missing sender.
func (r *Relay) HandleSend(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	var in SendData
	if err := decode(data, &in); err != nil {
		return err
	}
	if in.Sender == "" {
		in.Sender = c.Identity
	}
	_, err := r.Send(ctx, in.Sender, in.Receiver, in.Content)
	return err
}

// HandleJoin handles join events that name a counterpart. A join without
// other is a presence join and is left to the presence service.
func (r *Relay) HandleJoin(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	var in RoomData
	if err := decode(data, &in); err != nil {
		return err
	}
	if in.Other == "" {
		return nil
	}
	if in.User == "" {
		in.User = c.Identity
	}
	return r.Join(c.ID, in.User, in.Other)
}

// HandleLeave handles leave.
func (r *Relay) HandleLeave(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	var in RoomData
	if err := decode(data, &in); err != nil {
		return err
	}
	if in.User == "" {
		in.User = c.Identity
	}
	return r.Leave(c.ID, in.User, in.Other)
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing payload: %w", domain.ErrInvalidInput)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid payload: %w", domain.ErrInvalidInput)
	}
	return nil
}
