// Package chat relays messages between two users through a shared room.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/pubsub"
	ws "github.com/nfrund/studybuddy/internal/websocket"
)

// EventMessage is the outbound websocket event carrying a stored message.
const EventMessage = "message"

// Rooms attaches connections to rooms. The websocket bridge implements it.
type Rooms interface {
	JoinRoom(clientID, room string) error
	LeaveRoom(clientID, room string)
}

// Relay persists messages and hands them to the room for live delivery.
type Relay struct {
	store     database.Store
	rooms     Rooms
	publisher pubsub.Publisher
	logger    *slog.Logger
}

// NewRelay creates a relay.
func NewRelay(store database.Store, rooms Rooms, publisher pubsub.Publisher) *Relay {
	return &Relay{
		store:     store,
		rooms:     rooms,
		publisher: publisher,
		logger:    slog.Default().With("service", "chat"),
	}
}

// Send stores the message and then delivers it to whoever is joined to the
// pair's room. A message nobody is listening for is still stored.
func (r *Relay) Send(ctx context.Context, sender, receiver, content string) (domain.Message, error) {
	sender, receiver, err := pair(sender, receiver)
	if err != nil {
		return domain.Message{}, err
	}
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, fmt.Errorf("empty message: %w", domain.ErrInvalidInput)
	}

	msg, err := database.View(ctx, r.store, func(gw domain.Gateway) (domain.Message, error) {
		return gw.SaveMessage(ctx, sender, receiver, content)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("save message: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return msg, fmt.Errorf("encode message: %w", err)
	}
	room := RoomKey(sender, receiver)
	if err := pubsub.Publish(ctx, r.publisher, ws.TopicRoomDeliver, ws.RoomRequest{
		Room:  room,
		Event: EventMessage,
		Data:  data,
	}); err != nil {
		// The message is stored; the receiver will see it in the history.
		r.logger.Warn("Failed to deliver message", "room", room, "messageID", msg.ID, "error", err)
	}
	return msg, nil
}

// Join attaches clientID to the room of user and other.
func (r *Relay) Join(clientID, user, other string) error {
	user, other, err := pair(user, other)
	if err != nil {
		return err
	}
	room := RoomKey(user, other)
	if err := r.rooms.JoinRoom(clientID, room); err != nil {
		return fmt.Errorf("join room %s: %w", room, err)
	}
	r.logger.Debug("Client joined room", "clientID", clientID, "room", room)
	return nil
}

// Leave detaches clientID from the room of user and other.
func (r *Relay) Leave(clientID, user, other string) error {
	user, other, err := pair(user, other)
	if err != nil {
		return err
	}
	r.rooms.LeaveRoom(clientID, RoomKey(user, other))
	return nil
}

// History returns the conversation between a and b, oldest first.
func (r *Relay) History(ctx context.Context, a, b string) ([]domain.Message, error) {
	a, b, err := pair(a, b)
	if err != nil {
		return nil, err
	}
	return database.View(ctx, r.store, func(gw domain.Gateway) ([]domain.Message, error) {
		return gw.LoadMessagesBetween(ctx, a, b)
	})
}

func pair(a, b string) (string, string, error) {
	a, b = domain.NormalizeEmail(a), domain.NormalizeEmail(b)
	if a == "" || b == "" {
		return "", "", fmt.Errorf("both participants are required: %w", domain.ErrInvalidInput)
	}
	return a, b, nil
}
