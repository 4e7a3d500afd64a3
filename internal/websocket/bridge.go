package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/pubsub"
)

const (
	sendBuffer   = 256
	writeTimeout = 10 * time.Second
	readLimit    = 64 << 10
)

// ErrUnknownClient is returned when an operation names a client that is not connected.
var ErrUnknownClient = errors.New("unknown websocket client")

// InboundHandler processes one inbound event from a client. Returning an
// error sends an error event back to that client only.
type InboundHandler func(ctx context.Context, c *Client, data json.RawMessage) error

// IdentityFunc resolves the user identifier for an upgrade request.
type IdentityFunc func(c echo.Context) string

// Bridge owns every websocket connection. It keeps the client registry and
// the room membership, dispatches inbound events to registered handlers and
// delivers outbound events published on the bus.
type Bridge struct {
	publisher pubsub.Publisher
	identify  IdentityFunc
	origins   []string

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	// memberships is the reverse index of rooms, so a disconnect can leave
	// every room without scanning them all.
	memberships map[string]map[string]struct{}

	handlersMu sync.RWMutex
	handlers   map[string][]InboundHandler

	wg sync.WaitGroup
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithIdentity sets how an upgrade request is mapped to a user identifier.
func WithIdentity(fn IdentityFunc) Option {
	return func(b *Bridge) { b.identify = fn }
}

// WithOriginPatterns restricts which origins may open a connection. With no
// patterns, cross-origin checks are skipped.
func WithOriginPatterns(patterns ...string) Option {
	return func(b *Bridge) { b.origins = patterns }
}

// NewBridge creates a bridge that publishes lifecycle events to pub.
func NewBridge(pub pubsub.Publisher, opts ...Option) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		publisher:   pub,
		identify:    func(echo.Context) string { return "" },
		ctx:         ctx,
		cancel:      cancel,
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		memberships: make(map[string]map[string]struct{}),
		handlers:    make(map[string][]InboundHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On registers h for inbound frames whose event is name. Several handlers
// may share one event; they run in registration order.
func (b *Bridge) On(name string, h InboundHandler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Start subscribes the bridge to the outbound delivery topics.
func (b *Bridge) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := pubsub.Subscribe(ctx, sub, TopicBroadcast, func(ctx context.Context, req BroadcastRequest) error {
		b.deliverAll(req.Event, req.Data)
		return nil
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicBroadcast.Name(), err)
	}
	if err := pubsub.Subscribe(ctx, sub, TopicRoomDeliver, func(ctx context.Context, req RoomRequest) error {
		b.deliverRoom(req.Room, req.Event, req.Data)
		return nil
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicRoomDeliver.Name(), err)
	}
	return nil
}

// Handler upgrades the request and serves the connection until it closes.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		opts := &websocket.AcceptOptions{OriginPatterns: b.origins}
		if len(b.origins) == 0 {
			opts.InsecureSkipVerify = true
		}
		conn, err := websocket.Accept(c.Response(), c.Request(), opts)
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}
		conn.SetReadLimit(readLimit)

		client := newClient(uuid.NewString(), b.identify(c), conn)
		b.register(client)

		b.wg.Add(1)
		defer b.wg.Done()

		go b.writePump(client)
		reason := b.readPump(client)
		b.unregister(client, reason)
		return nil
	}
}

func (b *Bridge) register(client *Client) {
	b.mu.Lock()
	b.clients[client.ID] = client
	b.mu.Unlock()

	slog.Info("Client registered", "clientID", client.ID, "userID", client.Identity)
	b.publishLifecycle(TopicClientReady, ClientEvent{ClientID: client.ID, UserID: client.Identity})
}

func (b *Bridge) unregister(client *Client, reason string) {
	b.mu.Lock()
	delete(b.clients, client.ID)
	for room := range b.memberships[client.ID] {
		b.removeFromRoomLocked(client.ID, room)
	}
	delete(b.memberships, client.ID)
	b.mu.Unlock()

	client.close()
	slog.Info("Client unregistered", "clientID", client.ID, "userID", client.Identity, "reason", reason)
	b.publishLifecycle(TopicClientDisconnected, ClientEvent{ClientID: client.ID, UserID: client.Identity, Reason: reason})
}

func (b *Bridge) publishLifecycle(event pubsub.Event[ClientEvent], payload ClientEvent) {
	if b.publisher == nil {
		return
	}
	if err := pubsub.Publish(context.Background(), b.publisher, event, payload); err != nil {
		slog.Error("Failed to publish websocket lifecycle event", "topic", event.Name(), "clientID", payload.ClientID, "error", err)
	}
}

// readPump handles inbound frames in receipt order until the connection
// fails, and returns the close reason.
func (b *Bridge) readPump(client *Client) string {
	for {
		_, data, err := client.conn.Read(b.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				slog.Debug("WebSocket closed normally by client", "clientID", client.ID)
				return "client_closed"
			case errors.Is(err, context.Canceled):
				return "server_shutdown"
			case errors.Is(err, io.EOF):
				return "eof"
			default:
				slog.Warn("WebSocket read error", "clientID", client.ID, "error", err)
				return "read_error"
			}
		}
		b.dispatch(client, data)
	}
}

func (b *Bridge) dispatch(client *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
		b.sendError(client, "malformed frame")
		return
	}

	b.handlersMu.RLock()
	handlers := b.handlers[env.Event]
	b.handlersMu.RUnlock()

	if len(handlers) == 0 {
		slog.Debug("No handler for inbound event", "event", env.Event, "clientID", client.ID)
		b.sendError(client, "unknown event "+env.Event)
		return
	}

	for _, h := range handlers {
		if err := h(b.ctx, client, env.Data); err != nil {
			slog.Warn("Inbound event failed", "event", env.Event, "clientID", client.ID, "error", err)
			b.sendError(client, err.Error())
		}
	}
}

func (b *Bridge) sendError(client *Client, msg string) {
	frame, err := Encode(EventError, ErrorData{Message: msg})
	if err != nil {
		return
	}
	client.SendMessage(frame)
}

func (b *Bridge) writePump(client *Client) {
	defer client.conn.Close(websocket.StatusNormalClosure, "")

	for msg := range client.outbox() {
		ctx, cancel := context.WithTimeout(b.ctx, writeTimeout)
		err := client.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			slog.Warn("WebSocket write error", "clientID", client.ID, "error", err)
			return
		}
	}
}

// JoinRoom adds the client to room.
func (b *Bridge) JoinRoom(clientID, room string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	client, ok := b.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[string]*Client)
	}
	b.rooms[room][clientID] = client
	if b.memberships[clientID] == nil {
		b.memberships[clientID] = make(map[string]struct{})
	}
	b.memberships[clientID][room] = struct{}{}
	return nil
}

// LeaveRoom removes the client from room. Leaving a room the client is not
// in is a no-op.
func (b *Bridge) LeaveRoom(clientID, room string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeFromRoomLocked(clientID, room)
}

func (b *Bridge) removeFromRoomLocked(clientID, room string) {
	if members, ok := b.rooms[room]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(b.rooms, room)
		}
	}
	if rooms, ok := b.memberships[clientID]; ok {
		delete(rooms, room)
	}
}

// RoomMembers returns the IDs of the clients joined to room.
func (b *Bridge) RoomMembers(room string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.rooms[room]))
	for id := range b.rooms[room] {
		ids = append(ids, id)
	}
	return ids
}

// ClientCount returns the number of open connections.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Send delivers an event to one client.
func (b *Bridge) Send(clientID, event string, data any) error {
	frame, err := Encode(event, data)
	if err != nil {
		return err
	}
	b.mu.RLock()
	client, ok := b.clients[clientID]
	b.mu.RUnlock()
	if !ok {
		return ErrUnknownClient
	}
	client.SendMessage(frame)
	return nil
}

// BroadcastAll delivers an event to every connected client.
func (b *Bridge) BroadcastAll(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	b.deliverAll(event, raw)
	return nil
}

// BroadcastRoom delivers an event to the clients joined to room.
func (b *Bridge) BroadcastRoom(room, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	b.deliverRoom(room, event, raw)
	return nil
}

func (b *Bridge) deliverAll(event string, data json.RawMessage) {
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		slog.Error("Failed to encode broadcast", "event", event, "error", err)
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, client := range b.clients {
		client.SendMessage(frame)
	}
}

func (b *Bridge) deliverRoom(room, event string, data json.RawMessage) {
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		slog.Error("Failed to encode room delivery", "event", event, "room", room, "error", err)
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, client := range b.rooms[room] {
		client.SendMessage(frame)
	}
}

// Shutdown closes every connection and waits for their handlers to return.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
