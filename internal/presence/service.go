// Package presence tracks which users currently hold an open websocket.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/pubsub"
	ws "github.com/nfrund/studybuddy/internal/websocket"
)

// Websocket event names.
const (
	EventJoin           = "join"
	EventPresenceUpdate = "presence_update"
)

// RosterUpdate is the data of a presence_update event.
type RosterUpdate struct {
	Users []string `json:"users"`
}

// JoinData is the payload of the inbound join event. A join that names
// Other is a room join and is ignored here.
type JoinData struct {
	Email string `json:"email"`
	User  string `json:"user"`
	Other string `json:"other"`
}

// Service is the process-wide presence registry. Presence is keyed by
// connection, so an identifier stays online until its last connection closes.
type Service struct {
	mu        sync.RWMutex
	presences map[string]map[string]time.Time // identifier -> clientID -> joined at
	clients   map[string]string               // clientID -> identifier
	publisher pubsub.Publisher
	logger    *slog.Logger

	// Debouncing for offline events (to handle page reloads gracefully)
	offlineDebounce      map[string]*time.Timer
	offlineDebounceDelay time.Duration
	debounceMu           sync.Mutex
}

// Option is a function that configures a Service.
type Option func(*Service)

// WithOfflineDebounce delays the roster update after an identifier's last
// connection closes. Zero, the default, removes it immediately.
func WithOfflineDebounce(d time.Duration) Option {
	return func(s *Service) {
		s.offlineDebounceDelay = d
	}
}

// WithLogger overrides the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates an empty presence registry that publishes roster
// updates to publisher.
func NewService(publisher pubsub.Publisher, opts ...Option) *Service {
	svc := &Service{
		presences:       make(map[string]map[string]time.Time),
		clients:         make(map[string]string),
		publisher:       publisher,
		logger:          slog.Default().With("service", "presence"),
		offlineDebounce: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start subscribes to connection closures so a closed channel always leaves
// the registry.
func (s *Service) Start(ctx context.Context, sub pubsub.Subscriber) error {
	err := pubsub.Subscribe(ctx, sub, ws.TopicClientDisconnected, func(ctx context.Context, ev ws.ClientEvent) error {
		s.Disconnect(ev.ClientID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", ws.TopicClientDisconnected.Name(), err)
	}
	s.logger.Info("Presence service started", "disconnect_topic", ws.TopicClientDisconnected.Name())
	return nil
}

// HandleJoin is the websocket handler for presence joins: {"email": ...}.
// When the payload carries no email, the connection's session identity is used.
func (s *Service) HandleJoin(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	var join JoinData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &join); err != nil {
			return fmt.Errorf("invalid join payload: %w", err)
		}
	}
	if join.Other != "" {
		return nil
	}
	identifier := domain.NormalizeEmail(join.Email)
	if identifier == "" {
		identifier = c.Identity
	}
	if identifier == "" {
		return fmt.Errorf("join without identity: %w", domain.ErrInvalidInput)
	}
	s.Join(identifier, c.ID)
	return nil
}

// Join records clientID as a connection of identifier and broadcasts the roster.
func (s *Service) Join(identifier, clientID string) {
	s.mu.Lock()

	// A connection that re-joins under another identifier moves.
	if prev, ok := s.clients[clientID]; ok && prev != identifier {
		if s.removeClientLocked(prev, clientID) == 0 {
			delete(s.presences, prev)
		}
	}

	s.cancelDebounce(identifier)

	if s.presences[identifier] == nil {
		s.presences[identifier] = make(map[string]time.Time)
		s.logger.Info("User came online", "user_id", identifier, "client_id", clientID)
	}
	s.presences[identifier][clientID] = time.Now().UTC()
	s.clients[clientID] = identifier

	roster := s.rosterLocked()
	s.mu.Unlock()

	s.publishRoster(roster)
}

// Disconnect removes clientID. Unknown connections are ignored.
func (s *Service) Disconnect(clientID string) {
	s.mu.Lock()

	identifier, ok := s.clients[clientID]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("Disconnect for unknown client", "client_id", clientID)
		return
	}
	delete(s.clients, clientID)

	remaining := s.removeClientLocked(identifier, clientID)
	if remaining == 0 && s.offlineDebounceDelay > 0 {
		s.mu.Unlock()
		s.scheduleOffline(identifier)
		return
	}
	if remaining == 0 {
		delete(s.presences, identifier)
		s.logger.Info("User went offline", "user_id", identifier)
	}

	roster := s.rosterLocked()
	s.mu.Unlock()

	s.publishRoster(roster)
}

// removeClientLocked drops one connection and returns how many remain.
// The identifier's entry is kept even when empty; callers decide whether
// it goes offline now or after the debounce.
func (s *Service) removeClientLocked(identifier, clientID string) int {
	conns := s.presences[identifier]
	delete(conns, clientID)
	return len(conns)
}

func (s *Service) scheduleOffline(identifier string) {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()

	if timer, exists := s.offlineDebounce[identifier]; exists {
		timer.Stop()
	}
	s.offlineDebounce[identifier] = time.AfterFunc(s.offlineDebounceDelay, func() {
		s.handleDebouncedOffline(identifier)
	})
}

func (s *Service) cancelDebounce(identifier string) {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()

	if timer, exists := s.offlineDebounce[identifier]; exists {
		timer.Stop()
		delete(s.offlineDebounce, identifier)
	}
}

func (s *Service) handleDebouncedOffline(identifier string) {
	s.debounceMu.Lock()
	delete(s.offlineDebounce, identifier)
	s.debounceMu.Unlock()

	s.mu.Lock()
	if len(s.presences[identifier]) > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.presences, identifier)
	roster := s.rosterLocked()
	s.mu.Unlock()

	s.logger.Info("User went offline after debounce period", "user_id", identifier)
	s.publishRoster(roster)
}

// Roster returns the sorted identifiers that are currently online.
func (s *Service) Roster() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rosterLocked()
}

func (s *Service) rosterLocked() []string {
	users := make([]string, 0, len(s.presences))
	for id := range s.presences {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// IsOnline reports whether identifier is in the roster.
func (s *Service) IsOnline(identifier string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.presences[identifier]
	return ok
}

// Connections returns how many open connections identifier has.
func (s *Service) Connections(identifier string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.presences[identifier])
}

func (s *Service) publishRoster(users []string) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(RosterUpdate{Users: users})
	if err != nil {
		s.logger.Error("Failed to encode roster", "error", err)
		return
	}
	err = pubsub.Publish(context.Background(), s.publisher, ws.TopicBroadcast, ws.BroadcastRequest{
		Event: EventPresenceUpdate,
		Data:  data,
	})
	if err != nil {
		s.logger.Error("Failed to publish roster", "error", err)
	}
}

// Shutdown stops pending offline timers.
func (s *Service) Shutdown() {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	for id, timer := range s.offlineDebounce {
		timer.Stop()
		delete(s.offlineDebounce, id)
	}
}
