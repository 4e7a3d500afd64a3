package chat

import (
	"context"
	"log/slog"

	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/module"
	"github.com/nfrund/studybuddy/internal/pubsub"
	ws "github.com/nfrund/studybuddy/internal/websocket"
	"github.com/samber/do/v2"
)

// ChatModule wires the relay into the websocket bridge and the router.
type ChatModule struct {
	module.BaseModule
}

// New creates the chat module.
func New() *ChatModule {
	return &ChatModule{}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Register provides the relay.
func (m *ChatModule) Register(i do.Injector) error {
	do.Provide(i, func(i do.Injector) (*Relay, error) {
		return NewRelay(
			do.MustInvoke[database.Store](i),
			do.MustInvoke[*ws.Bridge](i),
			do.MustInvoke[pubsub.Publisher](i),
		), nil
	})
	return nil
}

// Boot registers the websocket handlers and the HTTP routes.
func (m *ChatModule) Boot(ctx context.Context, r module.Routes, i do.Injector) error {
	relay, err := do.Invoke[*Relay](i)
	if err != nil {
		return err
	}
	relay.Register(do.MustInvoke[*ws.Bridge](i))

	slog.Info("Booting ChatModule: Setting up routes...")
	h := NewHandler(relay)
	r.App.GET("/chat/:other", h.ChatGet)
	r.App.GET("/api/messages/:other", h.MessagesGet)
	r.App.POST("/api/messages/:other", h.MessagesPost)
	return nil
}
