package websocket

import (
	"encoding/json"

	"github.com/nfrund/studybuddy/internal/pubsub"
)

// ClientEvent is the payload of the connection lifecycle events.
type ClientEvent struct {
	ClientID string `json:"clientID"`
	UserID   string `json:"userID,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// BroadcastRequest asks the bridge to send an event to every client.
type BroadcastRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RoomRequest asks the bridge to send an event to the clients joined to Room.
type RoomRequest struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

var (
	// TopicClientReady is published when a new client has been registered.
	TopicClientReady = pubsub.NewEvent[ClientEvent]("ws.client.ready",
		"Published when a new WebSocket client successfully connects and is ready")

	// TopicClientDisconnected is published after a client has been removed
	// from every room and the client registry.
	TopicClientDisconnected = pubsub.NewEvent[ClientEvent]("ws.client.disconnected",
		"Published when a WebSocket client disconnects")

	// TopicBroadcast delivers an event to all connected clients.
	TopicBroadcast = pubsub.NewEvent[BroadcastRequest]("ws.broadcast",
		"Deliver an event to every connected WebSocket client")

	// TopicRoomDeliver delivers an event to the clients joined to a room.
	TopicRoomDeliver = pubsub.NewEvent[RoomRequest]("ws.room.deliver",
		"Deliver an event to the WebSocket clients joined to a room")
)
