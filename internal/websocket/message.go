package websocket

import "encoding/json"

// Envelope is the wire format for every frame in both directions:
// {"event": "send_message", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound event names sent by the server.
const (
	EventError = "error"
)

// ErrorData is the payload of an error event.
type ErrorData struct {
	Message string `json:"message"`
}

// Encode builds a frame for event with data marshalled as JSON.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
