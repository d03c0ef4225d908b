package websocket

import (
	"encoding/json"
	"fmt"
)

const (
	actionState   = "game:state"
	actionStart   = "game:start"
	actionPause   = "game:pause"
	actionDraw    = "game:draw"
	actionSpeed   = "game:speed"
	actionRestart = "game:restart"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SpeedPayload struct {
	Speed int `json:"speed"`
}

type RestartPayload struct {
	Confirmed bool `json:"confirmed"`
}

type DrawPayload struct {
	Number int `json:"number"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func newMessage(action string, payload any) (Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Message{Action: action, Payload: body}, nil
}

func decodePayload(msg *Message, target any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: payload is required", msg.Action)
	}

	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}
