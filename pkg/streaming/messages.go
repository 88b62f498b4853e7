package streaming

import (
	"encoding/json"

	"github.com/wopr-sim/wopr/pkg/core"
)

// Message type constants of the display stream protocol.
const (
	TypeStartGame = "start_game"
	TypeEndGame   = "end_game"
	TypeEvent     = "event"
	TypeLaunch    = "launch"
	TypeFlight    = "flight"
	TypeTurn      = "turn"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartGamePayload carries the game header.
type StartGamePayload struct {
	Game *core.Game `json:"game"`
}

// EndGamePayload carries the final result.
type EndGamePayload struct {
	Result *core.Result `json:"result"`
}

// NewEnvelope marshals payload under the given type.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}
