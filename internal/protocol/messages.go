// Package protocol defines the message shapes exchanged between the
// prompter display, the remote controller and the relay. Every message
// is a single JSON object carrying a "type" discriminator; the relay
// dispatches on the type and forwards command/state payloads verbatim.
package protocol

import "encoding/json"

// Message types.
const (
	TypeJoin         = "join"           // client -> relay: enter a session under a role
	TypeSessionError = "session:error"  // relay -> client: join rejected
	TypeStatus       = "session:status" // relay -> client: current connectivity
	TypeCommand      = "command"        // remote -> relay -> prompter
	TypeStateUpdate  = "state:update"   // prompter -> relay -> remotes
	TypeStateRequest = "state:request"  // remote -> relay: ask for the cached state
	TypePing         = "ping"           // client -> relay: liveness probe
	TypePong         = "pong"           // relay -> client: ping reply
)

// Envelope is the minimal view decoded from every inbound frame to pick
// a handler. The full frame is re-decoded by the handler that needs it.
type Envelope struct {
	Type string `json:"type"`
}

// PeekType extracts the message type without decoding the payload.
func PeekType(data []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	return env.Type, nil
}

// Join is the first message a connection sends for a session.
type Join struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Pin       string `json:"pin,omitempty"`
}

// SessionError is unicast to a connection whose join was rejected.
type SessionError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Status tells both sides who is currently connected. It carries no
// sequence number; each receipt supersedes any prior value.
type Status struct {
	Type              string `json:"type"`
	ConnectedPrompter bool   `json:"connectedPrompter"`
	ConnectedRemote   bool   `json:"connectedRemote"`
}

// Pong answers a ping.
type Pong struct {
	Type string `json:"type"`
}
