package interop

import "encoding/json"

// ModuleDescriptor is the broker's read-only snapshot of one registered
// module. The client never mutates these.
type ModuleDescriptor struct {
	Name         string   `json:"name"`
	Language     string   `json:"language"`
	Endpoints    []string `json:"endpoints"`
	Port         *int     `json:"port"`
	RegisteredAt string   `json:"registered_at"`
	LastSeen     string   `json:"last_seen"`
}

// QueuedMessage is one broker-queued message as returned by the queue
// listing endpoint.
type QueuedMessage struct {
	ID        string          `json:"id"`
	Target    string          `json:"target"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params"`
	Priority  int             `json:"priority"`
	Timestamp string          `json:"timestamp"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ProcessResult summarizes one queue-processing request.
type ProcessResult struct {
	Processed int               `json:"processed"`
	Remaining int               `json:"remaining"`
	Results   []json.RawMessage `json:"results"`
}

// ConnectionState tracks the duplex channel lifecycle. Duplex sends are
// permitted only in StateConnected.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
