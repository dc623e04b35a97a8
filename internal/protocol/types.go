package protocol

import (
	"encoding/json"
	"strings"
)

// FrameType tags one duplex-channel frame.
type FrameType string

const (
	// Outbound tags (client -> broker).
	FrameCall      FrameType = "call"
	FrameSubscribe FrameType = "subscribe"

	// Inbound tags (broker -> client).
	FrameResponse  FrameType = "response"
	FrameError     FrameType = "error"
	FrameModules   FrameType = "modules"
	FrameBroadcast FrameType = "broadcast"
)

// MaxFrameSize bounds one serialized frame on the duplex channel.
const MaxFrameSize = 1 << 20

// Frame is one JSON message unit on the duplex channel. Which fields are
// meaningful depends on Type; unused fields stay empty on the wire.
type Frame struct {
	Type   FrameType       `json:"type"`
	ID     string          `json:"id,omitempty"`
	Target string          `json:"target,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Validate checks the per-tag field contract for frames this client emits or
// correlates. Inbound-only informational tags (modules, broadcast) carry no
// required fields.
func (f Frame) Validate() error {
	switch f.Type {
	case FrameCall:
		if strings.TrimSpace(f.ID) == "" {
			return ErrMissingCallID
		}
		if strings.TrimSpace(f.Target) == "" {
			return ErrMissingTarget
		}
		if strings.TrimSpace(f.Method) == "" {
			return ErrMissingMethod
		}
	case FrameSubscribe:
		if strings.TrimSpace(f.Target) == "" {
			return ErrMissingTarget
		}
	case FrameResponse:
		if strings.TrimSpace(f.ID) == "" {
			return ErrMissingCallID
		}
	case FrameError, FrameModules, FrameBroadcast:
		// error frames may omit the id when the broker cannot attribute one.
	case "":
		return ErrMissingFrameType
	default:
		return ErrUnknownFrameType
	}
	return nil
}
