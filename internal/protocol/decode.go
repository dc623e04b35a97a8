package protocol

import (
	"encoding/json"
	"fmt"
)

// Decode parses one inbound frame. Unknown tags decode successfully so the
// receive loop can route them as broadcast traffic; structural problems
// (bad JSON, missing tag, oversized payload) are the only failures.
func Decode(data []byte) (Frame, error) {
	if len(data) > MaxFrameSize {
		return Frame{}, ErrFrameTooLarge
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.Type == "" {
		return Frame{}, ErrMissingFrameType
	}
	return f, nil
}

// Known reports whether the tag belongs to the frame contract. The receive
// loop treats unknown tags as droppable broadcast noise, never as fatal.
func (t FrameType) Known() bool {
	switch t {
	case FrameCall, FrameSubscribe, FrameResponse, FrameError, FrameModules, FrameBroadcast:
		return true
	default:
		return false
	}
}
