package protocol

import (
	"encoding/json"
	"fmt"
)

// NewCallFrame builds an outbound call frame, marshaling params to JSON.
// A nil params marshals to an empty JSON object so every call frame carries
// a params field the broker can forward untouched.
func NewCallFrame(id, target, method string, params any) (Frame, error) {
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: marshal params: %v", ErrMalformedFrame, err)
	}
	f := Frame{
		Type:   FrameCall,
		ID:     id,
		Target: target,
		Method: method,
		Params: raw,
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// NewSubscribeFrame builds an outbound subscribe frame for one target module.
func NewSubscribeFrame(target string) (Frame, error) {
	f := Frame{
		Type:   FrameSubscribe,
		Target: target,
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Encode serializes a validated frame for the duplex channel.
func Encode(f Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	return data, nil
}
