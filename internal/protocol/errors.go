package protocol

import "errors"

var (
	ErrMalformedFrame   = errors.New("protocol: malformed frame")
	ErrMissingFrameType = errors.New("protocol: missing frame type")
	ErrUnknownFrameType = errors.New("protocol: unknown frame type")
	ErrMissingCallID    = errors.New("protocol: missing call id")
	ErrMissingTarget    = errors.New("protocol: missing target")
	ErrMissingMethod    = errors.New("protocol: missing method")
	ErrFrameTooLarge    = errors.New("protocol: frame too large")
)
