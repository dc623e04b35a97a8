package interop

import (
	"errors"
	"fmt"
)

var (
	ErrServerURLRequired  = errors.New("interop: server url required")
	ErrModuleNameRequired = errors.New("interop: module name required")
	ErrNotConnected       = errors.New("interop: duplex channel not connected")
	ErrClientClosed       = errors.New("interop: client closed")
)

// TransportError reports a network-level failure on the request/reply
// channel (connection refused, DNS, TLS).
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("interop: transport failure: op=%s err=%v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// RemoteCallError reports a non-success reply from the broker.
type RemoteCallError struct {
	Status int
	Body   string
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("interop: remote call failed: status=%d body=%q", e.Status, e.Body)
}

// RegistrationError reports a failed register or unregister exchange.
type RegistrationError struct {
	Op    string
	Cause error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("interop: %s failed: %v", e.Op, e.Cause)
}

func (e *RegistrationError) Unwrap() error { return e.Cause }

// DuplexError carries the broker's error payload for one duplex call.
type DuplexError struct {
	Message string
}

func (e *DuplexError) Error() string {
	return fmt.Sprintf("interop: duplex call failed: %s", e.Message)
}
