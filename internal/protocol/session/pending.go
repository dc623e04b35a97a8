package session

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var (
	ErrDuplicateCallID = errors.New("session: duplicate call id")
	ErrCallTimeout     = errors.New("session: duplex call timeout")
	ErrConnectionLost  = errors.New("session: duplex connection lost")
	ErrSessionClosed   = errors.New("session: session closed")
)

// Outcome is the single resolution delivered to one pending call.
type Outcome struct {
	Result json.RawMessage
	Err    error
}

// PendingCall is one in-flight duplex call awaiting exactly one outcome.
// The done channel is buffered for one element and written only by the
// table action that removed the entry, so receiving from Done never blocks
// forever once the entry is gone.
type PendingCall struct {
	id       string
	queuedAt time.Time
	done     chan Outcome
}

func (p *PendingCall) ID() string { return p.id }

func (p *PendingCall) QueuedAt() time.Time { return p.queuedAt }

// Done yields the call's single outcome once resolved, rejected, or expired.
func (p *PendingCall) Done() <-chan Outcome { return p.done }

// CallTable maps outstanding call identifiers to pending completion slots.
// Register, Resolve, Reject, and Expire are safe for concurrent use; the
// entry is removed under the lock before its outcome is delivered, so only
// the first of {resolve, reject, expire} for an identifier has effect.
type CallTable struct {
	mu    sync.Mutex
	calls map[string]*PendingCall
}

func NewCallTable() *CallTable {
	return &CallTable{
		calls: make(map[string]*PendingCall),
	}
}

// Register creates a pending slot for id. A duplicate id is a
// programming-invariant violation, not a recoverable condition.
func (t *CallTable) Register(id string) (*PendingCall, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.calls[id]; ok {
		return nil, ErrDuplicateCallID
	}
	pc := &PendingCall{
		id:       id,
		queuedAt: time.Now(),
		done:     make(chan Outcome, 1),
	}
	t.calls[id] = pc
	return pc, nil
}

// Resolve fulfills and removes the matching call. Returns false when the
// identifier is unknown, which covers a response arriving after the caller
// already timed out.
func (t *CallTable) Resolve(id string, result json.RawMessage) bool {
	pc, ok := t.take(id)
	if !ok {
		return false
	}
	pc.done <- Outcome{Result: result}
	return true
}

// Reject fails and removes the matching call with err.
func (t *CallTable) Reject(id string, err error) bool {
	pc, ok := t.take(id)
	if !ok {
		return false
	}
	pc.done <- Outcome{Err: err}
	return true
}

// Expire removes the call and fails it with ErrCallTimeout. A no-op if a
// response already resolved the entry.
func (t *CallTable) Expire(id string) bool {
	return t.Reject(id, ErrCallTimeout)
}

// FailAll drains every pending call with err and returns how many were
// failed. Used on connection loss and session close so no caller hangs.
func (t *CallTable) FailAll(err error) int {
	t.mu.Lock()
	drained := make([]*PendingCall, 0, len(t.calls))
	for id, pc := range t.calls {
		delete(t.calls, id)
		drained = append(drained, pc)
	}
	t.mu.Unlock()

	for _, pc := range drained {
		pc.done <- Outcome{Err: err}
	}
	return len(drained)
}

// Len reports the number of calls currently in flight.
func (t *CallTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func (t *CallTable) take(id string) (*PendingCall, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pc, ok := t.calls[id]
	if !ok {
		return nil, false
	}
	delete(t.calls, id)
	return pc, true
}
