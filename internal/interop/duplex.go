package interop

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/interopctl/internal/protocol"
	"github.com/danmuck/interopctl/internal/protocol/session"
)

// CallDuplex invokes target.method over the duplex channel and suspends the
// caller until the matching response frame arrives, the call timeout
// elapses, or the channel drops. A timed-out call is cancelled client-side
// only: the broker is not notified and its late response is dropped as
// unknown.
func (c *Client) CallDuplex(ctx context.Context, target, method string, params any) (json.RawMessage, error) {
	if c.State() != StateConnected {
		return nil, ErrNotConnected
	}

	id := session.NewCallID()
	pc, err := c.table.Register(id)
	if err != nil {
		return nil, err
	}

	frame, err := protocol.NewCallFrame(id, target, method, params)
	if err != nil {
		c.table.Reject(id, err)
		return nil, (<-pc.Done()).Err
	}
	if err := c.sendFrame(frame); err != nil {
		c.table.Reject(id, err)
		return nil, (<-pc.Done()).Err
	}

	timer := time.NewTimer(c.cfg.Session.CallTimeout)
	defer timer.Stop()

	select {
	case out := <-pc.Done():
		return out.Result, out.Err
	case <-timer.C:
		c.table.Expire(id)
		out := <-pc.Done()
		return out.Result, out.Err
	case <-ctx.Done():
		c.table.Reject(id, ctx.Err())
		out := <-pc.Done()
		return out.Result, out.Err
	}
}

// Subscribe asks the broker to deliver target's broadcast frames to this
// client. No acknowledgment is awaited. Subscriptions are not replayed
// after a reconnect; callers that need them across channel drops must
// resubscribe themselves.
func (c *Client) Subscribe(target string) error {
	frame, err := protocol.NewSubscribeFrame(target)
	if err != nil {
		return err
	}
	return c.sendFrame(frame)
}

func (c *Client) connect(ctx context.Context) error {
	c.state.Store(int32(StateConnecting))

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.Session.HandshakeTimeout,
	}
	endpoint := duplexURL(c.cfg.ServerURL)
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		return &TransportError{Op: "dial " + endpoint, Cause: err}
	}

	c.connMu.Lock()
	if c.isClosed() {
		c.connMu.Unlock()
		_ = conn.Close()
		c.state.Store(int32(StateDisconnected))
		return ErrClientClosed
	}
	c.conn = conn
	c.connMu.Unlock()
	c.state.Store(int32(StateConnected))
	log.Info().Str("endpoint", endpoint).Msg("interop: duplex channel connected")
	return nil
}

// duplexURL swaps the request/reply scheme for its websocket counterpart on
// the same host.
func duplexURL(serverURL string) string {
	switch {
	case strings.HasPrefix(serverURL, "https"):
		return "wss" + serverURL[len("https"):]
	case strings.HasPrefix(serverURL, "http"):
		return "ws" + serverURL[len("http"):]
	default:
		return serverURL
	}
}

func (c *Client) sendFrame(f protocol.Frame) error {
	data, err := protocol.Encode(f)
	if err != nil {
		return err
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil || c.State() != StateConnected {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.Session.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &TransportError{Op: "write frame", Cause: err}
	}
	return nil
}

// superviseDuplex runs the receive loop and, on channel loss, the
// reconnection controller: fail everything in flight, wait the fixed
// reconnect delay, redial indefinitely until success or session close.
func (c *Client) superviseDuplex() {
	defer c.wg.Done()
	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		c.readLoop(conn)
		if c.isClosed() {
			return
		}

		c.state.Store(int32(StateDisconnected))
		if n := c.table.FailAll(session.ErrConnectionLost); n > 0 {
			log.Warn().Int("dropped", n).Msg("interop: duplex channel lost with calls in flight")
		} else {
			log.Warn().Msg("interop: duplex channel lost")
		}

		if !c.redial() {
			return
		}
	}
}

// redial re-establishes the duplex channel, retrying at the fixed delay
// until the handshake succeeds. Returns false when the session was closed.
func (c *Client) redial() bool {
	for {
		select {
		case <-c.closed:
			return false
		case <-time.After(c.cfg.Session.ReconnectDelay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Session.DialTimeout+c.cfg.Session.HandshakeTimeout)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			return true
		}
		log.Warn().Err(err).Msg("interop: duplex reconnect failed")
	}
}

// readLoop demultiplexes inbound frames until conn fails or closes.
// Malformed frames are logged and dropped, never fatal to the loop.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				log.Debug().Err(err).Msg("interop: duplex read ended")
			}
			return
		}
		frame, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Msg("interop: dropping malformed frame")
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Client) dispatch(frame protocol.Frame) {
	switch frame.Type {
	case protocol.FrameResponse:
		if !c.table.Resolve(frame.ID, frame.Result) {
			log.Debug().Str("call_id", frame.ID).Msg("interop: dropping response for unknown call")
		}
	case protocol.FrameError:
		if frame.ID == "" {
			log.Warn().Str("error", frame.Error).Msg("interop: broker error")
			return
		}
		if !c.table.Reject(frame.ID, &DuplexError{Message: frame.Error}) {
			log.Debug().Str("call_id", frame.ID).Msg("interop: dropping error for unknown call")
		}
	default:
		if !frame.Type.Known() {
			log.Debug().Str("type", string(frame.Type)).Msg("interop: unrecognized frame tag")
		}
		c.notifyObservers(frame)
	}
}

func (c *Client) notifyObservers(frame protocol.Frame) {
	c.obsMu.RLock()
	observers := make([]BroadcastFunc, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()
	for _, fn := range observers {
		fn(frame)
	}
}
