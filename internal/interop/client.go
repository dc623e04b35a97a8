package interop

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/interopctl/internal/protocol"
	"github.com/danmuck/interopctl/internal/protocol/session"
)

// Config configures one interop client instance.
type Config struct {
	ServerURL    string
	ModuleName   string
	Language     string
	Port         int
	AutoRegister bool
	Session      session.Config
}

// DefaultConfig returns client defaults matching the broker's dev setup.
func DefaultConfig() Config {
	return Config{
		ServerURL:    "http://localhost:4000",
		ModuleName:   "go-module",
		Language:     "go",
		AutoRegister: true,
		Session:      session.DefaultConfig(),
	}
}

// BroadcastFunc observes one non-correlated inbound frame (broadcast,
// modules, or any unrecognized tag the broker may add).
type BroadcastFunc func(protocol.Frame)

// Client owns one request/reply connection and one duplex channel to a
// single broker endpoint.
type Client struct {
	cfg   Config
	http  *http.Client
	table *session.CallTable

	connMu sync.Mutex
	conn   *websocket.Conn

	state      atomic.Int32
	closed     chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	registered atomic.Bool

	obsMu     sync.RWMutex
	observers []BroadcastFunc
}

// New validates cfg and builds a client. The duplex channel is not dialed
// until Open.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return nil, ErrServerURLRequired
	}
	if strings.TrimSpace(cfg.ModuleName) == "" {
		return nil, ErrModuleNameRequired
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "go"
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	cfg.Session = cfg.Session.WithDefaults()
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		table:  session.NewCallTable(),
		closed: make(chan struct{}),
	}, nil
}

// Open registers the module (when AutoRegister is set), performs the duplex
// handshake, and starts the receive loop plus reconnection controller.
// Request/reply usability does not depend on Open succeeding: per-call HTTP
// failures are reported per call.
func (c *Client) Open(ctx context.Context) error {
	if c.cfg.AutoRegister {
		if err := c.Register(ctx); err != nil {
			return err
		}
		c.registered.Store(true)
	}
	if err := c.connect(ctx); err != nil {
		if c.registered.Load() {
			_ = c.Unregister(context.Background())
		}
		return err
	}
	c.wg.Add(1)
	go c.superviseDuplex()
	return nil
}

// State reports the duplex channel state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// InFlight reports how many duplex calls are currently outstanding.
func (c *Client) InFlight() int {
	return c.table.Len()
}

// OnBroadcast registers an observer for non-correlated inbound frames.
// Observers run on the receive loop and must not block.
func (c *Client) OnBroadcast(fn BroadcastFunc) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

// Close tears the client down in order: duplex channel, request/reply
// connections, then unregister when auto-register was enabled. Each step is
// best-effort; outstanding duplex calls fail with ErrSessionClosed rather
// than hang. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)

		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()
		c.state.Store(int32(StateDisconnected))

		c.wg.Wait()
		if n := c.table.FailAll(session.ErrSessionClosed); n > 0 {
			log.Warn().Int("dropped", n).Msg("interop: closed with calls in flight")
		}

		c.http.CloseIdleConnections()

		if c.registered.Load() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.Unregister(ctx); err != nil {
				log.Warn().Err(err).Msg("interop: unregister on close failed")
			}
		}
	})
	return nil
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
