// Package wsconn is a WebSocket client with automatic reconnection, built on
// github.com/coder/websocket.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL              string
	Name             string
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // 0 = wait forever for the next message
	WriteTimeout     time.Duration
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	MaxReconnects    int // 0 = infinite
	PingInterval     time.Duration
	MaxMessageSize   int64
	Logger           logger.LoggerInterface
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:              url,
		Name:             name,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		InitialBackoff:   1 * time.Second,
		MaxBackoff:       30 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   1 << 20,
	}
}

// MessageHandler receives every data frame.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler is notified on each state transition. err is the cause of a
// disconnect, if any.
type StateHandler func(state State, err error)

// Client is a reconnecting WebSocket client. Send is safe for concurrent use.
type Client struct {
	config Config
	logger logger.LoggerInterface

	conn   *websocket.Conn
	connMu sync.RWMutex

	state   State
	stateMu sync.RWMutex

	onMessage  MessageHandler
	onState    StateHandler
	handlersMu sync.RWMutex

	// lifetime is cancelled by Close; background loops derive from it.
	lifetime context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	closed     atomic.Bool
	closeOnce  sync.Once
	reconnects atomic.Int64
}

// New creates a client. It does not dial.
func New(config Config) (*Client, error) {
	u, err := url.Parse(config.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("invalid websocket url %q", config.URL)))
	}

	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	log := config.Logger
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:   config,
		logger:   log,
		state:    StateDisconnected,
		lifetime: ctx,
		cancel:   cancel,
	}, nil
}

// OnMessage registers the message handler.
func (c *Client) OnMessage(handler MessageHandler) {
	c.handlersMu.Lock()
	c.onMessage = handler
	c.handlersMu.Unlock()
}

// OnStateChange registers the state handler.
func (c *Client) OnStateChange(handler StateHandler) {
	c.handlersMu.Lock()
	c.onState = handler
	c.handlersMu.Unlock()
}

// Connect dials once. On success the client keeps itself connected,
// reconnecting with exponential backoff until Close.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return apperror.New(apperror.CodeWebSocketClosed,
			apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnecting, nil)

	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return err
	}
	return nil
}

// ConnectWithRetry keeps calling Connect with backoff until it succeeds, ctx
// is done or MaxReconnects attempts have failed.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if c.config.MaxReconnects > 0 && attempt > c.config.MaxReconnects {
			return lastErr
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.lifetime.Done():
				return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
			case <-time.After(Backoff(attempt-1, c.config.InitialBackoff, c.config.MaxBackoff)):
			}
		}

		lastErr = c.Connect(ctx)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn(ctx, "websocket connect failed", "name", c.config.Name, "attempt", attempt+1, "error", lastErr)
	}
}

func (c *Client) dial(ctx context.Context) error {
	dialCtx := ctx
	if c.config.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.config.HandshakeTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(dialCtx, c.config.URL, nil)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dial %s", c.config.Name)))
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	// Close may have raced with the dial.
	if c.closed.Load() {
		conn.Close(websocket.StatusNormalClosure, "")
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnected, nil)
	c.logger.Info(ctx, "websocket connected", "name", c.config.Name, "url", c.config.URL)

	c.wg.Add(1)
	go c.readLoop(conn)

	if c.config.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop(conn)
	}

	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		ctx := c.lifetime
		var cancel context.CancelFunc = func() {}
		if c.config.ReadTimeout > 0 {
			ctx, cancel = context.WithTimeout(c.lifetime, c.config.ReadTimeout)
		}

		_, data, err := conn.Read(ctx)
		cancel()

		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warn(c.lifetime, "websocket read failed", "name", c.config.Name, "error", err)
			conn.Close(websocket.StatusGoingAway, "read failed")
			c.setState(StateReconnecting, err)

			c.wg.Add(1)
			go c.reconnect()
			return
		}

		c.handlersMu.RLock()
		handler := c.onMessage
		c.handlersMu.RUnlock()

		if handler != nil {
			handler(c.lifetime, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.lifetime.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.lifetime, c.config.PingInterval)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				// The read loop observes the broken connection and reconnects.
				return
			}
		}
	}
}

func (c *Client) reconnect() {
	defer c.wg.Done()

	for attempt := 0; ; attempt++ {
		if c.config.MaxReconnects > 0 && attempt >= c.config.MaxReconnects {
			err := apperror.New(apperror.CodeWebSocketConnectionError,
				apperror.WithContext(fmt.Sprintf("%s: gave up after %d reconnects", c.config.Name, attempt)))
			c.setState(StateDisconnected, err)
			return
		}

		select {
		case <-c.lifetime.Done():
			return
		case <-time.After(Backoff(attempt, c.config.InitialBackoff, c.config.MaxBackoff)):
		}

		c.reconnects.Add(1)
		if err := c.dial(c.lifetime); err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warn(c.lifetime, "websocket reconnect failed", "name", c.config.Name, "attempt", attempt+1, "error", err)
			continue
		}
		return
	}
}

// Backoff returns the delay before reconnect attempt n (0-based): initial
// doubled n times, capped at max.
func Backoff(n int, initial, max time.Duration) time.Duration {
	d := initial
	for i := 0; i < n && d < max; i++ {
		d *= 2
	}
	if d > max {
		d = max
	}
	return d
}

// Send writes a text frame.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil || !c.IsConnected() {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(fmt.Sprintf("%s: not connected", c.config.Name)))
	}

	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}

	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name))
	}
	return nil
}

// SendJSON encodes v and sends it as a text frame.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(err),
			apperror.WithContext("encode message"))
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the client currently holds a live connection.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Reconnects returns how many reconnect dials have been attempted.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// Close stops reconnecting and closes the connection. It is idempotent.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn != nil {
			closeErr := conn.Close(websocket.StatusNormalClosure, "client closing")
			var ce websocket.CloseError
			if closeErr != nil && !errors.As(closeErr, &ce) && !errors.Is(closeErr, context.Canceled) {
				c.logger.Debug(context.Background(), "websocket close", "name", c.config.Name, "error", closeErr)
			}
		}

		c.wg.Wait()
		c.setState(StateClosed, nil)
	})
	return err
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed {
		c.stateMu.Unlock()
		return
	}
	c.state = state
	c.stateMu.Unlock()

	c.handlersMu.RLock()
	handler := c.onState
	c.handlersMu.RUnlock()

	if handler != nil {
		handler(state, err)
	}
}
