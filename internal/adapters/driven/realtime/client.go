// Package realtime implements the push channel over a websocket.
//
// Frames are JSON text messages of the form {"event": name, "data": payload}.
// The server greets every new connection with {"event": "connected"} and
// answers a rejected credential with an "error" or "unauthorized" frame.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ChannelTransport = (*Client)(nil)

// Greeting and rejection frame names.
const (
	eventConnected    = "connected"
	eventError        = "error"
	eventUnauthorized = "unauthorized"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadLimit        = 8 << 20
)

// Config configures a websocket client.
type Config struct {
	// URL is the websocket endpoint. http(s) schemes are rewritten to ws(s).
	URL string

	// HeartbeatInterval is the ping period. Zero disables heartbeats.
	HeartbeatInterval time.Duration

	// HandshakeTimeout bounds the dial plus greeting read.
	HandshakeTimeout time.Duration

	// HTTPClient is used for the upgrade request.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

// envelope is the wire format of every frame.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// errorData is the payload of a rejection frame.
type errorData struct {
	Message string `json:"message"`
}

// Client is a single-connection websocket transport.
// Reconnection is driven from outside by calling Connect again.
type Client struct {
	cfg   Config
	creds driven.CredentialProvider
	log   *logger.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	state  domain.ConnectionState

	hmu          sync.RWMutex
	handlers     map[string]driven.EventHandler
	onConnect    []func()
	onDisconnect []func(error)
}

// New creates a websocket client. creds supplies the bearer token used for
// the upgrade request on every Connect.
func New(cfg Config, creds driven.CredentialProvider) *Client {
	cfg.defaults()
	cfg.URL = wsURL(cfg.URL)
	return &Client{
		cfg:      cfg,
		creds:    creds,
		log:      logger.With("transport", cfg.URL),
		handlers: make(map[string]driven.EventHandler),
	}
}

// On registers the handler for an inbound event, replacing any previous one.
func (c *Client) On(event string, handler driven.EventHandler) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.handlers[event] = handler
}

// OnConnect registers a hook run after each handshake, before the read loop starts.
func (c *Client) OnConnect(fn func()) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.onConnect = append(c.onConnect, fn)
}

// OnDisconnect registers a hook run when the connection drops unexpectedly.
func (c *Client) OnDisconnect(fn func(error)) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.onDisconnect = append(c.onDisconnect, fn)
}

// State returns the current connection state.
func (c *Client) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the endpoint and waits for the greeting frame.
// Connecting while already connected is a no-op. A call made while
// another dial is still in flight fails with domain.ErrConnectivity.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	if c.state == domain.ConnectionConnecting {
		c.mu.Unlock()
		return fmt.Errorf("%w: connect already in progress", domain.ErrConnectivity)
	}
	c.state = domain.ConnectionConnecting
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(domain.ConnectionDisconnected)
		return err
	}
	conn.SetReadLimit(defaultReadLimit)

	connCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.state = domain.ConnectionConnected
	c.mu.Unlock()
	c.log.Debug("connected")

	c.hmu.RLock()
	hooks := append([]func(){}, c.onConnect...)
	c.hmu.RUnlock()
	for _, fn := range hooks {
		fn()
	}

	go c.readLoop(connCtx, conn)
	if c.cfg.HeartbeatInterval > 0 {
		go c.heartbeatLoop(connCtx, conn)
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.Dial(dialCtx, c.cfg.URL, &websocket.DialOptions{
		HTTPClient: c.cfg.HTTPClient,
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: websocket handshake status %d", domain.ErrAuth, resp.StatusCode)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: websocket dial: %v", domain.ErrConnectivity, err)
	}

	_, data, err := conn.Read(dialCtx)
	if err != nil {
		conn.Close(websocket.StatusNormalClosure, "")
		return nil, fmt.Errorf("%w: read greeting: %v", domain.ErrConnectivity, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		conn.Close(websocket.StatusProtocolError, "")
		return nil, fmt.Errorf("%w: malformed greeting: %v", domain.ErrConnectivity, err)
	}
	switch env.Event {
	case eventConnected:
		return conn, nil
	case eventError, eventUnauthorized:
		conn.Close(websocket.StatusNormalClosure, "")
		var detail errorData
		_ = json.Unmarshal(env.Data, &detail)
		if detail.Message == "" {
			detail.Message = env.Event
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrAuth, detail.Message)
	default:
		conn.Close(websocket.StatusProtocolError, "")
		return nil, fmt.Errorf("%w: expected %q, got %q", domain.ErrConnectivity, eventConnected, env.Event)
	}
}

// Disconnect closes the connection. Hooks registered with OnDisconnect
// are not invoked. Safe to call more than once.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.state = domain.ConnectionDisconnected
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(websocket.StatusNormalClosure, "client disconnect"); err != nil {
		c.log.Debug("close: %v", err)
	}
	cancel()
	c.log.Debug("disconnected")
	return nil
}

// Emit sends one event. Delivery is at most once; failures are not retried.
func (c *Client) Emit(ctx context.Context, event string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return domain.ErrNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	frame, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return fmt.Errorf("%w: emit %s: %v", domain.ErrConnectivity, event, err)
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.dropped(conn, err)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Debug("skipping malformed frame: %v", err)
			continue
		}

		c.hmu.RLock()
		handler := c.handlers[env.Event]
		c.hmu.RUnlock()
		if handler == nil {
			c.log.Debug("no handler for %q", env.Event)
			continue
		}
		handler(env.Data)
	}
}

// dropped handles a read failure. A connection already cleared by
// Disconnect is not reported.
func (c *Client) dropped(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.state = domain.ConnectionDisconnected
	c.mu.Unlock()

	cancel()
	conn.Close(websocket.StatusGoingAway, "")

	err := fmt.Errorf("%w: connection lost: %v", domain.ErrConnectivity, cause)
	c.log.Warn("%v", err)

	c.hmu.RLock()
	hooks := append([]func(error){}, c.onDisconnect...)
	c.hmu.RUnlock()
	for _, fn := range hooks {
		fn(err)
	}
}

func (c *Client) heartbeatLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.cfg.HeartbeatInterval)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if errors.Is(ctx.Err(), context.Canceled) {
					return
				}
				c.log.Warn("heartbeat failed: %v", err)
				conn.Close(websocket.StatusGoingAway, "heartbeat timeout")
				return
			}
		}
	}
}

func (c *Client) setState(s domain.ConnectionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func wsURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	default:
		return raw
	}
}

// Factory builds one Client per session.
type Factory struct {
	cfg   Config
	creds driven.CredentialProvider
}

// Ensure Factory implements the interface.
var _ driven.ChannelFactory = (*Factory)(nil)

// NewFactory creates a channel factory.
func NewFactory(cfg Config, creds driven.CredentialProvider) *Factory {
	return &Factory{cfg: cfg, creds: creds}
}

// NewChannel returns a fresh, unconnected transport.
func (f *Factory) NewChannel() driven.ChannelTransport {
	return New(f.cfg, f.creds)
}
