package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/config"
)

const (
	// maxMessageSize bounds inbound websocket frames (16MB).
	maxMessageSize = 16 * 1024 * 1024

	dialTimeout  = 45 * time.Second
	setupTimeout = 10 * time.Second
)

// ErrChannelClosed is returned by Send after the channel has been closed.
var ErrChannelClosed = errors.New("live: channel closed")

// Channel is an open bidirectional streaming connection. Sends are safe for
// concurrent use.
type Channel interface {
	Send(ctx context.Context, msg *ClientMessage) error
	Close() error
}

// Handlers receive inbound traffic and lifecycle events from the channel read
// loop. Both callbacks run on the read-loop goroutine; OnClose fires at most
// once and only for remote-initiated closure (a local Close suppresses it).
type Handlers struct {
	OnMessage func(msg *ServerMessage)
	OnClose   func(err error) // nil on clean remote close
}

// Dialer opens live channels against the configured endpoint.
type Dialer interface {
	Dial(ctx context.Context, setup *Setup, handlers Handlers) (Channel, error)
}

type websocketDialer struct {
	logger   *zap.Logger
	endpoint string
	apiKey   string
}

// NewDialer creates a websocket-backed Dialer from the endpoint configuration.
func NewDialer(logger *zap.Logger, cfg *config.Config) Dialer {
	return &websocketDialer{
		logger:   logger.Named("live"),
		endpoint: cfg.Gemini.Endpoint,
		apiKey:   cfg.Gemini.APIKey,
	}
}

// Dial opens the websocket, performs the setup handshake and starts the read
// loop. The returned channel is ready to carry media once Dial returns.
func (d *websocketDialer) Dial(ctx context.Context, setup *Setup, handlers Handlers) (Channel, error) {
	header := http.Header{}
	header.Set("x-goog-api-key", d.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}

	conn, _, err := dialer.DialContext(ctx, d.endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", d.endpoint, err)
	}
	conn.SetReadLimit(maxMessageSize)

	ch := &channel{
		logger:   d.logger,
		conn:     conn,
		handlers: handlers,
	}

	if err := ch.handshake(ctx, setup); err != nil {
		_ = conn.Close()

		return nil, err
	}

	go ch.readLoop()

	d.logger.Info("Live channel established",
		zap.String("model", setup.Model))

	return ch, nil
}

type channel struct {
	logger   *zap.Logger
	conn     *websocket.Conn
	handlers Handlers

	writeMu sync.Mutex
	closed  atomic.Bool
}

// handshake sends the setup frame and waits for the setupComplete reply.
func (c *channel) handshake(ctx context.Context, setup *Setup) error {
	if err := c.write(&ClientMessage{Setup: setup}); err != nil {
		return fmt.Errorf("failed to send setup: %w", err)
	}

	deadline := time.Now().Add(setupTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetReadDeadline(deadline)

	msg, err := c.read()
	if err != nil {
		return fmt.Errorf("failed to receive setup response: %w", err)
	}
	if msg.SetupComplete == nil {
		return errors.New("live: setup not acknowledged by endpoint")
	}

	// Back to blocking reads for the session lifetime.
	_ = c.conn.SetReadDeadline(time.Time{})

	return nil
}

func (c *channel) Send(ctx context.Context, msg *ClientMessage) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.write(msg)
}

func (c *channel) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	return c.conn.Close()
}

func (c *channel) write(msg *ClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *channel) read() (*ServerMessage, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frame: %w", err)
	}

	return &msg, nil
}

// readLoop pumps inbound frames into the handlers until the connection drops.
func (c *channel) readLoop() {
	for {
		msg, err := c.read()
		if err != nil {
			if c.closed.Load() {
				// Local Close already tore the session down.
				return
			}
			c.closed.Store(true)
			_ = c.conn.Close()

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("Live channel closed by endpoint")
				if c.handlers.OnClose != nil {
					c.handlers.OnClose(nil)
				}
			} else {
				c.logger.Warn("Live channel read failed", zap.Error(err))
				if c.handlers.OnClose != nil {
					c.handlers.OnClose(err)
				}
			}

			return
		}

		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(msg)
		}
	}
}
