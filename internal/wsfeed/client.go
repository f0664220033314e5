// Package wsfeed reads result messages relayed over a websocket as JSON
// frames and publishes them as bus events. The client reconnects with
// exponential backoff until closed.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"baccarat-ledger/internal/bus"
	"baccarat-ledger/internal/observability"
)

// Source names events produced by this transport.
const Source = "wsfeed"

// Config configures websocket client behavior.
type Config struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultConfig returns default websocket configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Frame is one relayed message.
type Frame struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
	Edited    bool   `json:"edited"`
}

// Client implements bus.Inbound over a websocket.
type Client struct {
	endpoint string
	config   Config
	logger   *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	events chan bus.Event

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup
}

// Dial connects to endpoint and starts reading.
func Dial(ctx context.Context, endpoint string, config *Config, logger *zap.Logger) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		events:   make(chan bus.Event, 256),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes the websocket connection.
func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// Events returns the event stream. The client is closed once ctx is done.
func (c *Client) Events(ctx context.Context) (<-chan bus.Event, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.done:
		}
	}()
	return c.events, nil
}

// Close closes the connection and the event channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.events)
	return nil
}

// readLoop reads frames and reconnects on error.
func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.reconnect(reconnectDelay) {
				return
			}
			reconnectDelay = nextDelay(reconnectDelay, c.config.MaxReconnectDelay)
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warn("feed read failed, reconnecting", zap.Error(err), zap.Duration("delay", reconnectDelay))

			c.connMu.Lock()
			if c.conn == conn {
				c.conn.Close()
				c.conn = nil
			}
			c.connMu.Unlock()
			continue
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect waits delay then dials once. It returns false on shutdown.
func (c *Client) reconnect(delay time.Duration) bool {
	select {
	case <-c.done:
		return false
	case <-time.After(delay):
	}

	observability.RecordFeedReconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Warn("feed reconnect failed", zap.Error(err))
		return true
	}
	if c.closed.Load() {
		c.connMu.Lock()
		c.conn.Close()
		c.connMu.Unlock()
		return false
	}
	c.logger.Info("feed reconnected", zap.String("endpoint", c.endpoint))
	return true
}

func nextDelay(d, limit time.Duration) time.Duration {
	d *= 2
	if d > limit {
		d = limit
	}
	return d
}

// handleMessage decodes one frame. Undecodable or empty frames are dropped.
func (c *Client) handleMessage(message []byte) {
	var f Frame
	if err := json.Unmarshal(message, &f); err != nil {
		c.logger.Warn("invalid feed frame", zap.Error(err))
		return
	}
	if f.ChatID == 0 || f.Text == "" {
		return
	}

	ev := bus.Event{
		Kind:      bus.KindMessage,
		ChatID:    f.ChatID,
		MessageID: f.MessageID,
		Text:      f.Text,
		Source:    Source,
		At:        time.Now(),
	}
	if f.Edited {
		ev.Kind = bus.KindEdited
	}

	// Block until we can send - never drop events
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A failed ping surfaces as a read error
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

var _ bus.Inbound = (*Client)(nil)
