// Package stream maintains the websocket channel to the remote voice
// service. Inbound frames are queued by a reader goroutine and dispatched
// from Poll on the caller's goroutine, so handlers never run concurrently
// with the tick loop.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"petra/internal/domain"
	"petra/internal/ports"
)

// ErrNotConnected is returned by SendChunk while no channel is open.
var ErrNotConnected = errors.New("stream is not connected")

// DialFunc opens a websocket connection to endpoint.
type DialFunc func(ctx context.Context, endpoint string) (*websocket.Conn, error)

// Config controls the stream client.
type Config struct {
	Endpoint          string
	ReconnectInterval time.Duration
	HandshakeTimeout  time.Duration
	// PingInterval enables keepalive pings. A peer that does not answer
	// within PongTimeout is treated as gone.
	PingInterval time.Duration
	PongTimeout  time.Duration
	InboundQueue int
	Dial         DialFunc
}

// Client owns at most one live connection and reconnects on Poll.
type Client struct {
	cfg       Config
	handler   ports.FrameHandler
	clock     ports.Clock
	telemetry ports.Telemetry
	log       zerolog.Logger

	mu          sync.Mutex
	link        *link
	lastAttempt time.Time
}

func NewClient(cfg Config, handler ports.FrameHandler, clock ports.Clock, telemetry ports.Telemetry, log zerolog.Logger) *Client {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 5 * time.Second
	}
	if cfg.InboundQueue <= 0 {
		cfg.InboundQueue = 64
	}
	if cfg.Dial == nil {
		cfg.Dial = dialer(cfg.HandshakeTimeout)
	}
	return &Client{
		cfg:       cfg,
		handler:   handler,
		clock:     clock,
		telemetry: telemetry,
		log:       log.With().Str("component", "stream").Logger(),
	}
}

func dialer(timeout time.Duration) DialFunc {
	d := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}
	return func(ctx context.Context, endpoint string) (*websocket.Conn, error) {
		conn, _, err := d.DialContext(ctx, endpoint, nil)
		return conn, err
	}
}

// Connect replaces any existing connection with a fresh one. The attempt
// time is recorded whether or not the dial succeeds.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.lastAttempt = c.clock.Now()
	old := c.link
	c.link = nil
	c.mu.Unlock()

	if old != nil {
		old.shutdown()
	}

	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	conn, err := c.cfg.Dial(ctx, c.cfg.Endpoint)
	c.telemetry.ConnectAttempt(err == nil)
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", c.cfg.Endpoint).
			Str("code", string(domain.ErrorCodeConnect)).Msg("connect failed")
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.Endpoint, err)
	}

	l := startLink(conn, c.cfg)
	c.mu.Lock()
	c.link = l
	c.mu.Unlock()

	c.log.Info().Str("endpoint", c.cfg.Endpoint).Msg("connected")
	return nil
}

// IsAvailable reports whether a connection is open and believed healthy.
func (c *Client) IsAvailable() bool {
	c.mu.Lock()
	l := c.link
	c.mu.Unlock()
	return l != nil && l.healthy()
}

func (c *Client) State() domain.ConnectionState {
	if c.IsAvailable() {
		return domain.ConnectionConnected
	}
	return domain.ConnectionDisconnected
}

// SendChunk transmits one binary frame. A failed write marks the
// connection dead; the next Poll tears it down.
func (c *Client) SendChunk(payload []byte) error {
	c.mu.Lock()
	l := c.link
	c.mu.Unlock()
	if l == nil || !l.healthy() {
		return ErrNotConnected
	}

	if err := l.write(websocket.BinaryMessage, payload); err != nil {
		l.fail(err)
		return fmt.Errorf("failed to send audio: %w", err)
	}
	return nil
}

// Poll dispatches queued inbound frames in arrival order, drops a dead
// connection and reconnects once the reconnect interval has strictly
// elapsed since the previous attempt.
func (c *Client) Poll(ctx context.Context) {
	c.mu.Lock()
	l := c.link
	c.mu.Unlock()

	if l != nil {
		select {
		case <-l.done:
			c.dispatch(l, -1)
			c.drop(l)
		default:
			c.dispatch(l, len(l.frames))
			if !l.healthy() {
				c.drop(l)
			}
		}
	}

	if c.reconnectDue() {
		_ = c.Connect(ctx)
	}
}

func (c *Client) reconnectDue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.link != nil {
		return false
	}
	if c.lastAttempt.IsZero() {
		return true
	}
	return c.clock.Now().Sub(c.lastAttempt) > c.cfg.ReconnectInterval
}

// dispatch delivers up to limit frames; a negative limit drains the queue.
func (c *Client) dispatch(l *link, limit int) {
	for n := 0; limit < 0 || n < limit; n++ {
		select {
		case frame := <-l.frames:
			switch frame.Kind {
			case domain.FrameBinary:
				c.handler.HandleBinary(frame.Data)
			case domain.FrameText:
				c.handler.HandleText(string(frame.Data))
			}
		default:
			return
		}
	}
}

func (c *Client) drop(l *link) {
	c.mu.Lock()
	if c.link == l {
		c.link = nil
	}
	c.mu.Unlock()

	l.shutdown()
	if err := l.cause(); err != nil {
		c.log.Warn().Err(err).Msg("connection lost")
		return
	}
	c.log.Info().Msg("connection closed")
}

// Close shuts the current connection down without scheduling a reconnect.
func (c *Client) Close() error {
	c.mu.Lock()
	l := c.link
	c.link = nil
	c.mu.Unlock()
	if l == nil {
		return nil
	}

	_ = l.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	l.shutdown()
	return nil
}

type link struct {
	conn   *websocket.Conn
	frames chan domain.Frame
	done   chan struct{}
	stop   chan struct{}

	writeMu  sync.Mutex
	stopOnce sync.Once

	errMu  sync.Mutex
	err    error
	failed bool
}

func startLink(conn *websocket.Conn, cfg Config) *link {
	l := &link{
		conn:   conn,
		frames: make(chan domain.Frame, cfg.InboundQueue),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}

	if cfg.PingInterval > 0 && cfg.PongTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
		})
		go l.pingLoop(cfg.PingInterval)
	}
	go l.readLoop()
	return l
}

func (l *link) readLoop() {
	defer close(l.done)

	for {
		kind, payload, err := l.conn.ReadMessage()
		if err != nil {
			l.fail(fmt.Errorf("failed to read frame: %w", err))
			return
		}

		frame := domain.Frame{Data: payload}
		switch kind {
		case websocket.BinaryMessage:
			frame.Kind = domain.FrameBinary
		case websocket.TextMessage:
			frame.Kind = domain.FrameText
		default:
			continue
		}

		select {
		case l.frames <- frame:
		case <-l.stop:
			return
		}
	}
}

func (l *link) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(interval)); err != nil {
				l.fail(fmt.Errorf("failed to send ping: %w", err))
				return
			}
		case <-l.stop:
			return
		case <-l.done:
			return
		}
	}
}

func (l *link) write(kind int, payload []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.conn.WriteMessage(kind, payload)
}

func (l *link) healthy() bool {
	select {
	case <-l.done:
		return false
	default:
	}
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return !l.failed
}

func (l *link) fail(err error) {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	l.failed = true
	if err == nil || l.err != nil {
		return
	}
	if websocket.IsCloseError(errors.Unwrap(err),
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}
	l.err = err
}

func (l *link) cause() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.err
}

func (l *link) shutdown() {
	l.stopOnce.Do(func() {
		close(l.stop)
		_ = l.conn.Close()
	})
}
