package binance

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnState is the state of a WSClient connection loop.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateStreaming
	StateBackoff
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// WSOptions tunes a WSClient.
type WSOptions struct {
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // idle time before the connection is considered dead; 0 disables
	ReconnectDelay   time.Duration // fixed wait in the backoff state
}

// WSClient streams one Binance market stream and hands every message to the
// message handler. Run cycles connecting → streaming → backoff → connecting
// until its context is cancelled; there is no retry limit.
type WSClient struct {
	url     string
	stream  string
	opts    WSOptions
	dialer  *websocket.Dialer
	handler func([]byte)
	onState func(ConnState)
	state   atomic.Int32
	logger  *zap.Logger
}

// NewWSClient creates a client for baseURL/stream, e.g.
// wss://fstream.binance.com/ws/btcusdt@aggTrade.
func NewWSClient(baseURL, stream string, opts WSOptions, logger *zap.Logger) *WSClient {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	return &WSClient{
		url:    strings.TrimRight(baseURL, "/") + "/" + stream,
		stream: stream,
		opts:   opts,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		logger: logger.With(zap.String("stream", stream)),
	}
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// OnStateChange registers a hook called on every state transition.
func (c *WSClient) OnStateChange(fn func(ConnState)) {
	c.onState = fn
}

// Stream returns the stream name the client subscribes to.
func (c *WSClient) Stream() string {
	return c.stream
}

// State returns the current connection state.
func (c *WSClient) State() ConnState {
	return ConnState(c.state.Load())
}

// Run blocks until ctx is cancelled.
func (c *WSClient) Run(ctx context.Context) {
	var conn *websocket.Conn
	state := StateConnecting

	for {
		c.setState(state)

		switch state {
		case StateConnecting:
			var err error
			conn, _, err = c.dialer.DialContext(ctx, c.url, nil)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Warn("Failed to connect to WebSocket", zap.String("url", c.url), zap.Error(err))
				state = StateBackoff
				continue
			}
			c.logger.Info("WebSocket connected", zap.String("url", c.url))
			state = StateStreaming

		case StateStreaming:
			err := c.listen(ctx, conn)
			_ = conn.Close()
			conn = nil
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("WebSocket connection closed, reconnecting",
				zap.Duration("delay", c.opts.ReconnectDelay), zap.Error(err))
			state = StateBackoff

		case StateBackoff:
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.ReconnectDelay):
			}
			state = StateConnecting
		}
	}
}

func (c *WSClient) setState(s ConnState) {
	c.state.Store(int32(s))
	if c.onState != nil {
		c.onState(s)
	}
}

// listen reads until the connection fails or ctx is cancelled.
func (c *WSClient) listen(ctx context.Context, conn *websocket.Conn) error {
	// Closing the connection is the only way to unblock ReadMessage.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if c.opts.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		conn.SetPingHandler(func(appData string) error {
			_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
			err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
			if errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return err
		})
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if c.opts.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		}
		if c.handler != nil {
			c.handler(msg)
		}
	}
}
