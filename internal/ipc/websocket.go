package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/dshills/bridgelet/internal/logging"
)

// WebsocketChannel carries JSON envelopes over a websocket connection to a
// parent hub. Used when the parent runs remotely instead of on a local
// unix socket.
type WebsocketChannel struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	connected atomic.Bool
	closeOnce sync.Once

	log *logging.Logger
}

// DialWebsocket connects to the parent hub at the given ws:// or wss:// URL,
// retrying with exponential backoff until the context is done.
func DialWebsocket(ctx context.Context, url string, log *logging.Logger) (*WebsocketChannel, error) {
	var ws *websocket.Conn

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = dialTimeout

	op := func() error {
		var err error
		ws, _, err = websocket.DefaultDialer.DialContext(ctx, url, nil)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDialFailed, url, err)
	}

	return NewWebsocketChannel(ws, log), nil
}

// NewWebsocketChannel wraps an established websocket connection.
func NewWebsocketChannel(ws *websocket.Conn, log *logging.Logger) *WebsocketChannel {
	if log == nil {
		log = logging.Null
	}
	c := &WebsocketChannel{
		ws:  ws,
		log: log,
	}
	c.connected.Store(true)
	return c
}

// Start begins the read loop in its own goroutine.
func (c *WebsocketChannel) Start(handler Handler) {
	go c.readLoop(handler)
}

// Send transmits an envelope, silently dropping it if disconnected.
func (c *WebsocketChannel) Send(kind MessageKind, data any) {
	if !c.connected.Load() {
		c.log.Debug("dropping %s envelope, channel disconnected", kind)
		return
	}

	env := Envelope{ID: kind}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			c.log.Warn("failed to marshal %s payload: %v", kind, err)
			return
		}
		env.Data = raw
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteJSON(env); err != nil {
		c.connected.Store(false)
	}
}

// Connected reports whether the channel is still alive.
func (c *WebsocketChannel) Connected() bool {
	return c.connected.Load()
}

// Close tears down the connection. Safe to call more than once.
func (c *WebsocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		err = c.ws.Close()
	})
	return err
}

// readLoop reads envelopes until the connection drops.
func (c *WebsocketChannel) readLoop(handler Handler) {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			c.connected.Store(false)
			return
		}

		env, ok := ParseEnvelope(raw)
		if !ok {
			continue
		}
		handler(env)
	}
}
