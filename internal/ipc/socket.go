package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dshills/bridgelet/internal/logging"
)

// dialTimeout bounds the total time spent retrying the initial dial.
// The parent creates the socket before spawning the child, so in practice
// the first attempt succeeds; the retries cover slow orchestrators.
const dialTimeout = 10 * time.Second

// SocketChannel carries newline-delimited JSON envelopes over a stream
// connection, typically a unix socket created by the parent.
type SocketChannel struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMu   sync.Mutex
	connected atomic.Bool
	closeOnce sync.Once

	log *logging.Logger
}

// DialSocket connects to the parent's unix socket, retrying with
// exponential backoff until the context is done or the dial deadline passes.
func DialSocket(ctx context.Context, path string, log *logging.Logger) (*SocketChannel, error) {
	var conn net.Conn

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = dialTimeout

	op := func() error {
		var err error
		conn, err = net.Dial("unix", path)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDialFailed, path, err)
	}

	return NewSocketChannel(conn, log), nil
}

// NewSocketChannel wraps an established connection.
func NewSocketChannel(conn net.Conn, log *logging.Logger) *SocketChannel {
	if log == nil {
		log = logging.Null
	}
	c := &SocketChannel{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, 64*1024),
		log:    log,
	}
	c.connected.Store(true)
	return c
}

// Start begins the read loop in its own goroutine.
func (c *SocketChannel) Start(handler Handler) {
	go c.readLoop(handler)
}

// Send transmits an envelope, silently dropping it if disconnected.
func (c *SocketChannel) Send(kind MessageKind, data any) {
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

	line, err := json.Marshal(env)
	if err != nil {
		c.log.Warn("failed to marshal %s envelope: %v", kind, err)
		return
	}
	line = append(line, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.conn.Write(line); err != nil {
		c.connected.Store(false)
	}
}

// Connected reports whether the channel is still alive.
func (c *SocketChannel) Connected() bool {
	return c.connected.Load()
}

// Close tears down the connection. Safe to call more than once.
func (c *SocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		err = c.conn.Close()
	})
	return err
}

// readLoop reads envelopes until the connection drops.
func (c *SocketChannel) readLoop(handler Handler) {
	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				c.log.Debug("channel read error: %v", err)
			}
			c.connected.Store(false)
			return
		}

		env, ok := ParseEnvelope(line)
		if !ok {
			continue
		}
		handler(env)
	}
}
