package server

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arloliu/go-stellarium/logger"
	"github.com/arloliu/go-stellarium/stellarium"
)

// Interest is the readiness a connection asks the polling loop for in the current cycle.
type Interest struct {
	Fd    int
	Read  bool
	Write bool
}

// Connection is the per-client session of the telescope server.
//
// It owns a fixed-capacity read buffer and write buffer, frames inbound bytes with the codec
// selected by its kind, and reports decoded events to its Handler. A Connection is driven by a
// single polling loop goroutine; only ServerMinusClientTime, IsClosed, Err and the metrics are
// safe to call from other goroutines.
type Connection struct {
	id      uuid.UUID
	cfg     *ConnectionConfig
	sock    Socket
	handler Handler
	logger  logger.Logger

	codec stellarium.Codec
	rbuf  *stellarium.Buffer
	wbuf  *stellarium.Buffer

	serverMinusClientTime atomic.Int64
	closed                atomic.Bool
	closeErr              atomic.Pointer[error]

	metrics ConnectionMetrics
}

// NewConnection creates a connection for an accepted client socket and calls handler.OnNewConnection.
//
// The codec is chosen once from the configured kind. Returns an error if any argument is nil or the
// configuration is invalid.
func NewConnection(sock Socket, handler Handler, cfg *ConnectionConfig) (*Connection, error) {
	if sock == nil {
		return nil, ErrSocketNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}
	if cfg == nil {
		return nil, ErrConnConfigNil
	}

	codec, err := stellarium.NewCodec(cfg.kind, cfg.bufferSize)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	conn := &Connection{
		id:      id,
		cfg:     cfg,
		sock:    sock,
		handler: handler,
		codec:   codec,
		rbuf:    stellarium.NewBuffer(cfg.bufferSize),
		wbuf:    stellarium.NewBuffer(cfg.bufferSize),
		logger: cfg.logger.With(
			"id", id.String(),
			"remote", sock.RemoteAddr(),
			"kind", cfg.kind.String(),
		),
	}

	conn.logger.Info("connection accepted", "fd", sock.Fd())
	handler.OnNewConnection(conn)

	return conn, nil
}

// ID returns the unique id of the connection.
func (c *Connection) ID() uuid.UUID { return c.id }

// Kind returns the framing variant of the connection.
func (c *Connection) Kind() stellarium.Kind { return c.codec.Kind() }

// RemoteAddr returns the peer address.
func (c *Connection) RemoteAddr() string { return c.sock.RemoteAddr() }

// GetLogger returns the logger associated with the connection.
func (c *Connection) GetLogger() logger.Logger { return c.logger }

// GetMetrics returns the metrics associated with the connection.
func (c *Connection) GetMetrics() *ConnectionMetrics { return &c.metrics }

// ServerMinusClientTime returns the offset between the server clock and the client clock, in
// microseconds, as computed from the last time-bearing message. It's 0 until such a message arrives.
func (c *Connection) ServerMinusClientTime() int64 {
	return c.serverMinusClientTime.Load()
}

// Fd returns the socket descriptor to register with the polling loop.
func (c *Connection) Fd() int { return c.sock.Fd() }

// WantsRead reports whether the connection wants read readiness. An open connection always listens.
func (c *Connection) WantsRead() bool { return !c.closed.Load() }

// WantsWrite reports whether the write buffer holds unflushed bytes.
func (c *Connection) WantsWrite() bool { return !c.closed.Load() && c.wbuf.Len() > 0 }

// Interest returns the readiness request of the current poll cycle.
func (c *Connection) Interest() Interest {
	return Interest{Fd: c.Fd(), Read: c.WantsRead(), Write: c.WantsWrite()}
}

// IsClosed reports whether the connection has terminated.
func (c *Connection) IsClosed() bool { return c.closed.Load() }

// Err returns the reason the connection terminated, or nil while it's open.
func (c *Connection) Err() error {
	if p := c.closeErr.Load(); p != nil {
		return *p
	}

	return nil
}

// HandleReadiness performs at most one read and one write according to the readiness reported by
// the polling loop. A read is followed by a decode pass that dispatches every complete frame.
//
// Any returned error has already terminated the connection.
func (c *Connection) HandleReadiness(readable, writable bool) error {
	if c.closed.Load() {
		return c.Err()
	}

	if readable {
		if err := c.performReading(); err != nil {
			c.terminate(err)
			return err
		}
		if c.closed.Load() { // closed by a handler callback
			return nil
		}
	}

	if writable && c.wbuf.Len() > 0 {
		if err := c.performWriting(); err != nil {
			c.terminate(err)
			return err
		}
	}

	return nil
}

func (c *Connection) performReading() error {
	n, err := c.rbuf.Fill(c.sock)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	c.metrics.addBytesRead(n)
	c.logger.Debug("read", "bytes", n, "buffered", c.rbuf.Len())

	return c.dataReceived()
}

// dataReceived decodes and dispatches complete frames in arrival order, leaving a trailing
// partial frame in the read buffer.
func (c *Connection) dataReceived() error {
	for !c.closed.Load() {
		msg, n, err := c.codec.Decode(c.rbuf.Bytes())
		if err != nil {
			c.metrics.incMsgErrCount()
			return err
		}
		if n == 0 {
			return nil
		}
		c.rbuf.Consume(n)

		if msg == nil {
			continue
		}
		c.metrics.incMsgRecvCount()

		if err := c.dispatch(msg); err != nil {
			c.metrics.incMsgErrCount()
			return err
		}
	}

	return nil
}

func (c *Connection) dispatch(msg stellarium.Message) error {
	if ts, ok := msg.(stellarium.Timestamped); ok {
		if clientTime, hasTime := ts.ClientTime(); hasTime {
			c.serverMinusClientTime.Store(c.cfg.clock() - clientTime)
		}
	}

	switch m := msg.(type) {
	case *stellarium.GotoMessage:
		c.logger.Debug("goto received", "ra", m.RA, "dec", m.Dec, "serverMinusClientTime", c.ServerMinusClientTime())
		c.handler.OnGotoReceived(c, m.RA, m.Dec)
		return nil
	default:
		return fmt.Errorf("%w: %T", stellarium.ErrUnknownMessageType, msg)
	}
}

func (c *Connection) performWriting() error {
	n, err := c.wbuf.Flush(c.sock)
	if n > 0 {
		c.metrics.addBytesWritten(n)
		c.logger.Debug("write", "bytes", n, "pending", c.wbuf.Len())
	}

	return err
}

// SendPosition composes a current position report into the write buffer. The report's time is
// expressed in the client's clock using the last known clock offset.
//
// It returns an error wrapping stellarium.ErrBufferOverflow when the write buffer lacks room; the
// message is not queued and the connection stays open, so the caller may retry after the buffer
// drains. The bytes are flushed when the polling loop reports the socket writable.
func (c *Connection) SendPosition(ra uint32, dec int32, status int32) error {
	if c.closed.Load() {
		return fmt.Errorf("send position: %w", stellarium.ErrConnClosed)
	}

	msg := &stellarium.CurrentPositionMessage{
		Time:   c.cfg.clock() - c.ServerMinusClientTime(),
		RA:     ra,
		Dec:    dec,
		Status: status,
	}
	if err := c.codec.Encode(c.wbuf, msg); err != nil {
		if errors.Is(err, stellarium.ErrBufferOverflow) {
			c.metrics.incWriteBackpressureCount()
		}
		return fmt.Errorf("send position: %w", err)
	}
	c.metrics.incMsgSendCount()

	return nil
}

// Close closes the connection and notifies the handler with ErrClosedByServer.
// Calling Close on a terminated connection is a no-op.
func (c *Connection) Close() error {
	return c.terminate(ErrClosedByServer)
}

// terminate closes the socket and reports the reason to the handler, exactly once.
func (c *Connection) terminate(reason error) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.closeErr.Store(&reason)

	err := c.sock.Close()

	switch {
	case errors.Is(reason, ErrClosedByServer), errors.Is(reason, stellarium.ErrConnClosed):
		c.logger.Info("connection closed", "reason", reason)
	default:
		c.logger.Warn("connection terminated", "reason", reason)
	}

	c.handler.OnConnectionClosed(c, reason)

	return err
}
