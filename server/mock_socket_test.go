package server

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-stellarium/logger"
	"github.com/arloliu/go-stellarium/stellarium"
)

// fakeSocket is a scripted Socket: each Read returns the next chunk, each Write accepts at most the
// next write cap.
type fakeSocket struct {
	reads      [][]byte
	readErr    error // returned once reads are exhausted; nil means would block
	readCalls  int
	writeCaps  []int
	writeErr   error
	written    []byte
	closeCount int
}

var _ Socket = (*fakeSocket)(nil)

func (s *fakeSocket) Fd() int { return 42 }

func (s *fakeSocket) RemoteAddr() string { return "fake:1" }

func (s *fakeSocket) Read(p []byte) (int, error) {
	s.readCalls++
	if len(s.reads) == 0 {
		if s.readErr != nil {
			return 0, s.readErr
		}
		return 0, stellarium.ErrWouldBlock
	}
	n := copy(p, s.reads[0])
	if n < len(s.reads[0]) {
		s.reads[0] = s.reads[0][n:]
	} else {
		s.reads = s.reads[1:]
	}

	return n, nil
}

func (s *fakeSocket) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	n := len(p)
	if len(s.writeCaps) > 0 {
		n = min(n, s.writeCaps[0])
		s.writeCaps = s.writeCaps[1:]
	}
	if n == 0 {
		return 0, stellarium.ErrWouldBlock
	}
	s.written = append(s.written, p[:n]...)

	return n, nil
}

func (s *fakeSocket) Close() error {
	s.closeCount++
	return nil
}

type gotoCall struct {
	ra  uint32
	dec int32
}

// recordingHandler records every callback.
type recordingHandler struct {
	newConns []*Connection
	gotos    []gotoCall
	closed   []error

	onGoto func(conn *Connection, ra uint32, dec int32)
}

var _ Handler = (*recordingHandler)(nil)

func (h *recordingHandler) OnNewConnection(conn *Connection) {
	h.newConns = append(h.newConns, conn)
}

func (h *recordingHandler) OnGotoReceived(conn *Connection, ra uint32, dec int32) {
	h.gotos = append(h.gotos, gotoCall{ra: ra, dec: dec})
	if h.onGoto != nil {
		h.onGoto(conn, ra, dec)
	}
}

func (h *recordingHandler) OnConnectionClosed(_ *Connection, reason error) {
	h.closed = append(h.closed, reason)
}

// quietLogger returns a logger that discards everything below error level.
func quietLogger() logger.Logger {
	return logger.NewSlogWithWriter(io.Discard, logger.ErrorLevel, false)
}

// fixedClock is a settable microsecond clock.
type fixedClock struct{ now int64 }

func (c *fixedClock) Now() int64 { return c.now }

func newTestConn(t *testing.T, sock Socket, h Handler, opts ...ConnOption) *Connection {
	t.Helper()

	opts = append([]ConnOption{WithLogger(quietLogger())}, opts...)
	cfg, err := NewConnectionConfig(opts...)
	require.NoError(t, err)

	conn, err := NewConnection(sock, h, cfg)
	require.NoError(t, err)

	return conn
}

// gotoFrame builds a raw binary goto frame.
func gotoFrame(clientTime int64, ra uint32, dec int32) []byte {
	frame := make([]byte, stellarium.GotoMsgSize)
	binary.LittleEndian.PutUint16(frame[0:2], stellarium.GotoMsgSize)
	binary.LittleEndian.PutUint16(frame[2:4], stellarium.GotoMsgType)
	binary.LittleEndian.PutUint64(frame[4:12], uint64(clientTime))
	binary.LittleEndian.PutUint32(frame[12:16], ra)
	binary.LittleEndian.PutUint32(frame[16:20], uint32(dec))

	return frame
}

var errReset = errors.New("connection reset by peer")
