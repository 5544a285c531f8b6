package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/arloliu/go-stellarium/stellarium"
)

// Socket is a non-blocking stream socket driven by the polling loop.
//
// Read returns stellarium.ErrWouldBlock when no data is available and io.EOF on orderly shutdown.
// Write may write fewer bytes than requested and returns stellarium.ErrWouldBlock when the
// socket can't accept data.
type Socket interface {
	stellarium.Reader
	stellarium.Writer
	// Fd returns the file descriptor registered with the polling loop.
	Fd() int
	// RemoteAddr returns the address of the peer, for logging.
	RemoteAddr() string
	// Close closes the socket. Calling Close more than once is a no-op.
	Close() error
}

// fdSocket is a Socket backed by a raw non-blocking file descriptor.
type fdSocket struct {
	fd        int
	remote    string
	closeOnce sync.Once
	closeErr  error
}

var _ Socket = (*fdSocket)(nil)

// NewSocket takes over an accepted connection and returns it as a non-blocking raw socket.
//
// The descriptor is duplicated and conn is closed; from now on the returned Socket owns the
// underlying socket and must be closed by the caller.
func NewSocket(conn net.Conn) (Socket, error) {
	if conn == nil {
		return nil, ErrSocketNil
	}

	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, fmt.Errorf("%T doesn't expose a file descriptor", conn)
	}

	rc, err := sc.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("syscall conn: %w", err)
	}

	dupFd := -1
	var dupErr error
	err = rc.Control(func(fd uintptr) {
		dupFd, dupErr = unix.Dup(int(fd))
	})
	if err != nil {
		return nil, fmt.Errorf("control: %w", err)
	}
	if dupErr != nil {
		return nil, os.NewSyscallError("dup", dupErr)
	}

	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	sock, err := NewSocketFromFd(dupFd, remote)
	if err != nil {
		_ = unix.Close(dupFd)
		return nil, err
	}

	// the duplicate keeps the connection open
	_ = conn.Close()

	return sock, nil
}

// NewSocketFromFd wraps an existing stream socket descriptor and switches it to non-blocking mode.
// The returned Socket takes ownership of fd.
func NewSocketFromFd(fd int, remote string) (Socket, error) {
	if fd < 0 {
		return nil, fmt.Errorf("invalid file descriptor %d", fd)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, os.NewSyscallError("setnonblock", err)
	}
	unix.CloseOnExec(fd)

	return &fdSocket{fd: fd, remote: remote}, nil
}

func (s *fdSocket) Fd() int { return s.fd }

func (s *fdSocket) RemoteAddr() string { return s.remote }

func (s *fdSocket) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case err == nil && n == 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, stellarium.ErrWouldBlock
		default:
			return 0, os.NewSyscallError("read", err)
		}
	}
}

func (s *fdSocket) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n, err := unix.Write(s.fd, p)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, stellarium.ErrWouldBlock
		default:
			return 0, os.NewSyscallError("write", err)
		}
	}
}

func (s *fdSocket) Close() error {
	s.closeOnce.Do(func() {
		if err := unix.Close(s.fd); err != nil {
			s.closeErr = os.NewSyscallError("close", err)
		}
	})

	return s.closeErr
}
