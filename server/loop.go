package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/arloliu/go-stellarium/internal/queue"
	"github.com/arloliu/go-stellarium/logger"
)

const readableEvents = unix.POLLIN | unix.POLLHUP | unix.POLLERR | unix.POLLNVAL

// Loop is a single-threaded readiness-polling loop that drives a set of connections.
//
// The loop owns its Registry. Every cycle it asks each registered connection for its Interest,
// polls the sockets with poll(2), and lets ready connections perform one read and one write.
// Terminated connections are removed from the registry in the same cycle.
//
// Add, PollOnce, Run and Close must be called from the loop goroutine. Other goroutines hand work
// to the loop with Post.
type Loop struct {
	registry *Registry
	logger   logger.Logger

	tasks  queue.Queue[func()]
	wakeR  int
	wakeW  int
	woken  atomic.Bool
	closed atomic.Bool
	mu     sync.RWMutex // guards the wake pipe against Close

	pollFds []unix.PollFd
	polled  []*Connection
}

// NewLoop creates a polling loop with an empty registry.
func NewLoop(l logger.Logger) (*Loop, error) {
	if l == nil {
		l = logger.GetLogger()
	}

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, os.NewSyscallError("pipe2", err)
	}

	return &Loop{
		registry: NewRegistry(),
		logger:   l,
		tasks:    queue.NewLockFreeQueue[func()](),
		wakeR:    p[0],
		wakeW:    p[1],
	}, nil
}

// Registry returns the poll set owned by the loop.
func (l *Loop) Registry() *Registry { return l.registry }

// Add registers conn with the loop. The connection is polled from the next cycle on.
func (l *Loop) Add(conn *Connection) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}

	if err := l.registry.Add(conn); err != nil {
		return err
	}
	l.logger.Debug("connection registered", "id", conn.ID().String(), "active", l.registry.Len())

	return nil
}

// Post schedules fn to run on the loop goroutine and wakes the loop. It's safe to call from any
// goroutine. Tasks run in the order they were posted.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed.Load() {
		return ErrLoopClosed
	}

	l.tasks.Enqueue(fn)
	l.wake()

	return nil
}

// wake makes a blocked poll return. Must be called with mu held.
func (l *Loop) wake() {
	if !l.woken.CompareAndSwap(false, true) {
		return
	}

	_, err := unix.Write(l.wakeW, []byte{1})
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		l.logger.Error("failed to wake polling loop", "error", err)
	}
}

// drainWakeup empties the wake pipe and re-arms wake.
func (l *Loop) drainWakeup() {
	var scratch [64]byte
	for {
		n, err := unix.Read(l.wakeR, scratch[:])
		if n <= 0 || err != nil {
			break
		}
	}
	l.woken.Store(false)
}

func (l *Loop) runTasks() {
	for fn, ok := l.tasks.Dequeue(); ok; fn, ok = l.tasks.Dequeue() {
		fn()
	}
}

// sweep removes terminated connections from the registry.
func (l *Loop) sweep() {
	var closed []*Connection
	l.registry.Range(func(conn *Connection) bool {
		if conn.IsClosed() {
			closed = append(closed, conn)
		}
		return true
	})

	for _, conn := range closed {
		l.registry.Remove(conn.ID())
		l.logger.Debug("connection unregistered", "id", conn.ID().String(), "reason", conn.Err(), "active", l.registry.Len())
	}
}

// PollOnce runs a single poll cycle: pending tasks are run, readiness requests are collected,
// poll(2) waits up to timeout (negative means forever), and ready connections are serviced.
//
// It returns the number of ready descriptors. An interrupted poll returns (0, nil).
func (l *Loop) PollOnce(timeout time.Duration) (int, error) {
	if l.closed.Load() {
		return 0, ErrLoopClosed
	}

	l.runTasks()
	if l.closed.Load() { // closed by a task
		return 0, ErrLoopClosed
	}
	l.sweep()

	l.pollFds = l.pollFds[:0]
	l.polled = l.polled[:0]
	l.pollFds = append(l.pollFds, unix.PollFd{Fd: int32(l.wakeR), Events: unix.POLLIN}) //nolint:gosec

	l.registry.Range(func(conn *Connection) bool {
		interest := conn.Interest()
		var events int16
		if interest.Read {
			events |= unix.POLLIN
		}
		if interest.Write {
			events |= unix.POLLOUT
		}
		if events == 0 {
			return true
		}
		l.pollFds = append(l.pollFds, unix.PollFd{Fd: int32(interest.Fd), Events: events}) //nolint:gosec
		l.polled = append(l.polled, conn)

		return true
	})

	n, err := unix.Poll(l.pollFds, pollTimeout(timeout))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("poll: %w", err)
	}

	if l.pollFds[0].Revents != 0 {
		l.drainWakeup()
	}

	for i, conn := range l.polled {
		revents := l.pollFds[i+1].Revents
		readable := revents&readableEvents != 0
		writable := revents&unix.POLLOUT != 0
		if !readable && !writable {
			continue
		}
		// errors terminate the connection and are reported through the handler
		_ = conn.HandleReadiness(readable, writable)
	}

	l.runTasks()
	l.sweep()

	return n, nil
}

func pollTimeout(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}

	ms := timeout.Milliseconds()
	if ms == 0 && timeout > 0 {
		ms = 1
	}
	if ms > math.MaxInt32 {
		ms = math.MaxInt32
	}

	return int(ms)
}

// Run polls until ctx is cancelled or polling fails. It doesn't close the loop.
func (l *Loop) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		l.mu.RLock()
		defer l.mu.RUnlock()

		if !l.closed.Load() {
			l.wake()
		}
	})
	defer stop()

	for ctx.Err() == nil {
		if _, err := l.PollOnce(-1); err != nil {
			return err
		}
	}

	return nil
}

// Close closes every registered connection, notifying their handlers, and releases the loop.
// Pending tasks are dropped. Calling Close more than once is a no-op.
//
// Close must be called from the loop goroutine, either after Run or PollOnce returned or from a
// task or handler callback. It closes the wake pipe, so it must never run while another goroutine
// is blocked in PollOnce. To stop the loop from another goroutine, cancel the context given to
// Run or Post a task that calls Close.
func (l *Loop) Close() error {
	l.mu.Lock()
	if !l.closed.CompareAndSwap(false, true) {
		l.mu.Unlock()
		return nil
	}
	err := errors.Join(
		os.NewSyscallError("close", unix.Close(l.wakeR)),
		os.NewSyscallError("close", unix.Close(l.wakeW)),
	)
	l.mu.Unlock()

	var conns []*Connection
	l.registry.Range(func(conn *Connection) bool {
		conns = append(conns, conn)
		return true
	})
	for _, conn := range conns {
		_ = conn.Close()
		l.registry.Remove(conn.ID())
	}

	return err
}
