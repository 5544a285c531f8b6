package server

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is the poll set of a Loop: the connections whose sockets the loop polls.
//
// Membership is changed by the loop goroutine only. Lookups and iteration are safe from any goroutine.
type Registry struct {
	conns *xsync.MapOf[uuid.UUID, *Connection]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: xsync.NewMapOf[uuid.UUID, *Connection]()}
}

// Add registers conn. It returns ErrDuplicateConn if the connection is already registered.
func (r *Registry) Add(conn *Connection) error {
	if conn == nil {
		return ErrConnNil
	}

	if _, loaded := r.conns.LoadOrStore(conn.ID(), conn); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateConn, conn.ID())
	}

	return nil
}

// Remove unregisters the connection with the given id and returns it.
func (r *Registry) Remove(id uuid.UUID) (*Connection, bool) {
	return r.conns.LoadAndDelete(id)
}

// Get returns the connection with the given id.
func (r *Registry) Get(id uuid.UUID) (*Connection, bool) {
	return r.conns.Load(id)
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return r.conns.Size()
}

// Range calls f for each registered connection until f returns false.
func (r *Registry) Range(f func(conn *Connection) bool) {
	r.conns.Range(func(_ uuid.UUID, conn *Connection) bool {
		return f(conn)
	})
}
