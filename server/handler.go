package server

// Handler is the Server collaborator notified by a Connection.
//
// All callbacks run on the polling loop goroutine and must not block. A callback may call
// SendPosition or Close on the connection it receives.
type Handler interface {
	// OnNewConnection is called once when the connection has been created.
	OnNewConnection(conn *Connection)
	// OnGotoReceived is called for every decoded goto command, in arrival order.
	OnGotoReceived(conn *Connection, ra uint32, dec int32)
	// OnConnectionClosed is called exactly once when the connection terminates.
	// reason is ErrClosedByServer for a local close, otherwise it wraps one of the stellarium
	// sentinel errors.
	OnConnectionClosed(conn *Connection, reason error)
}

// HandlerFuncs adapts optional functions to the Handler interface. Nil fields are no-ops.
type HandlerFuncs struct {
	NewConnection    func(conn *Connection)
	GotoReceived     func(conn *Connection, ra uint32, dec int32)
	ConnectionClosed func(conn *Connection, reason error)
}

var _ Handler = HandlerFuncs{}

func (h HandlerFuncs) OnNewConnection(conn *Connection) {
	if h.NewConnection != nil {
		h.NewConnection(conn)
	}
}

func (h HandlerFuncs) OnGotoReceived(conn *Connection, ra uint32, dec int32) {
	if h.GotoReceived != nil {
		h.GotoReceived(conn, ra, dec)
	}
}

func (h HandlerFuncs) OnConnectionClosed(conn *Connection, reason error) {
	if h.ConnectionClosed != nil {
		h.ConnectionClosed(conn, reason)
	}
}
