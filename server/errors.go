package server

import "errors"

var (
	// ErrConnConfigNil indicates that a nil ConnectionConfig was provided.
	ErrConnConfigNil = errors.New("connection config is nil")

	// ErrHandlerNil indicates that a nil Handler was provided.
	ErrHandlerNil = errors.New("handler is nil")

	// ErrConnNil indicates that a nil Connection was provided.
	ErrConnNil = errors.New("connection is nil")

	// ErrSocketNil indicates that a nil Socket was provided.
	ErrSocketNil = errors.New("socket is nil")

	// ErrClosedByServer is the close reason of a connection closed locally by the server.
	ErrClosedByServer = errors.New("connection closed by server")

	// ErrLoopClosed indicates that the polling loop has been closed.
	ErrLoopClosed = errors.New("polling loop closed")

	// ErrDuplicateConn indicates that a connection is already registered.
	ErrDuplicateConn = errors.New("connection already registered")
)
