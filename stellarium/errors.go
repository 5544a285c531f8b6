package stellarium

import "errors"

var (
	// ErrIO indicates a transport-level failure while reading from or writing to a socket.
	ErrIO = errors.New("i/o error")

	// ErrConnClosed indicates that the peer performed an orderly shutdown.
	ErrConnClosed = errors.New("connection closed by peer")

	// ErrBufferOverflow indicates a malformed or oversized frame, or an outbound message
	// that does not fit into the remaining write buffer capacity.
	ErrBufferOverflow = errors.New("buffer overflow")

	// ErrUnknownMessageType indicates a frame with a type tag the protocol doesn't define.
	ErrUnknownMessageType = errors.New("unknown message type")
)

// ErrWouldBlock is returned by a non-blocking Reader or Writer when the operation
// can't make progress right now. It's not a failure; Buffer treats it as zero progress.
var ErrWouldBlock = errors.New("operation would block")
