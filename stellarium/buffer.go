package stellarium

import (
	"errors"
	"fmt"
	"io"
)

// Reader is the non-blocking read half of a socket.
//
// Read returns ErrWouldBlock when no data is available and (0, io.EOF) when the peer has
// performed an orderly shutdown.
type Reader interface {
	Read(p []byte) (int, error)
}

// Writer is the non-blocking write half of a socket.
//
// Write may write fewer bytes than len(p) without returning an error. It returns ErrWouldBlock
// when the socket can't accept any data right now.
type Writer interface {
	Write(p []byte) (int, error)
}

// Buffer is a fixed-capacity byte buffer. The valid data always starts at offset 0 and ends at
// the end cursor; 0 <= end <= capacity holds at all times.
//
// Buffer is not goroutine-safe.
type Buffer struct {
	data []byte
	end  int
}

// NewBuffer creates a Buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}

	return &Buffer{data: make([]byte, capacity)}
}

// Cap returns the fixed capacity of the buffer.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the number of valid bytes in the buffer.
func (b *Buffer) Len() int { return b.end }

// Free returns the number of bytes that can still be appended.
func (b *Buffer) Free() int { return len(b.data) - b.end }

// Bytes returns the valid region of the buffer.
//
// The returned slice aliases the buffer and is only valid until the next mutating call.
func (b *Buffer) Bytes() []byte { return b.data[:b.end] }

// Reset discards all buffered bytes.
func (b *Buffer) Reset() { b.end = 0 }

// Append copies p to the end of the buffer.
// It returns ErrBufferOverflow and leaves the buffer untouched if p doesn't fit.
func (b *Buffer) Append(p []byte) error {
	dst, err := b.Reserve(len(p))
	if err != nil {
		return err
	}
	copy(dst, p)

	return nil
}

// Reserve extends the valid region by n bytes and returns the newly reserved slice for the caller
// to fill in place.
// It returns ErrBufferOverflow and leaves the buffer untouched if n bytes don't fit.
func (b *Buffer) Reserve(n int) ([]byte, error) {
	if n < 0 || n > b.Free() {
		return nil, fmt.Errorf("%w: need %d bytes, %d free of %d", ErrBufferOverflow, n, b.Free(), b.Cap())
	}
	dst := b.data[b.end : b.end+n]
	b.end += n

	return dst, nil
}

// Consume removes n bytes from the front of the buffer and shifts the remaining bytes left.
// n is clamped to the number of valid bytes.
func (b *Buffer) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= b.end {
		b.end = 0
		return
	}
	copy(b.data, b.data[n:b.end])
	b.end -= n
}

// Fill performs a single read from r into the free tail of the buffer.
//
// It returns the number of bytes read. A would-block condition returns (0, nil).
// An orderly shutdown by the peer returns ErrConnClosed, any other read failure is wrapped with ErrIO.
// Calling Fill on a full buffer returns ErrBufferOverflow.
func (b *Buffer) Fill(r Reader) (int, error) {
	if b.Free() == 0 {
		return 0, fmt.Errorf("%w: read buffer full (%d bytes)", ErrBufferOverflow, b.Cap())
	}

	n, err := r.Read(b.data[b.end:])
	if n < 0 || n > b.Free() {
		return 0, fmt.Errorf("%w: invalid read count %d", ErrIO, n)
	}
	b.end += n

	switch {
	case err == nil:
		if n == 0 {
			return 0, ErrConnClosed
		}
		return n, nil
	case errors.Is(err, ErrWouldBlock):
		return n, nil
	case errors.Is(err, io.EOF):
		if n > 0 {
			// deliver the tail first, the next read reports the shutdown
			return n, nil
		}
		return 0, ErrConnClosed
	default:
		return n, fmt.Errorf("%w: read: %w", ErrIO, err)
	}
}

// Flush performs a single write of the buffered bytes to w.
//
// Written bytes are removed from the front of the buffer; after a short write the unwritten
// suffix stays at the front in its original order, so the next Flush resumes exactly where this
// one stopped. A would-block condition returns (0, nil), any other failure is wrapped with ErrIO.
func (b *Buffer) Flush(w Writer) (int, error) {
	if b.end == 0 {
		return 0, nil
	}

	n, err := w.Write(b.data[:b.end])
	if n < 0 || n > b.end {
		return 0, fmt.Errorf("%w: invalid write count %d", ErrIO, n)
	}
	b.Consume(n)

	if err != nil && !errors.Is(err, ErrWouldBlock) {
		return n, fmt.Errorf("%w: write: %w", ErrIO, err)
	}

	return n, nil
}
