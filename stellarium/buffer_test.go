package stellarium

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedIO replays a fixed sequence of read chunks and write limits.
type scriptedIO struct {
	reads     [][]byte
	readErrs  []error
	writeCaps []int
	writeErrs []error
	written   []byte
}

func (s *scriptedIO) Read(p []byte) (int, error) {
	if len(s.reads) == 0 {
		if len(s.readErrs) > 0 {
			err := s.readErrs[0]
			s.readErrs = s.readErrs[1:]
			return 0, err
		}
		return 0, ErrWouldBlock
	}
	n := copy(p, s.reads[0])
	if n < len(s.reads[0]) {
		s.reads[0] = s.reads[0][n:]
	} else {
		s.reads = s.reads[1:]
	}

	return n, nil
}

func (s *scriptedIO) Write(p []byte) (int, error) {
	if len(s.writeErrs) > 0 {
		err := s.writeErrs[0]
		s.writeErrs = s.writeErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	n := len(p)
	if len(s.writeCaps) > 0 {
		n = min(n, s.writeCaps[0])
		s.writeCaps = s.writeCaps[1:]
	}
	s.written = append(s.written, p[:n]...)

	return n, nil
}

func TestBuffer_AppendReserveConsume(t *testing.T) {
	require := require.New(t)

	buf := NewBuffer(8)
	require.Equal(8, buf.Cap())
	require.Equal(0, buf.Len())
	require.Equal(8, buf.Free())

	require.NoError(buf.Append([]byte{1, 2, 3}))
	dst, err := buf.Reserve(2)
	require.NoError(err)
	copy(dst, []byte{4, 5})
	require.Equal([]byte{1, 2, 3, 4, 5}, buf.Bytes())

	err = buf.Append([]byte{6, 7, 8, 9})
	require.ErrorIs(err, ErrBufferOverflow)
	require.Equal([]byte{1, 2, 3, 4, 5}, buf.Bytes(), "failed append must not modify the buffer")

	_, err = buf.Reserve(-1)
	require.ErrorIs(err, ErrBufferOverflow)

	buf.Consume(2)
	require.Equal([]byte{3, 4, 5}, buf.Bytes())

	buf.Consume(0)
	require.Equal(3, buf.Len())

	buf.Consume(10)
	require.Equal(0, buf.Len())

	require.NoError(buf.Append([]byte{1, 2}))
	buf.Reset()
	require.Empty(buf.Bytes())
}

func TestBuffer_Fill(t *testing.T) {
	t.Run("partial reads accumulate", func(t *testing.T) {
		require := require.New(t)
		src := &scriptedIO{reads: [][]byte{{1, 2}, {3}}}
		buf := NewBuffer(4)

		n, err := buf.Fill(src)
		require.NoError(err)
		require.Equal(2, n)

		n, err = buf.Fill(src)
		require.NoError(err)
		require.Equal(1, n)
		require.Equal([]byte{1, 2, 3}, buf.Bytes())

		n, err = buf.Fill(src)
		require.NoError(err, "would block is not an error")
		require.Equal(0, n)
	})

	t.Run("read never overruns capacity", func(t *testing.T) {
		require := require.New(t)
		src := &scriptedIO{reads: [][]byte{{1, 2, 3, 4, 5, 6}}}
		buf := NewBuffer(4)

		n, err := buf.Fill(src)
		require.NoError(err)
		require.Equal(4, n)
		require.Equal(0, buf.Free())

		_, err = buf.Fill(src)
		require.ErrorIs(err, ErrBufferOverflow)
		require.Equal(4, buf.Len())
	})

	t.Run("orderly shutdown", func(t *testing.T) {
		require := require.New(t)
		buf := NewBuffer(4)

		_, err := buf.Fill(&scriptedIO{readErrs: []error{io.EOF}})
		require.ErrorIs(err, ErrConnClosed)

		_, err = buf.Fill(&scriptedIO{readErrs: []error{nil}})
		require.ErrorIs(err, ErrConnClosed, "zero-length read without error is a shutdown")
	})

	t.Run("transport failure", func(t *testing.T) {
		require := require.New(t)
		buf := NewBuffer(4)
		cause := errors.New("connection reset by peer")

		_, err := buf.Fill(&scriptedIO{readErrs: []error{cause}})
		require.ErrorIs(err, ErrIO)
		require.ErrorIs(err, cause)
		require.NotErrorIs(err, ErrConnClosed)
	})
}

func TestBuffer_FlushShortWrite(t *testing.T) {
	require := require.New(t)

	payload := []byte("0123456789")
	buf := NewBuffer(16)
	require.NoError(buf.Append(payload))

	dst := &scriptedIO{writeCaps: []int{3, 0, 4, 100}}

	n, err := buf.Flush(dst)
	require.NoError(err)
	require.Equal(3, n)
	require.Equal([]byte("3456789"), buf.Bytes(), "unwritten suffix stays at the front")

	n, err = buf.Flush(dst)
	require.NoError(err)
	require.Equal(0, n)
	require.Equal(7, buf.Len())

	n, err = buf.Flush(dst)
	require.NoError(err)
	require.Equal(4, n)

	n, err = buf.Flush(dst)
	require.NoError(err)
	require.Equal(3, n)
	require.Equal(0, buf.Len())

	require.Equal(payload, dst.written, "no bytes duplicated or dropped")

	n, err = buf.Flush(dst)
	require.NoError(err)
	require.Equal(0, n)
}

func TestBuffer_FlushErrors(t *testing.T) {
	require := require.New(t)

	buf := NewBuffer(8)
	require.NoError(buf.Append([]byte{1, 2, 3}))

	n, err := buf.Flush(&scriptedIO{writeErrs: []error{ErrWouldBlock}})
	require.NoError(err)
	require.Equal(0, n)
	require.Equal(3, buf.Len())

	_, err = buf.Flush(&scriptedIO{writeErrs: []error{errors.New("broken pipe")}})
	require.ErrorIs(err, ErrIO)
	require.Equal(3, buf.Len())
}
