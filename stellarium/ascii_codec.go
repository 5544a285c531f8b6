package stellarium

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	asciiGotoVerb     = "goto"
	asciiPositionVerb = "pos"
)

// asciiCodec implements the line-framed text rendition of the protocol.
//
//	goto <ra> <dec> [client_time_us]\n
//	pos <time_us> <ra> <dec> <status>\n
//
// Numbers accept the prefixes understood by strconv with base 0 (e.g. 0x12345678).
// A trailing '\r' is ignored so telnet clients work unchanged.
type asciiCodec struct {
	capacity int
	client   bool

	state DecodeState
}

var _ Codec = (*asciiCodec)(nil)

func (c *asciiCodec) Kind() Kind { return KindASCII }

func (c *asciiCodec) State() DecodeState { return c.state }

func (c *asciiCodec) Reset() { c.state = AwaitingHeader }

func (c *asciiCodec) Decode(buf []byte) (Message, int, error) {
	if c.state == MessageReady {
		c.state = AwaitingHeader
	}

	if len(buf) == 0 {
		return nil, 0, nil
	}

	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		if len(buf) >= c.capacity {
			return nil, 0, fmt.Errorf("%w: line exceeds %d bytes", ErrBufferOverflow, c.capacity)
		}
		c.state = AwaitingBody

		return nil, 0, nil
	}

	n := idx + 1
	line := strings.TrimSpace(string(buf[:idx]))
	c.state = MessageReady
	if line == "" {
		return nil, n, nil
	}

	fields := strings.Fields(line)
	verb := strings.ToLower(fields[0])

	var (
		msg Message
		err error
	)
	switch {
	case !c.client && verb == asciiGotoVerb:
		msg, err = parseASCIIGoto(fields[1:])
	case c.client && verb == asciiPositionVerb:
		msg, err = parseASCIIPosition(fields[1:])
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownMessageType, fields[0])
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q: %w", ErrBufferOverflow, line, err)
	}

	return msg, n, nil
}

func parseASCIIGoto(args []string) (*GotoMessage, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, fmt.Errorf("goto expects 2 or 3 arguments, got %d", len(args))
	}

	ra, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return nil, fmt.Errorf("ra: %w", err)
	}
	dec, err := strconv.ParseInt(args[1], 0, 32)
	if err != nil {
		return nil, fmt.Errorf("dec: %w", err)
	}

	msg := &GotoMessage{RA: uint32(ra), Dec: int32(dec)}
	if len(args) == 3 {
		ts, err := strconv.ParseInt(args[2], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("time: %w", err)
		}
		msg.Time = ts
		msg.HasTime = true
	}

	return msg, nil
}

func parseASCIIPosition(args []string) (*CurrentPositionMessage, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("pos expects 4 arguments, got %d", len(args))
	}

	ts, err := strconv.ParseInt(args[0], 0, 64)
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}
	ra, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return nil, fmt.Errorf("ra: %w", err)
	}
	dec, err := strconv.ParseInt(args[2], 0, 32)
	if err != nil {
		return nil, fmt.Errorf("dec: %w", err)
	}
	status, err := strconv.ParseInt(args[3], 0, 32)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	return &CurrentPositionMessage{Time: ts, RA: uint32(ra), Dec: int32(dec), Status: int32(status)}, nil
}

func (c *asciiCodec) Encode(dst *Buffer, msg Message) error {
	var scratch [80]byte
	line := scratch[:0]

	switch m := msg.(type) {
	case *CurrentPositionMessage:
		if c.client {
			return fmt.Errorf("client codec can't encode %T", msg)
		}
		line = append(line, asciiPositionVerb...)
		line = append(line, ' ')
		line = strconv.AppendInt(line, m.Time, 10)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(m.RA), 10)
		line = append(line, ' ')
		line = strconv.AppendInt(line, int64(m.Dec), 10)
		line = append(line, ' ')
		line = strconv.AppendInt(line, int64(m.Status), 10)

	case *GotoMessage:
		if !c.client {
			return fmt.Errorf("server codec can't encode %T", msg)
		}
		line = append(line, asciiGotoVerb...)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(m.RA), 10)
		line = append(line, ' ')
		line = strconv.AppendInt(line, int64(m.Dec), 10)
		if m.HasTime {
			line = append(line, ' ')
			line = strconv.AppendInt(line, m.Time, 10)
		}

	default:
		return fmt.Errorf("unsupported message %T", msg)
	}
	line = append(line, '\n')

	return dst.Append(line)
}
