package stellarium

import (
	"encoding/binary"
	"fmt"
)

// binaryCodec implements the Stellarium binary protocol.
type binaryCodec struct {
	capacity int
	client   bool

	state     DecodeState
	frameLen  int
	frameType uint16
}

var _ Codec = (*binaryCodec)(nil)

func (c *binaryCodec) Kind() Kind { return KindBinary }

func (c *binaryCodec) State() DecodeState { return c.state }

func (c *binaryCodec) Reset() {
	c.state = AwaitingHeader
	c.frameLen = 0
	c.frameType = 0
}

// expectedSize returns the fixed frame size of an inbound message type.
func (c *binaryCodec) expectedSize(msgType uint16) (int, bool) {
	switch {
	case !c.client && msgType == GotoMsgType:
		return GotoMsgSize, true
	case c.client && msgType == CurrentPositionMsgType:
		return CurrentPositionMsgSize, true
	default:
		return 0, false
	}
}

func (c *binaryCodec) Decode(buf []byte) (Message, int, error) {
	if c.state == MessageReady {
		c.state = AwaitingHeader
	}

	if c.state == AwaitingHeader {
		if len(buf) < HeaderSize {
			return nil, 0, nil
		}

		size := int(binary.LittleEndian.Uint16(buf[0:2]))
		if size < HeaderSize || size > c.capacity {
			return nil, 0, fmt.Errorf("%w: frame length %d outside [%d, %d]", ErrBufferOverflow, size, HeaderSize, c.capacity)
		}

		msgType := binary.LittleEndian.Uint16(buf[2:4])
		expected, ok := c.expectedSize(msgType)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %d", ErrUnknownMessageType, msgType)
		}
		if size != expected {
			return nil, 0, fmt.Errorf("%w: type %d frame length %d, expected %d", ErrBufferOverflow, msgType, size, expected)
		}

		c.frameLen = size
		c.frameType = msgType
		c.state = AwaitingBody
	}

	if len(buf) < c.frameLen {
		return nil, 0, nil
	}

	frame := buf[:c.frameLen]
	var msg Message
	if c.client {
		msg = &CurrentPositionMessage{
			Time:   int64(binary.LittleEndian.Uint64(frame[4:12])), //nolint:gosec
			RA:     binary.LittleEndian.Uint32(frame[12:16]),
			Dec:    int32(binary.LittleEndian.Uint32(frame[16:20])), //nolint:gosec
			Status: int32(binary.LittleEndian.Uint32(frame[20:24])), //nolint:gosec
		}
	} else {
		msg = &GotoMessage{
			Time:    int64(binary.LittleEndian.Uint64(frame[4:12])), //nolint:gosec
			HasTime: true,
			RA:      binary.LittleEndian.Uint32(frame[12:16]),
			Dec:     int32(binary.LittleEndian.Uint32(frame[16:20])), //nolint:gosec
		}
	}

	n := c.frameLen
	c.state = MessageReady
	c.frameLen = 0
	c.frameType = 0

	return msg, n, nil
}

func (c *binaryCodec) Encode(dst *Buffer, msg Message) error {
	switch m := msg.(type) {
	case *CurrentPositionMessage:
		if c.client {
			return fmt.Errorf("client codec can't encode %T", msg)
		}
		frame, err := dst.Reserve(CurrentPositionMsgSize)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(frame[0:2], CurrentPositionMsgSize)
		binary.LittleEndian.PutUint16(frame[2:4], CurrentPositionMsgType)
		binary.LittleEndian.PutUint64(frame[4:12], uint64(m.Time)) //nolint:gosec
		binary.LittleEndian.PutUint32(frame[12:16], m.RA)
		binary.LittleEndian.PutUint32(frame[16:20], uint32(m.Dec))    //nolint:gosec
		binary.LittleEndian.PutUint32(frame[20:24], uint32(m.Status)) //nolint:gosec

		return nil

	case *GotoMessage:
		if !c.client {
			return fmt.Errorf("server codec can't encode %T", msg)
		}
		frame, err := dst.Reserve(GotoMsgSize)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(frame[0:2], GotoMsgSize)
		binary.LittleEndian.PutUint16(frame[2:4], GotoMsgType)
		binary.LittleEndian.PutUint64(frame[4:12], uint64(m.Time)) //nolint:gosec
		binary.LittleEndian.PutUint32(frame[12:16], m.RA)
		binary.LittleEndian.PutUint32(frame[16:20], uint32(m.Dec)) //nolint:gosec

		return nil

	default:
		return fmt.Errorf("unsupported message %T", msg)
	}
}
