package stellarium

import (
	"fmt"
)

// Kind selects the framing variant of a connection.
type Kind uint8

const (
	// KindBinary is the Stellarium binary telescope protocol.
	KindBinary Kind = iota
	// KindASCII is the line-framed text rendition of the protocol.
	KindASCII
)

func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindASCII:
		return "ascii"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// DecodeState is the state of a codec's frame decoder.
type DecodeState uint8

const (
	// AwaitingHeader means no part of the next frame has been examined yet.
	AwaitingHeader DecodeState = iota
	// AwaitingBody means the header of the next frame is known but its body is incomplete.
	AwaitingBody
	// MessageReady means a frame was just decoded; the next Decode call starts a new frame.
	MessageReady
)

func (s DecodeState) String() string {
	switch s {
	case AwaitingHeader:
		return "AwaitingHeader"
	case AwaitingBody:
		return "AwaitingBody"
	case MessageReady:
		return "MessageReady"
	default:
		return fmt.Sprintf("DecodeState(%d)", uint8(s))
	}
}

// Codec decodes inbound frames and encodes outbound messages for one connection.
//
// A Codec keeps per-connection decoder state and is not goroutine-safe.
type Codec interface {
	// Kind returns the framing variant of the codec.
	Kind() Kind

	// State returns the current decoder state.
	State() DecodeState

	// Decode attempts to extract one complete frame from the front of buf.
	//
	// It returns the decoded message and the number of bytes the frame occupies.
	// When buf holds only part of a frame it returns (nil, 0, nil) and the caller should wait for
	// more bytes without discarding anything. A non-zero n with a nil message means the bytes
	// carried no message (e.g. an empty text line) and should be consumed.
	//
	// Malformed or oversized frames return ErrBufferOverflow, unknown type tags return
	// ErrUnknownMessageType.
	Decode(buf []byte) (msg Message, n int, err error)

	// Encode composes msg into dst.
	// It returns ErrBufferOverflow and leaves dst untouched when dst lacks room.
	Encode(dst *Buffer, msg Message) error

	// Reset returns the decoder to the AwaitingHeader state.
	Reset()
}

// NewCodec creates the server side codec of the given kind: it decodes goto commands and encodes
// current position reports. capacity is the read buffer capacity; frames declaring a larger size
// are rejected.
func NewCodec(kind Kind, capacity int) (Codec, error) {
	return newCodec(kind, capacity, false)
}

// NewClientCodec creates the client side codec of the given kind: it decodes current position
// reports and encodes goto commands.
func NewClientCodec(kind Kind, capacity int) (Codec, error) {
	return newCodec(kind, capacity, true)
}

func newCodec(kind Kind, capacity int, client bool) (Codec, error) {
	if capacity < HeaderSize {
		return nil, fmt.Errorf("%w: capacity %d below header size", ErrBufferOverflow, capacity)
	}

	switch kind {
	case KindBinary:
		return &binaryCodec{capacity: capacity, client: client}, nil
	case KindASCII:
		return &asciiCodec{capacity: capacity, client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported codec kind: %s", kind)
	}
}
