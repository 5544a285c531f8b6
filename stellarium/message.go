package stellarium

import (
	"fmt"
	"math"
)

const (
	// GotoMsgType is the type tag of the goto command sent by the client.
	GotoMsgType uint16 = 0
	// CurrentPositionMsgType is the type tag of the current position report sent by the server.
	CurrentPositionMsgType uint16 = 0
)

const (
	// DefaultBufferSize is the default capacity of the per-connection read and write buffers.
	DefaultBufferSize = 120
	// HeaderSize is the size of the frame header: 2-byte length and 2-byte type.
	HeaderSize = 4
	// GotoMsgSize is the total frame size of a binary goto message.
	GotoMsgSize = HeaderSize + 8 + 4 + 4
	// CurrentPositionMsgSize is the total frame size of a binary current position message.
	CurrentPositionMsgSize = HeaderSize + 8 + 4 + 4 + 4

	// MaxASCIIGotoLineSize is the longest decimal goto line, time field and "\r\n" included.
	MaxASCIIGotoLineSize = len("goto 4294967295 -2147483648 -9223372036854775808\r\n")
	// MaxASCIIPositionLineSize is the longest pos line produced by the text encoder.
	MaxASCIIPositionLineSize = len("pos -9223372036854775808 4294967295 -2147483648 -2147483648\n")
)

// MinBufferSize returns the smallest buffer capacity that holds the largest message of kind in
// both directions.
func MinBufferSize(kind Kind) int {
	if kind == KindASCII {
		return max(MaxASCIIGotoLineSize, MaxASCIIPositionLineSize)
	}

	return max(GotoMsgSize, CurrentPositionMsgSize)
}

// Message is a decoded protocol message.
type Message interface {
	// Type returns the type tag of the message.
	Type() uint16
	// String returns a human readable representation of the message.
	String() string
}

// Timestamped is implemented by messages that may carry the client's clock.
type Timestamped interface {
	// ClientTime returns the client clock in microseconds since the Unix epoch, and whether
	// the message actually carried it.
	ClientTime() (int64, bool)
}

// GotoMessage asks the telescope to slew to the given equatorial coordinates.
type GotoMessage struct {
	// Time is the client clock in microseconds since the Unix epoch.
	Time int64
	// HasTime reports whether Time was present on the wire.
	HasTime bool
	// RA is the right ascension, 0x100000000 == 24h.
	RA uint32
	// Dec is the declination, 0x40000000 == 90 degrees.
	Dec int32
}

var (
	_ Message     = (*GotoMessage)(nil)
	_ Timestamped = (*GotoMessage)(nil)
)

func (m *GotoMessage) Type() uint16 { return GotoMsgType }

func (m *GotoMessage) ClientTime() (int64, bool) { return m.Time, m.HasTime }

func (m *GotoMessage) String() string {
	return fmt.Sprintf("goto ra=%.6fh dec=%.6fdeg", RAToHours(m.RA), DecToDegrees(m.Dec))
}

// CurrentPositionMessage reports the current position and status of the telescope mount.
type CurrentPositionMessage struct {
	// Time is the timestamp in microseconds since the Unix epoch, expressed in the client's clock.
	Time int64
	// RA is the right ascension, 0x100000000 == 24h.
	RA uint32
	// Dec is the declination, 0x40000000 == 90 degrees.
	Dec int32
	// Status is 0 for OK, a negative value indicates an error.
	Status int32
}

var _ Message = (*CurrentPositionMessage)(nil)

func (m *CurrentPositionMessage) Type() uint16 { return CurrentPositionMsgType }

func (m *CurrentPositionMessage) String() string {
	return fmt.Sprintf("position ra=%.6fh dec=%.6fdeg status=%d", RAToHours(m.RA), DecToDegrees(m.Dec), m.Status)
}

// RAToHours converts a wire right ascension into hours.
func RAToHours(ra uint32) float64 {
	return float64(ra) * 24.0 / 4294967296.0
}

// HoursToRA converts hours into a wire right ascension, wrapping around 24h.
func HoursToRA(hours float64) uint32 {
	h := math.Mod(hours, 24.0)
	if h < 0 {
		h += 24.0
	}

	return uint32(uint64(math.Floor(h*4294967296.0/24.0+0.5)) & 0xFFFFFFFF) //nolint:gosec
}

// DecToDegrees converts a wire declination into degrees.
func DecToDegrees(dec int32) float64 {
	return float64(dec) * 90.0 / 1073741824.0
}

// DegreesToDec converts degrees into a wire declination, clamped to [-90, 90].
func DegreesToDec(deg float64) int32 {
	deg = math.Max(-90.0, math.Min(90.0, deg))

	return int32(math.Floor(deg*1073741824.0/90.0 + 0.5))
}
