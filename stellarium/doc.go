// Package stellarium implements the framing layer of the Stellarium telescope control protocol.
//
// The protocol is a length-delimited binary stream. Each frame starts with a 2-byte little-endian
// length, which counts the whole frame, followed by a 2-byte little-endian type tag. The type tag is
// 16 bits wide on the wire, not a single byte, and every frame carries the sender's clock:
//
//	goto (client -> server, type 0):             [20][0][client time:i64][ra:u32][dec:i32]
//	current position (server -> client, type 0): [24][0][time:i64][ra:u32][dec:i32][status:i32]
//
// Times are microseconds since the Unix epoch. RA maps the full circle onto the uint32 range
// (0x100000000 == 24h), Dec maps -90..+90 degrees onto -0x40000000..0x40000000.
//
// Buffer:
// Buffer is a fixed-capacity byte buffer with a single end cursor. It's filled from and flushed to
// non-blocking readers/writers, and it never grows. Consumed bytes are removed from the front and the
// remaining bytes are shifted left.
//
// Codec:
// A Codec turns buffered bytes into Message values and composes outbound messages into a Buffer.
// Two kinds exist, selected once by NewCodec:
//   - KindBinary: the Stellarium binary protocol described above.
//   - KindASCII:  a line-framed text rendition of the same messages for terminal clients.
//
// Errors:
// All failures are reported with the sentinel errors ErrIO, ErrConnClosed, ErrBufferOverflow and
// ErrUnknownMessageType, wrapped with details; use errors.Is to classify them.
package stellarium
