package stellarium

import (
	"encoding/binary"
	"errors"
	"testing"
)

// FuzzBinaryCodec_Decode feeds arbitrary bytes through a fixed-capacity buffer and the binary decoder.
//
// It verifies that decoding never panics, never consumes more bytes than are buffered, and that every
// failure is classified with one of the protocol sentinel errors.
func FuzzBinaryCodec_Decode(f *testing.F) {
	f.Add(gotoFrame(1, 0x12345678, -1000))
	f.Add(append(gotoFrame(1, 2, 3), gotoFrame(4, 5, 6)...))
	f.Add([]byte{})
	f.Add([]byte{0x14})
	f.Add([]byte{0xFF, 0xFF, 0x00, 0x00})

	unknown := gotoFrame(0, 0, 0)
	binary.LittleEndian.PutUint16(unknown[2:4], 99)
	f.Add(unknown)

	f.Fuzz(func(t *testing.T, data []byte) {
		codec, err := NewCodec(KindBinary, DefaultBufferSize)
		if err != nil {
			t.Fatal(err)
		}
		buf := NewBuffer(DefaultBufferSize)

		rest := data
		for len(rest) > 0 {
			n := min(len(rest), buf.Free())
			if n == 0 {
				t.Fatal("decoder stalled on a full buffer")
			}
			if err := buf.Append(rest[:n]); err != nil {
				t.Fatal(err)
			}
			rest = rest[n:]

			for {
				msg, consumed, err := codec.Decode(buf.Bytes())
				if err != nil {
					if !errors.Is(err, ErrBufferOverflow) && !errors.Is(err, ErrUnknownMessageType) {
						t.Fatalf("unclassified decode error: %v", err)
					}
					return
				}
				if consumed > buf.Len() {
					t.Fatalf("consumed %d of %d buffered bytes", consumed, buf.Len())
				}
				if consumed == 0 {
					break
				}
				if msg == nil {
					t.Fatal("binary frame decoded without a message")
				}
				buf.Consume(consumed)
			}
		}
	})
}
