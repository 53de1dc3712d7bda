package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// FrameMarker is the first byte of every frame.
	FrameMarker = 0x10

	// HeaderSize is the fixed frame header size: marker byte plus a
	// big-endian uint32 payload length.
	HeaderSize = 5

	// MaxPayloadSize bounds the declared payload length. The largest real
	// device response (a full settings dump) is a few KiB; anything near
	// this limit means the stream is corrupt, and honoring it would let a
	// broken peer make us buffer without bound.
	MaxPayloadSize = 1 << 20
)

// ErrProtocolViolation indicates a structurally impossible frame header.
// The byte stream cannot be resynchronized after this; the connection must
// be torn down.
var ErrProtocolViolation = errors.New("protocol violation")

// EncodeFrame wraps an encrypted payload in the wire envelope.
func EncodeFrame(payload []byte) []byte {
	frame := make([]byte, HeaderSize+len(payload))
	frame[0] = FrameMarker
	binary.BigEndian.PutUint32(frame[1:HeaderSize], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)
	return frame
}

// Decoder is an incremental frame parser. Feed it raw socket bytes in any
// chunking; it buffers fragments internally and returns complete encrypted
// payloads. A Decoder is bound to one connection and is not safe for
// concurrent use (the receive loop is the only caller).
type Decoder struct {
	buf  []byte
	need int // payload bytes awaited; 0 while awaiting a header
}

// NewDecoder returns a Decoder in the awaiting-header state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes a chunk of raw bytes and returns the encrypted payloads of
// all frames completed by it, in arrival order. A chunk may complete zero,
// one, or several frames. After ErrProtocolViolation the Decoder is in an
// undefined state and must be discarded along with the connection.
func (d *Decoder) Feed(chunk []byte) ([][]byte, error) {
	d.buf = append(d.buf, chunk...)

	var payloads [][]byte
	for {
		if d.need == 0 {
			if len(d.buf) < HeaderSize {
				return payloads, nil
			}
			if d.buf[0] != FrameMarker {
				return payloads, fmt.Errorf("%w: unexpected marker byte 0x%02x", ErrProtocolViolation, d.buf[0])
			}
			length := binary.BigEndian.Uint32(d.buf[1:HeaderSize])
			if length == 0 || length > MaxPayloadSize {
				return payloads, fmt.Errorf("%w: declared payload length %d", ErrProtocolViolation, length)
			}
			d.buf = d.buf[HeaderSize:]
			d.need = int(length)
		}

		if len(d.buf) < d.need {
			return payloads, nil
		}

		payload := make([]byte, d.need)
		copy(payload, d.buf[:d.need])
		payloads = append(payloads, payload)

		d.buf = d.buf[d.need:]
		d.need = 0
	}
}

// Buffered reports how many bytes are held waiting for the current frame
// to complete. Used only for logging.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
