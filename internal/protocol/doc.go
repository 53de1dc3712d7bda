// Package protocol implements the LG soundbar wire protocol.
//
// This package handles framing, parsing, and construction of the messages
// exchanged with LG soundbars over TCP. Commands and responses are JSON
// documents, AES-encrypted (see internal/crypto) and wrapped in a small
// binary envelope.
//
// # Frame layout
//
// Every frame on the wire has this structure:
//   - Marker byte: 0x10
//   - Payload length: 4 bytes (big-endian)
//   - Encrypted payload: AES-CBC ciphertext, always a multiple of 16 bytes
//
// The marker and field widths are fixed by the device firmware and must be
// reproduced exactly; they are a compatibility contract, not a choice.
//
// # Message format
//
// Decrypted payloads are JSON objects of the form:
//
//	{"cmd": "get"|"set", "msg": "<TARGET>", "data": {...}}
//
// The device echoes the "msg" target in its responses, which is what the
// transport layer uses to correlate responses with in-flight calls. There
// is no request ID in the protocol.
//
// # Streaming decode
//
// TCP delivers frames in arbitrary chunks: a single read may contain a
// fragment of a frame, exactly one frame, or several frames back to back.
// Decoder is an incremental state machine that accumulates bytes and emits
// complete encrypted payloads as they become available:
//
//	dec := protocol.NewDecoder()
//	payloads, err := dec.Feed(chunk)
//	for _, p := range payloads {
//	    msg, err := codec.DecodeMessage(p)
//	    ...
//	}
package protocol
