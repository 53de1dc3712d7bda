package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tmholter/lgbar/internal/crypto"
)

// Codec turns Messages into wire frames and encrypted payloads back into
// Messages. It owns the cipher so that a future protocol revision only
// touches this layer and internal/crypto.
type Codec struct {
	cipher *crypto.Codec
}

// NewCodec returns a codec using the device's fixed cipher parameters.
func NewCodec() *Codec {
	return &Codec{cipher: crypto.NewCodec()}
}

// EncodeMessage serializes, encrypts, and frames a message, returning the
// exact bytes to write to the socket.
func (c *Codec) EncodeMessage(msg Message) ([]byte, error) {
	plaintext, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Msg, err)
	}
	return EncodeFrame(c.cipher.Encrypt(plaintext)), nil
}

// DecodeMessage decrypts a complete frame payload (as produced by
// Decoder.Feed) and parses the JSON message inside it. Cipher, padding,
// and JSON failures all surface as crypto.ErrMalformedPayload: the frame
// envelope was valid but its contents were not.
func (c *Codec) DecodeMessage(encrypted []byte) (Message, error) {
	plaintext, err := c.cipher.Decrypt(encrypted)
	if err != nil {
		return Message{}, err
	}

	var msg Message
	if err := json.Unmarshal(plaintext, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: invalid JSON payload: %v", crypto.ErrMalformedPayload, err)
	}
	return msg, nil
}
