// Package crypto implements the application-layer encryption used by
// LG soundbars.
//
// The device encrypts every command and response payload with AES-256 in
// CBC mode using a key and IV that are fixed protocol constants shared by
// all devices. There is no per-message salt and no key exchange: identical
// plaintext always produces identical ciphertext. That is a property of
// the vendor protocol, not something this package tries to improve on —
// confidentiality of the link is whatever the vendor decided it is.
//
// Plaintext is padded to the 16-byte AES block size with PKCS#7 before
// encryption. Decryption validates the padding strictly: a pad byte out of
// range or a fill byte that does not match the pad length fails with
// ErrMalformedPayload instead of silently returning truncated data.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// BlockSize is the AES block size; every ciphertext this codec produces or
// accepts is a positive multiple of it.
const BlockSize = aes.BlockSize

// Vendor protocol constants. Every LG soundbar speaking this protocol
// ships the same key and IV; they are not configurable on the device.
var (
	deviceKey = []byte("T^&*J%^7tr~4^%^&I(o%^!jIJ__+a0 k")
	deviceIV  = []byte("'%^Ur7gy$~t+f)%@")
)

// ErrMalformedPayload indicates ciphertext that cannot have been produced
// by a well-behaved device: wrong length, or padding that fails to verify.
var ErrMalformedPayload = errors.New("malformed payload")

// Codec encrypts and decrypts soundbar message payloads. It is stateless
// apart from the fixed key schedule and safe for concurrent use.
type Codec struct {
	block cipher.Block
}

// NewCodec returns a codec using the vendor's fixed key and IV.
func NewCodec() *Codec {
	block, err := aes.NewCipher(deviceKey)
	if err != nil {
		// The key is a compile-time constant of valid length.
		panic(fmt.Sprintf("crypto: invalid device key: %v", err))
	}
	return &Codec{block: block}
}

// Encrypt pads plaintext with PKCS#7 and encrypts it with AES-256-CBC.
// The result is always a positive multiple of BlockSize, even for empty
// plaintext (which encrypts to one full padding block).
func (c *Codec) Encrypt(plaintext []byte) []byte {
	padded := pad(plaintext)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, deviceIV).CryptBlocks(out, padded)
	return out
}

// Decrypt decrypts ciphertext and strips the PKCS#7 padding. It returns
// ErrMalformedPayload if the ciphertext length is not a positive multiple
// of BlockSize or if the padding is inconsistent.
func (c *Codec) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d",
			ErrMalformedPayload, len(ciphertext), BlockSize)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, deviceIV).CryptBlocks(padded, ciphertext)

	return unpad(padded)
}

// pad appends PKCS#7 padding. Between 1 and BlockSize bytes are always
// added so that unpad can distinguish padding from data.
func pad(data []byte) []byte {
	n := BlockSize - len(data)%BlockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad validates and removes PKCS#7 padding.
func unpad(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > BlockSize || n > len(data) {
		return nil, fmt.Errorf("%w: invalid padding length %d", ErrMalformedPayload, n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: inconsistent padding bytes", ErrMalformedPayload)
		}
	}
	return data[:len(data)-n], nil
}
