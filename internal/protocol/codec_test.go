package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/tmholter/lgbar/internal/crypto"
)

func TestEncodeMessageWireBytes(t *testing.T) {
	// Full-stack check: JSON serialization, encryption, and framing of a
	// volume command must produce these exact bytes (ciphertext computed
	// with openssl against the device key/IV).
	codec := NewCodec()

	frame, err := codec.EncodeMessage(SetValue(TargetSpkListViewInfo, "i_vol", 15))
	if err != nil {
		t.Fatalf("EncodeMessage failed: %v", err)
	}

	wantPayload, _ := hex.DecodeString(
		"974480022b2ee3e8e97408726f7030e89d95011e780d2718c777fcdefb33a2de" +
			"54ab4385392936d6152ab4f590a80f7e869298da6921d771bd84fa2abe415746")
	want := EncodeFrame(wantPayload)

	if !bytes.Equal(frame, want) {
		t.Errorf("wire bytes = %x, want %x", frame, want)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"get without data", Get(TargetProductInfo)},
		{"set with data", SetValue(TargetSettingViewInfo, "b_night_mode", true)},
		{"set without data", Message{Cmd: CmdSet, Msg: TargetTestToneReq}},
		{
			"multiple data keys",
			Set(TargetSettingViewInfo, map[string]any{"i_av_sync": float64(120), "b_drc": false}),
		},
	}

	codec := NewCodec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := codec.EncodeMessage(tt.msg)
			if err != nil {
				t.Fatalf("EncodeMessage failed: %v", err)
			}

			dec := NewDecoder()
			payloads, err := dec.Feed(frame)
			if err != nil {
				t.Fatalf("Feed failed: %v", err)
			}
			if len(payloads) != 1 {
				t.Fatalf("got %d payloads, want 1", len(payloads))
			}

			got, err := codec.DecodeMessage(payloads[0])
			if err != nil {
				t.Fatalf("DecodeMessage failed: %v", err)
			}
			if got.Cmd != tt.msg.Cmd || got.Msg != tt.msg.Msg {
				t.Errorf("decoded envelope = (%q, %q), want (%q, %q)", got.Cmd, got.Msg, tt.msg.Cmd, tt.msg.Msg)
			}
			// JSON numbers come back as float64; the table uses float64
			// values so data can be compared key by key.
			if len(got.Data) != len(tt.msg.Data) {
				t.Fatalf("decoded data has %d keys, want %d", len(got.Data), len(tt.msg.Data))
			}
			for k, v := range tt.msg.Data {
				if got.Data[k] != v {
					t.Errorf("data[%q] = %v, want %v", k, got.Data[k], v)
				}
			}
		})
	}
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	codec := NewCodec()

	// Valid frame envelope, undecipherable payload: random-looking bytes
	// decrypt to garbage that fails padding validation.
	garbage := bytes.Repeat([]byte{0xC3, 0x1F}, 16)
	if _, err := codec.DecodeMessage(garbage); !errors.Is(err, crypto.ErrMalformedPayload) {
		t.Errorf("DecodeMessage(garbage) error = %v, want ErrMalformedPayload", err)
	}

	// Properly encrypted payload that is not JSON.
	notJSON := crypto.NewCodec().Encrypt([]byte("volume=15"))
	if _, err := codec.DecodeMessage(notJSON); !errors.Is(err, crypto.ErrMalformedPayload) {
		t.Errorf("DecodeMessage(non-JSON) error = %v, want ErrMalformedPayload", err)
	}
}
