package decode

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePassthrough(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short token", "abc123"},
		{"nineteen chars", "aaaaaaaaaaaaaaaaaaa"},
		{"length not multiple of four", "aaaaaaaaaaaaaaaaaaaaaa"},
		{"url with invalid chars", "https://example.com/path?q=1"},
		{"json body", `{"user":"alice","event":"click"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Decode(tt.input)
			assert.False(t, res.Decoded)
			assert.Equal(t, tt.input, res.Text)
		})
	}
}

func TestDecodeRecoversText(t *testing.T) {
	plain := "email=user@example.com&id=12345"
	encoded := base64.StdEncoding.EncodeToString([]byte(plain))

	res := Decode(encoded)
	assert.True(t, res.Decoded)
	assert.Equal(t, plain, res.Text)
}

func TestDecodeBinaryFallsBack(t *testing.T) {
	// Decodes cleanly but contains nothing in the visible ASCII range.
	noise := make([]byte, 18)
	for i := range noise {
		noise[i] = 0x01
	}
	encoded := base64.StdEncoding.EncodeToString(noise)

	res := Decode(encoded)
	assert.False(t, res.Decoded)
	assert.Equal(t, encoded, res.Text)
}

func TestDecodeIdempotentOnPassthrough(t *testing.T) {
	input := "plain text body that is long enough!"
	first := Decode(input)
	second := Decode(first.Text)
	assert.Equal(t, first, second)
}
