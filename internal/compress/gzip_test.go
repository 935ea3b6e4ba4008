package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGZip(t *testing.T) {
	codec := NewGZip()

	text := strings.Repeat("extracted text with repetition ", 200)
	encoded, err := codec.Encode([]byte(text))
	assert.NoError(t, err)
	assert.Less(t, len(encoded), len(text))

	decoded, err := codec.Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, text, string(decoded))
}

func TestGZip_DecodeGarbage(t *testing.T) {
	codec := NewGZip()

	_, err := codec.Decode([]byte("not gzip data"))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	codec := NewNop()

	encoded, err := codec.Encode([]byte("text"))
	assert.NoError(t, err)
	assert.Equal(t, "text", string(encoded))

	decoded, err := codec.Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, "text", string(decoded))
}
