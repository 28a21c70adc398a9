package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("recgo-block-"), 512)
	random := make([]byte, 1024)
	for i := range random {
		random[i] = byte(i*131 + i/7)
	}

	for _, typ := range []Type{None, LZ4, ZSTD} {
		for name, data := range map[string][]byte{"compressible": compressible, "mixed": random, "empty": {}} {
			t.Run(typ.String()+"/"+name, func(t *testing.T) {
				framed, err := EncodeBlock(nil, data, typ)
				require.NoError(t, err)

				n, err := BlockLen(framed)
				require.NoError(t, err)
				assert.Equal(t, len(framed), n)

				out, err := DecodeBlock(nil, framed, typ)
				require.NoError(t, err)
				assert.Equal(t, len(data), len(out))
				assert.True(t, bytes.Equal(data, out))
			})
		}
	}
}

func TestCompressionShrinks(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 4096)
	framed, err := EncodeBlock(nil, data, ZSTD)
	require.NoError(t, err)
	assert.Less(t, len(framed), len(data)/4)
}

func TestCorruption(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 100)
	framed, err := EncodeBlock(nil, data, None)
	require.NoError(t, err)

	framed[HeaderSize+3] ^= 0xFF
	_, err = DecodeBlock(nil, framed, None)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = DecodeBlock(nil, framed[:4], None)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("zstd")
	require.NoError(t, err)
	assert.Equal(t, ZSTD, typ)

	_, err = ParseType("snappy")
	assert.ErrorIs(t, err, ErrUnknownType)
}
