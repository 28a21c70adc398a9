// Package compress implements the checksummed block framing shared by
// interaction segments and result tables.
//
// Block format: [UncompressedSize uint32][StoredSize uint32][CRC32C uint32][Data...]
//
// StoredSize == 0 means the payload is stored uncompressed (compression did
// not pay off). The checksum covers the uncompressed payload.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/recgo/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores blocks uncompressed.
	None Type = 0
	// LZ4 is fast block compression, the default for segments read in the hot loop.
	LZ4 Type = 1
	// ZSTD trades speed for ratio; used for result tables and factor files.
	ZSTD Type = 2
)

// HeaderSize is the size of the block header in bytes.
const HeaderSize = 12

var (
	// ErrCorrupt is returned when a block fails its size or checksum checks.
	ErrCorrupt = errors.New("compress: corrupt block")

	// ErrUnknownType is returned for an unsupported compression type.
	ErrUnknownType = errors.New("compress: unknown compression type")
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ParseType maps a configuration name to a Type.
func ParseType(name string) (Type, error) {
	switch name {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// EncodeBlock frames data as one block and appends it to dst.
func EncodeBlock(dst, data []byte, t Type) ([]byte, error) {
	var payload []byte

	switch t {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		payload = buf[:n] // n == 0: incompressible
	case ZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}

	// Store raw when compression does not help (ratio > 0.9).
	if len(payload) == 0 || float64(len(payload)) > float64(len(data))*0.9 {
		payload = nil
	}

	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[8:], hash.CRC32C(data))
	dst = append(dst, hdr[:]...)
	if payload == nil {
		return append(dst, data...), nil
	}
	return append(dst, payload...), nil
}

// BlockLen returns the framed length of the block starting at b.
func BlockLen(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	raw := binary.LittleEndian.Uint32(b[0:])
	stored := binary.LittleEndian.Uint32(b[4:])
	if stored == 0 {
		return HeaderSize + int(raw), nil
	}
	return HeaderSize + int(stored), nil
}

// DecodeBlock decodes one framed block into dst (reusing its capacity) and
// verifies the checksum.
func DecodeBlock(dst, block []byte, t Type) ([]byte, error) {
	if len(block) < HeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	raw := binary.LittleEndian.Uint32(block[0:])
	stored := binary.LittleEndian.Uint32(block[4:])
	sum := binary.LittleEndian.Uint32(block[8:])
	body := block[HeaderSize:]

	if cap(dst) < int(raw) {
		dst = make([]byte, raw)
	}
	dst = dst[:raw]

	switch {
	case stored == 0:
		if len(body) < int(raw) {
			return nil, fmt.Errorf("%w: truncated raw block", ErrCorrupt)
		}
		copy(dst, body[:raw])
	case t == LZ4:
		if len(body) < int(stored) {
			return nil, fmt.Errorf("%w: truncated lz4 block", ErrCorrupt)
		}
		n, err := lz4.UncompressBlock(body[:stored], dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != raw {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
	case t == ZSTD:
		if len(body) < int(stored) {
			return nil, fmt.Errorf("%w: truncated zstd block", ErrCorrupt)
		}
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(body[:stored], dst[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(out)) != raw {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		dst = out
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}

	if hash.CRC32C(dst) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return dst, nil
}
