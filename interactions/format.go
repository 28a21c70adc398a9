package interactions

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/recgo/internal/compress"
)

const (
	// MagicNumber identifies an interaction segment ("RIS1").
	MagicNumber = 0x52495331
	// Version is the current segment format version.
	Version = 1
	// DefaultBlockEntities is the number of entities per compressed block.
	DefaultBlockEntities = 256
)

var (
	ErrInvalidMagic   = errors.New("interactions: invalid magic number")
	ErrInvalidVersion = errors.New("interactions: unsupported segment version")
	ErrCorrupt        = errors.New("interactions: corrupt segment")
)

// fileHeader describes the layout of a segment file. It is stored at the
// beginning of the file.
type fileHeader struct {
	Magic           uint32
	Version         uint32
	NumEntities     uint32
	NumItems        uint32
	NumInteractions uint64
	BlockEntities   uint32
	NumBlocks       uint32
	Compression     compress.Type
	_               [15]byte // Reserved
}

// fileFooter locates the block index. It is stored at the end of the file.
type fileFooter struct {
	IndexOffset   uint64
	IndexChecksum uint32
	Magic         uint32
}

const (
	headerSize = 4 + 4 + 4 + 4 + 8 + 4 + 4 + 1 + 15
	footerSize = 8 + 4 + 4
)

func (h *fileHeader) encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	binary.LittleEndian.PutUint32(buf[8:], h.NumEntities)
	binary.LittleEndian.PutUint32(buf[12:], h.NumItems)
	binary.LittleEndian.PutUint64(buf[16:], h.NumInteractions)
	binary.LittleEndian.PutUint32(buf[24:], h.BlockEntities)
	binary.LittleEndian.PutUint32(buf[28:], h.NumBlocks)
	buf[32] = byte(h.Compression)
	return buf
}

func decodeHeader(buf []byte) (*fileHeader, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	h := &fileHeader{}
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	if h.Magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	h.Version = binary.LittleEndian.Uint32(buf[4:])
	if h.Version != Version {
		return nil, ErrInvalidVersion
	}
	h.NumEntities = binary.LittleEndian.Uint32(buf[8:])
	h.NumItems = binary.LittleEndian.Uint32(buf[12:])
	h.NumInteractions = binary.LittleEndian.Uint64(buf[16:])
	h.BlockEntities = binary.LittleEndian.Uint32(buf[24:])
	h.NumBlocks = binary.LittleEndian.Uint32(buf[28:])
	h.Compression = compress.Type(buf[32])
	if h.BlockEntities == 0 {
		return nil, fmt.Errorf("%w: zero block size", ErrCorrupt)
	}
	if want := (h.NumEntities + h.BlockEntities - 1) / h.BlockEntities; h.NumBlocks != want {
		return nil, fmt.Errorf("%w: %d blocks for %d entities", ErrCorrupt, h.NumBlocks, h.NumEntities)
	}
	return h, nil
}

func (f *fileFooter) encode() []byte {
	buf := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(buf[0:], f.IndexOffset)
	binary.LittleEndian.PutUint32(buf[8:], f.IndexChecksum)
	binary.LittleEndian.PutUint32(buf[12:], f.Magic)
	return buf
}

func decodeFooter(buf []byte) (*fileFooter, error) {
	if len(buf) < footerSize {
		return nil, fmt.Errorf("%w: short footer", ErrCorrupt)
	}
	f := &fileFooter{
		IndexOffset:   binary.LittleEndian.Uint64(buf[0:]),
		IndexChecksum: binary.LittleEndian.Uint32(buf[8:]),
		Magic:         binary.LittleEndian.Uint32(buf[12:]),
	}
	if f.Magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	return f, nil
}

// Block payload, per entity: uvarint count, count uvarint item deltas
// (first absolute), then count little-endian float64 weights.

func appendEntity(dst []byte, list []interactionView) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(list)))
	var prev uint32
	for j, in := range list {
		d := in.item
		if j > 0 {
			d -= prev
		}
		dst = binary.AppendUvarint(dst, uint64(d))
		prev = in.item
	}
	for _, in := range list {
		dst = binary.LittleEndian.AppendUint64(dst, in.bits)
	}
	return dst
}

type interactionView struct {
	item uint32
	bits uint64
}
