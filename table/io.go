package table

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/internal/compress"
)

const (
	magic   = 0x52544231 // "RTB1"
	version = 1

	// headerSize is magic(4) version(1) compression(1) codecLen(1).
	headerSize = 7
)

var (
	// ErrInvalidMagic is returned when a blob is not a result table.
	ErrInvalidMagic = errors.New("table: invalid magic")

	// ErrInvalidVersion is returned for an unsupported table version.
	ErrInvalidVersion = errors.New("table: unsupported version")

	// ErrUnknownCodec is returned when the stored codec is not built in.
	ErrUnknownCodec = errors.New("table: unknown codec")
)

// Encode serializes t with the given codec into one compressed block.
func Encode(t *Table, c codec.Codec, ct compress.Type) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	payload, err := c.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("table: marshal: %w", err)
	}
	name := c.Name()

	buf := make([]byte, headerSize, headerSize+len(name)+compress.HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:], magic)
	buf[4] = version
	buf[5] = byte(ct)
	buf[6] = byte(len(name))
	buf = append(buf, name...)
	return compress.EncodeBlock(buf, payload, ct)
}

// Decode parses a table written by Encode.
func Decode(data []byte) (*Table, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: short header", compress.ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(data[0:]) != magic {
		return nil, ErrInvalidMagic
	}
	if data[4] != version {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, data[4])
	}
	ct := compress.Type(data[5])
	nameLen := int(data[6])
	if len(data) < headerSize+nameLen {
		return nil, fmt.Errorf("%w: short codec name", compress.ErrCorrupt)
	}
	name := string(data[headerSize : headerSize+nameLen])
	c, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}

	payload, err := compress.DecodeBlock(nil, data[headerSize+nameLen:], ct)
	if err != nil {
		return nil, err
	}
	var t Table
	if err := c.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("table: unmarshal: %w", err)
	}
	return &t, nil
}

// Write stores t under name.
func Write(ctx context.Context, store blobstore.BlobStore, name string, t *Table, c codec.Codec, ct compress.Type) error {
	data, err := Encode(t, c, ct)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// Read loads the table stored under name.
func Read(ctx context.Context, store blobstore.BlobStore, name string) (*Table, error) {
	data, err := blobstore.Get(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// WriteCSV writes t as CSV with a header row of the entity column, the item
// column, "score" and "rank".
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{t.EntityColumn, t.ItemColumn, "score", "rank"}); err != nil {
		return err
	}
	rec := make([]string, 4)
	for _, r := range t.Rows {
		rec[0] = r.Entity
		rec[1] = r.Item
		rec[2] = strconv.FormatFloat(r.Score, 'g', -1, 64)
		rec[3] = strconv.Itoa(r.Rank)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
