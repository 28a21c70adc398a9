package interactions

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/internal/cache"
	"github.com/hupe1980/recgo/internal/compress"
	"github.com/hupe1980/recgo/internal/hash"
	"github.com/hupe1980/recgo/internal/resource"
	"github.com/hupe1980/recgo/model"
)

type segmentOptions struct {
	compression   compress.Type
	blockEntities int
	rc            *resource.Controller
	cache         cache.BlockCache
}

// SegmentOption configures WriteSegment and OpenSegment.
type SegmentOption func(*segmentOptions)

// WithCompression sets the block compression used by WriteSegment.
// Default: LZ4.
func WithCompression(t compress.Type) SegmentOption {
	return func(o *segmentOptions) { o.compression = t }
}

// WithBlockEntities sets the number of entities per block used by
// WriteSegment. Default: 256.
func WithBlockEntities(n int) SegmentOption {
	return func(o *segmentOptions) {
		if n > 0 {
			o.blockEntities = n
		}
	}
}

// WithResourceController throttles block reads of an opened segment through
// the controller's IO limiter.
func WithResourceController(rc *resource.Controller) SegmentOption {
	return func(o *segmentOptions) { o.rc = rc }
}

// WithBlockCache shares compressed blocks read from non-mapped blobs between
// the readers of an opened segment.
func WithBlockCache(c cache.BlockCache) SegmentOption {
	return func(o *segmentOptions) { o.cache = c }
}

func applySegmentOptions(optFns []SegmentOption) segmentOptions {
	o := segmentOptions{compression: compress.LZ4, blockEntities: DefaultBlockEntities}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteSegment serializes src as a block-compressed segment.
func WriteSegment(ctx context.Context, w io.Writer, src Store, optFns ...SegmentOption) error {
	opts := applySegmentOptions(optFns)

	r, err := src.NewReader(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	numEntities := src.NumEntities()
	numBlocks := (numEntities + opts.blockEntities - 1) / opts.blockEntities

	hdr := fileHeader{
		Magic:           MagicNumber,
		Version:         Version,
		NumEntities:     uint32(numEntities),
		NumItems:        uint32(src.NumItems()),
		NumInteractions: uint64(src.NumInteractions()),
		BlockEntities:   uint32(opts.blockEntities),
		NumBlocks:       uint32(numBlocks),
		Compression:     opts.compression,
	}

	cw := &countingWriter{w: w}
	if _, err := cw.Write(hdr.encode()); err != nil {
		return err
	}

	index := make([]uint64, 0, numBlocks+1)
	var (
		raw   []byte
		frame []byte
		view  []interactionView
		buf   []model.Interaction
	)
	for b := 0; b < numBlocks; b++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		index = append(index, uint64(cw.n))

		raw = raw[:0]
		lo := b * opts.blockEntities
		hi := min(lo+opts.blockEntities, numEntities)
		for e := lo; e < hi; e++ {
			list, err := r.Read(model.EntityID(e), buf)
			if err != nil {
				return fmt.Errorf("interactions: read entity %d: %w", e, err)
			}
			buf = list
			view = view[:0]
			for _, in := range list {
				view = append(view, interactionView{item: uint32(in.Item), bits: math.Float64bits(in.Weight)})
			}
			raw = appendEntity(raw, view)
		}

		frame, err = compress.EncodeBlock(frame[:0], raw, opts.compression)
		if err != nil {
			return err
		}
		if _, err := cw.Write(frame); err != nil {
			return err
		}
	}
	index = append(index, uint64(cw.n))

	indexBytes := make([]byte, 0, 8*len(index))
	for _, off := range index {
		indexBytes = binary.LittleEndian.AppendUint64(indexBytes, off)
	}
	footer := fileFooter{
		IndexOffset:   uint64(cw.n),
		IndexChecksum: hash.CRC32C(indexBytes),
		Magic:         MagicNumber,
	}
	if _, err := cw.Write(indexBytes); err != nil {
		return err
	}
	_, err = cw.Write(footer.encode())
	return err
}

// Segment is an immutable, block-compressed interaction store backed by a blob.
type Segment struct {
	blob   blobstore.Blob
	mapped []byte
	hdr    *fileHeader
	index  []uint64
	rc     *resource.Controller
	cache  cache.BlockCache
	id     uint64
}

// OpenSegment opens a segment written by WriteSegment. The segment takes
// ownership of blob and closes it on Close.
func OpenSegment(ctx context.Context, blob blobstore.Blob, optFns ...SegmentOption) (*Segment, error) {
	opts := applySegmentOptions(optFns)

	size := blob.Size()
	if size < headerSize+footerSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrCorrupt, size)
	}

	s := &Segment{blob: blob, rc: opts.rc, cache: opts.cache, id: cache.NewSegmentID()}
	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		s.mapped = data
	}

	hb, err := s.readAt(ctx, 0, headerSize)
	if err != nil {
		return nil, err
	}
	if s.hdr, err = decodeHeader(hb); err != nil {
		return nil, err
	}

	fb, err := s.readAt(ctx, size-footerSize, footerSize)
	if err != nil {
		return nil, err
	}
	footer, err := decodeFooter(fb)
	if err != nil {
		return nil, err
	}

	indexLen := 8 * (int64(s.hdr.NumBlocks) + 1)
	if int64(footer.IndexOffset)+indexLen != size-footerSize {
		return nil, fmt.Errorf("%w: index offset %d out of place", ErrCorrupt, footer.IndexOffset)
	}
	ib, err := s.readAt(ctx, int64(footer.IndexOffset), int(indexLen))
	if err != nil {
		return nil, err
	}
	if hash.CRC32C(ib) != footer.IndexChecksum {
		return nil, fmt.Errorf("%w: index checksum mismatch", ErrCorrupt)
	}
	s.index = make([]uint64, s.hdr.NumBlocks+1)
	for i := range s.index {
		s.index[i] = binary.LittleEndian.Uint64(ib[8*i:])
		if i > 0 && s.index[i] < s.index[i-1] {
			return nil, fmt.Errorf("%w: block index not monotonic", ErrCorrupt)
		}
	}
	return s, nil
}

func (s *Segment) readAt(ctx context.Context, off int64, n int) ([]byte, error) {
	if s.mapped != nil {
		if off < 0 || off+int64(n) > int64(len(s.mapped)) {
			return nil, fmt.Errorf("%w: range [%d,%d) beyond end", ErrCorrupt, off, off+int64(n))
		}
		return s.mapped[off : off+int64(n)], nil
	}
	if err := s.rc.AcquireIO(ctx, n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	got, err := s.blob.ReadAt(ctx, buf, off)
	if err != nil && !(errors.Is(err, io.EOF) && got == n) {
		return nil, err
	}
	return buf, nil
}

// NumEntities implements Store.
func (s *Segment) NumEntities() int { return int(s.hdr.NumEntities) }

// NumItems implements Store.
func (s *Segment) NumItems() int { return int(s.hdr.NumItems) }

// NumInteractions implements Store.
func (s *Segment) NumInteractions() int { return int(s.hdr.NumInteractions) }

// Compression returns the block compression of the segment.
func (s *Segment) Compression() compress.Type { return s.hdr.Compression }

// Close releases the underlying blob and drops its cached blocks.
func (s *Segment) Close() error {
	if s.cache != nil {
		s.cache.Invalidate(s.id)
	}
	return s.blob.Close()
}

// block returns the stored bytes of block b, through the block cache when
// the blob is not mapped.
func (s *Segment) block(ctx context.Context, b int) ([]byte, error) {
	start, end := s.index[b], s.index[b+1]
	if s.mapped != nil || s.cache == nil {
		return s.readAt(ctx, int64(start), int(end-start))
	}
	key := cache.Key{Segment: s.id, Offset: start}
	if data, ok := s.cache.Get(key); ok {
		return data, nil
	}
	data, err := s.readAt(ctx, int64(start), int(end-start))
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, data)
	return data, nil
}

// NewReader implements Store. Each reader caches one decoded block.
func (s *Segment) NewReader(ctx context.Context) (Reader, error) {
	return &SegmentReader{s: s, ctx: ctx, block: -1}, nil
}

// SegmentReader reads one segment block at a time.
type SegmentReader struct {
	s     *Segment
	ctx   context.Context
	block int
	raw   []byte
	ents  []model.Interaction
	// bounds[j] is the start of entity block*BlockEntities+j in ents.
	bounds []int
}

// Read implements Reader.
func (r *SegmentReader) Read(e model.EntityID, _ []model.Interaction) ([]model.Interaction, error) {
	if int(e) >= r.s.NumEntities() {
		return nil, nil
	}
	per := int(r.s.hdr.BlockEntities)
	b := int(e) / per
	if b != r.block {
		if err := r.load(b); err != nil {
			return nil, err
		}
	}
	j := int(e) - b*per
	return r.ents[r.bounds[j]:r.bounds[j+1]:r.bounds[j+1]], nil
}

func (r *SegmentReader) load(b int) error {
	r.block = -1
	frame, err := r.s.block(r.ctx, b)
	if err != nil {
		return err
	}
	r.raw, err = compress.DecodeBlock(r.raw, frame, r.s.hdr.Compression)
	if err != nil {
		return fmt.Errorf("interactions: block %d: %w", b, err)
	}

	per := int(r.s.hdr.BlockEntities)
	n := min(per, r.s.NumEntities()-b*per)
	r.ents = r.ents[:0]
	r.bounds = append(r.bounds[:0], 0)

	p := r.raw
	for j := 0; j < n; j++ {
		count, k := binary.Uvarint(p)
		if k <= 0 || count > uint64(len(p)) {
			return fmt.Errorf("%w: block %d entity %d: bad count", ErrCorrupt, b, j)
		}
		p = p[k:]
		first := len(r.ents)
		var item uint64
		for c := uint64(0); c < count; c++ {
			d, k := binary.Uvarint(p)
			if k <= 0 {
				return fmt.Errorf("%w: block %d entity %d: bad item", ErrCorrupt, b, j)
			}
			p = p[k:]
			if c == 0 {
				item = d
			} else {
				item += d
			}
			r.ents = append(r.ents, model.Interaction{Item: model.ItemID(item)})
		}
		if uint64(len(p)) < 8*count {
			return fmt.Errorf("%w: block %d entity %d: truncated weights", ErrCorrupt, b, j)
		}
		for c := range r.ents[first:] {
			r.ents[first+c].Weight = math.Float64frombits(binary.LittleEndian.Uint64(p[8*c:]))
		}
		p = p[8*count:]
		r.bounds = append(r.bounds, len(r.ents))
	}
	r.block = b
	return nil
}

// Close implements Reader.
func (r *SegmentReader) Close() error {
	r.raw, r.ents, r.bounds = nil, nil, nil
	return nil
}
