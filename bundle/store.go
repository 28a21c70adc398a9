package bundle

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/interactions"
	"github.com/hupe1980/recgo/internal/cache"
	"github.com/hupe1980/recgo/internal/compress"
	"github.com/hupe1980/recgo/internal/resource"
	"github.com/hupe1980/recgo/scoring"
)

type options struct {
	compression compress.Type
	ioLimit     int64
	blockCache  int64
}

// Option configures Save and Load.
type Option func(*options)

// WithCompression sets the block compression of the interaction segment and
// the factor file. Default: ZSTD.
func WithCompression(t compress.Type) Option {
	return func(o *options) { o.compression = t }
}

// WithIOLimit throttles interaction segment reads of a loaded bundle to the
// given bytes per second. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) { o.ioLimit = bytesPerSec }
}

// WithBlockCache keeps up to capacity bytes of interaction blocks read from
// non-mapped blobs in memory. Zero disables the cache.
func WithBlockCache(capacity int64) Option {
	return func(o *options) { o.blockCache = capacity }
}

func applyOptions(optFns []Option) options {
	o := options{compression: compress.ZSTD}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Save writes b under prefix. An existing manifest under prefix is removed
// first and the new one is written last, so readers never pair a manifest
// with blobs of another bundle.
func Save(ctx context.Context, store blobstore.BlobStore, prefix string, b *Bundle, optFns ...Option) error {
	opts := applyOptions(optFns)
	p := b.scorer.Params()

	if err := store.Delete(ctx, path.Join(prefix, ManifestFileName)); err != nil {
		return fmt.Errorf("bundle: remove old manifest: %w", err)
	}

	w, err := store.Create(ctx, path.Join(prefix, InteractionsFileName))
	if err != nil {
		return fmt.Errorf("bundle: create interactions: %w", err)
	}
	if err := interactions.WriteSegment(ctx, w, b.interactions, interactions.WithCompression(opts.compression)); err != nil {
		_ = w.Close()
		return fmt.Errorf("bundle: write interactions: %w", err)
	}
	if err := w.Sync(); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	factors, err := encodeFactors(p, opts.compression)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, path.Join(prefix, FactorsFileName), factors); err != nil {
		return fmt.Errorf("bundle: write factors: %w", err)
	}

	m := Manifest{
		Version:     CurrentVersion,
		Columns:     columnsOf(b.schema),
		Entities:    keys(b.entities),
		Items:       keys(b.items),
		Dim:         p.Dim,
		GlobalBias:  p.GlobalBias,
		Weights:     p.Weights,
		Side:        b.side,
		Compression: opts.compression.String(),
	}
	data, err := codec.Default.Marshal(&m)
	if err != nil {
		return err
	}
	return store.Put(ctx, path.Join(prefix, ManifestFileName), data)
}

// Load opens the bundle stored under prefix. The interaction segment stays
// open until Close.
func Load(ctx context.Context, store blobstore.BlobStore, prefix string, optFns ...Option) (*Bundle, error) {
	opts := applyOptions(optFns)

	data, err := blobstore.Get(ctx, store, path.Join(prefix, ManifestFileName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := codec.Default.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bundle: decode manifest: %w", err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("bundle: unsupported manifest version %d", m.Version)
	}

	schema, err := m.schema()
	if err != nil {
		return nil, err
	}
	entities, err := indexer.NewMap(m.Entities)
	if err != nil {
		return nil, err
	}
	items, err := indexer.NewMap(m.Items)
	if err != nil {
		return nil, err
	}
	ct, err := compress.ParseType(m.Compression)
	if err != nil {
		return nil, err
	}

	block, err := blobstore.Get(ctx, store, path.Join(prefix, FactorsFileName))
	if err != nil {
		return nil, err
	}
	params := scoring.FactorizationParams{Dim: m.Dim, GlobalBias: m.GlobalBias, Weights: m.Weights}
	if err := decodeFactors(block, ct, entities.Len(), items.Len(), m.Dim, &params); err != nil {
		return nil, err
	}
	f, err := scoring.NewFactorization(params)
	if err != nil {
		return nil, err
	}

	blob, err := store.Open(ctx, path.Join(prefix, InteractionsFileName))
	if err != nil {
		return nil, fmt.Errorf("bundle: open interactions: %w", err)
	}
	var segOpts []interactions.SegmentOption
	if opts.ioLimit > 0 {
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: opts.ioLimit})
		segOpts = append(segOpts, interactions.WithResourceController(rc))
	}
	if opts.blockCache > 0 {
		segOpts = append(segOpts, interactions.WithBlockCache(cache.NewShardedLRU(opts.blockCache, nil)))
	}
	seg, err := interactions.OpenSegment(ctx, blob, segOpts...)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	if seg.NumEntities() != entities.Len() || seg.NumItems() != items.Len() {
		_ = seg.Close()
		return nil, errors.Join(ErrCorrupt, fmt.Errorf("interactions cover %d entities and %d items, manifest has %d and %d",
			seg.NumEntities(), seg.NumItems(), entities.Len(), items.Len()))
	}

	b := New(schema, entities, items, seg, f, m.Side)
	b.closer = seg.Close
	return b, nil
}
