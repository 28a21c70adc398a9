package interactions

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/internal/cache"
	"github.com/hupe1980/recgo/internal/compress"
	"github.com/hupe1980/recgo/internal/resource"
	"github.com/hupe1980/recgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	b := NewBuilder(3, 5)
	require.NoError(t, b.Add(0, 3, 1))
	require.NoError(t, b.Add(0, 1, 2))
	require.NoError(t, b.Add(0, 3, 7)) // overwrites
	require.NoError(t, b.Add(2, 4, 1))
	require.Error(t, b.Add(3, 0, 1))
	require.Error(t, b.Add(0, 5, 1))

	m, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, m.NumEntities())
	assert.Equal(t, 5, m.NumItems())
	assert.Equal(t, 3, m.NumInteractions())
	assert.Equal(t, []model.Interaction{{Item: 1, Weight: 2}, {Item: 3, Weight: 7}}, m.Entity(0))
	assert.Empty(t, m.Entity(1))
	assert.Equal(t, []model.Interaction{{Item: 4, Weight: 1}}, m.Entity(2))
	assert.Nil(t, m.Entity(99))
}

func TestNewMemory(t *testing.T) {
	_, err := NewMemory(3, [][]model.Interaction{{{Item: 2}, {Item: 1}}})
	assert.Error(t, err)

	_, err = NewMemory(3, [][]model.Interaction{{{Item: 3}}})
	assert.Error(t, err)

	m, err := NewMemory(3, [][]model.Interaction{{{Item: 0}, {Item: 2}}, nil})
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumEntities())
}

func randomMemory(t *testing.T, seed int64, entities, items int) *Memory {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	b := NewBuilder(entities, items)
	for e := 0; e < entities; e++ {
		n := rng.Intn(items / 2)
		for j := 0; j < n; j++ {
			require.NoError(t, b.Add(model.EntityID(e), model.ItemID(rng.Intn(items)), rng.Float64()*5))
		}
	}
	m, err := b.Build(context.Background())
	require.NoError(t, err)
	return m
}

func TestSegment_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := randomMemory(t, 1, 700, 400)

	for _, c := range []compress.Type{compress.None, compress.LZ4, compress.ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSegment(ctx, &buf, src, WithCompression(c), WithBlockEntities(64)))

			store := blobstore.NewMemoryStore()
			require.NoError(t, store.Put(ctx, "seg", buf.Bytes()))
			blob, err := store.Open(ctx, "seg")
			require.NoError(t, err)

			seg, err := OpenSegment(ctx, blob, WithResourceController(resource.NewController(resource.Config{})))
			require.NoError(t, err)
			defer seg.Close()

			assert.Equal(t, src.NumEntities(), seg.NumEntities())
			assert.Equal(t, src.NumItems(), seg.NumItems())
			assert.Equal(t, src.NumInteractions(), seg.NumInteractions())
			assert.Equal(t, c, seg.Compression())

			r, err := seg.NewReader(ctx)
			require.NoError(t, err)
			defer r.Close()

			// Out of block order on purpose.
			for _, e := range []int{0, 699, 64, 63, 300, 1, 650} {
				got, err := r.Read(model.EntityID(e), nil)
				require.NoError(t, err)
				want := src.Entity(model.EntityID(e))
				if len(want) == 0 {
					assert.Empty(t, got, "entity %d", e)
				} else {
					assert.Equal(t, want, got, "entity %d", e)
				}
			}

			got, err := r.Read(5000, nil)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestSegment_LocalMapped(t *testing.T) {
	ctx := context.Background()
	src := randomMemory(t, 2, 100, 50)

	store := blobstore.NewLocalStore(t.TempDir())
	w, err := store.Create(ctx, "interactions.seg")
	require.NoError(t, err)
	require.NoError(t, WriteSegment(ctx, w, src))
	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "interactions.seg")
	require.NoError(t, err)
	seg, err := OpenSegment(ctx, blob)
	require.NoError(t, err)
	defer seg.Close()

	stSeg, err := Counts(ctx, seg)
	require.NoError(t, err)
	stMem, err := Counts(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, stMem, stSeg)
}

// unmapped hides the Mappable implementation of the wrapped blob.
type unmapped struct{ blobstore.Blob }

func TestSegment_BlockCache(t *testing.T) {
	ctx := context.Background()
	src := randomMemory(t, 3, 300, 80)

	var buf bytes.Buffer
	require.NoError(t, WriteSegment(ctx, &buf, src, WithBlockEntities(32)))
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "seg", buf.Bytes()))
	blob, err := store.Open(ctx, "seg")
	require.NoError(t, err)

	bc := cache.NewShardedLRU(1<<24, nil)
	seg, err := OpenSegment(ctx, unmapped{blob}, WithBlockCache(bc))
	require.NoError(t, err)

	entities := []model.EntityID{0, 100, 299}
	for pass := 0; pass < 2; pass++ {
		r, err := seg.NewReader(ctx)
		require.NoError(t, err)
		for _, e := range entities {
			got, err := r.Read(e, nil)
			require.NoError(t, err)
			want := src.Entity(e)
			if len(want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, want, got)
			}
		}
		require.NoError(t, r.Close())
	}

	hits, misses := bc.Stats()
	assert.Equal(t, int64(len(entities)), hits)
	assert.Equal(t, int64(len(entities)), misses)
	assert.Positive(t, bc.Size())

	require.NoError(t, seg.Close())
	assert.Zero(t, bc.Size())
}

func TestSegment_Corrupt(t *testing.T) {
	ctx := context.Background()
	src := randomMemory(t, 3, 10, 20)

	var buf bytes.Buffer
	require.NoError(t, WriteSegment(ctx, &buf, src, WithCompression(compress.None)))
	data := buf.Bytes()

	open := func(b []byte) (*Segment, error) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "seg", b))
		blob, err := store.Open(ctx, "seg")
		require.NoError(t, err)
		return OpenSegment(ctx, blob)
	}

	t.Run("Magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] ^= 0xff
		_, err := open(bad)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("Short", func(t *testing.T) {
		_, err := open(data[:10])
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("BlockChecksum", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[headerSize+compress.HeaderSize+1] ^= 0xff
		seg, err := open(bad)
		require.NoError(t, err)
		r, err := seg.NewReader(ctx)
		require.NoError(t, err)
		_, err = r.Read(0, nil)
		assert.ErrorIs(t, err, compress.ErrCorrupt)
	})
}

func TestCounts(t *testing.T) {
	m, err := NewMemory(3, [][]model.Interaction{
		{{Item: 0}, {Item: 1}},
		{{Item: 1}},
		{},
		{{Item: 0}, {Item: 1}, {Item: 2}},
	})
	require.NoError(t, err)

	st, err := Counts(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0, 3}, st.ItemsPerEntity)
	assert.Equal(t, []int{2, 3, 1}, st.EntitiesPerItem)
}
