package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	store, err := New(ctx, bucket, WithPrefix(fmt.Sprintf("test-recgo-%d/", time.Now().UnixNano())))
	require.NoError(t, err)

	t.Run("StreamAndRead", func(t *testing.T) {
		name := "results/part-0.tbl"
		data := make([]byte, 1<<20)
		_, _ = rand.Read(data)

		w, err := store.Create(ctx, name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		names, err := store.List(ctx, "results/")
		require.NoError(t, err)
		assert.Equal(t, []string{name}, names)

		b, err := store.Open(ctx, name)
		require.NoError(t, err)
		defer b.Close()

		buf := make([]byte, 100)
		n, err := b.ReadAt(ctx, buf, 1024)
		require.NoError(t, err)
		assert.Equal(t, data[1024:1024+n], buf)

		require.NoError(t, store.Delete(ctx, name))
	})

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "manifest.json", []byte(`{"version":1}`)))
		got, err := blobstore.Get(ctx, store, "manifest.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":1}`, string(got))
		require.NoError(t, store.Delete(ctx, "manifest.json"))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "nonexistent")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
