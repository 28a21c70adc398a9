package blobstore

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	src := []byte("abcdef")
	require.NoError(t, store.Put(ctx, "t/a", src))
	src[0] = 'X'

	w, err := store.Create(ctx, "t/b")
	require.NoError(t, err)
	_, err = w.Write([]byte("stream"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
	require.NoError(t, w.Close())

	streamed, err := Get(ctx, store, "t/b")
	require.NoError(t, err)
	assert.Equal(t, "stream", string(streamed))

	b, err := store.Open(ctx, "t/a")
	require.NoError(t, err)
	assert.Equal(t, int64(6), b.Size())

	buf := make([]byte, 4)
	n, err := b.ReadAt(ctx, buf, 4)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "ef", string(buf[:n]))

	data, err := Get(ctx, store, "t/a")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(data), "Put must copy its input")

	names, err := store.List(ctx, "t/")
	require.NoError(t, err)
	assert.Equal(t, []string{"t/a", "t/b"}, names)

	require.NoError(t, store.Delete(ctx, "t/a"))
	_, err = store.Open(ctx, "t/a")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Get(ctx, store, "t/a")
	assert.ErrorIs(t, err, ErrNotFound)

	t.Run("Canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.Open(cctx, "t/b")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, store.Put(cctx, "t/c", nil), context.Canceled)
	})
}
