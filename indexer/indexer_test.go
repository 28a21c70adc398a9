package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	m, err := NewMap([]string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())

	id, ok := m.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, uint32(1), id)

	_, ok = m.Lookup("z")
	assert.False(t, ok)

	k, ok := m.Key(2)
	assert.True(t, ok)
	assert.Equal(t, "c", k)

	_, ok = m.Key(3)
	assert.False(t, ok)

	t.Run("Duplicate", func(t *testing.T) {
		_, err := NewMap([]string{"a", "a"})
		assert.Error(t, err)
	})
}

func TestOverlay(t *testing.T) {
	base := MustMap("u1", "u2")
	o := NewOverlay(base)

	assert.Equal(t, uint32(0), o.Index("u1"))
	assert.Equal(t, 0, o.Added())

	id := o.Index("new")
	assert.Equal(t, uint32(2), id)
	assert.Equal(t, id, o.Index("new"), "index must be stable")
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, 2, base.Len(), "base must not change")

	k, ok := o.Key(2)
	require.True(t, ok)
	assert.Equal(t, "new", k)

	k, ok = o.Key(1)
	require.True(t, ok)
	assert.Equal(t, "u2", k)

	_, ok = o.Key(9)
	assert.False(t, ok)
}
