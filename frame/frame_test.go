package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	f, err := New(Strings("user", "a", "b"), Floats("rating", 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, 2, f.NumColumns())
	assert.Equal(t, []string{"user", "rating"}, f.ColumnNames())

	c, ok := f.Lookup("rating")
	require.True(t, ok)
	assert.True(t, c.IsNumeric())

	assert.True(t, f.HasColumns("rating", "user"))
	assert.False(t, f.HasColumns("user"))

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := New(Strings("a", "x"), Strings("b"))
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := New(Strings("a"), Strings("a"))
		assert.ErrorIs(t, err, ErrDuplicateColumn)
	})

	t.Run("Nil", func(t *testing.T) {
		var f *Frame
		assert.Equal(t, 0, f.NumRows())
		assert.Equal(t, 0, f.NumColumns())
		_, ok := f.Lookup("x")
		assert.False(t, ok)
	})
}

func TestReadCSV(t *testing.T) {
	in := "user,item,rating\nu1,i1,4.5\nu2,i3,1\n"

	f, err := ReadCSV(strings.NewReader(in), "rating")
	require.NoError(t, err)
	require.Equal(t, 2, f.NumRows())

	users, _ := f.Lookup("user")
	assert.Equal(t, []string{"u1", "u2"}, users.Strings)

	ratings, _ := f.Lookup("rating")
	assert.Equal(t, []float64{4.5, 1}, ratings.Floats)

	t.Run("BadNumber", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("x\nabc\n"), "x")
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		f, err := ReadCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, 0, f.NumColumns())
	})
}
