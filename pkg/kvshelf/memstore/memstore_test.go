package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Memstore_PutGet_RoundTrips(t *testing.T) {
	t.Parallel()

	s := New()

	require.NoError(t, s.Put([]byte("k"), []byte("v")))

	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func Test_Memstore_Get_ReturnsNotFound_OnAbsentKey(t *testing.T) {
	t.Parallel()

	s := New()

	_, err := s.Get([]byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Memstore_AppendPopFirst_IsFIFO(t *testing.T) {
	t.Parallel()

	s := New()

	require.NoError(t, s.Append([]byte("a"), []byte("x")))
	require.NoError(t, s.Append([]byte("a"), []byte("y")))

	got, err := s.PopFirst([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	got, err = s.PopFirst([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), got)

	_, err = s.PopFirst([]byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Memstore_PutOnList_ConvertsToString(t *testing.T) {
	t.Parallel()

	s := New()

	require.NoError(t, s.Append([]byte("k"), []byte("v1")))
	require.NoError(t, s.Put([]byte("k"), []byte("v2")))

	_, err := s.Pop([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}
