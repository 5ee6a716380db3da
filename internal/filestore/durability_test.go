package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvshelf/kvshelf/internal/storagefs"
)

// A failed fsync on a mutating call surfaces to the caller instead of
// being swallowed.
func Test_Store_Put_SurfacesFsyncFailure(t *testing.T) {
	t.Parallel()

	mem := storagefs.NewMem()
	fault := storagefs.NewFault(mem)

	s, err := Open(fault, "store.dat", Options{IndexSize: testIndexSize})
	require.NoError(t, err)

	defer func() { _ = s.Close() }()

	fault.FailNextSync = true

	err = s.Put([]byte("k"), []byte("v"))
	require.Error(t, err)
	assert.True(t, storagefs.IsInjected(err))
}

// A write failure partway through a new record surfaces as an error and
// does not silently corrupt the in-memory ref count.
func Test_Store_Put_SurfacesWriteFailure(t *testing.T) {
	t.Parallel()

	mem := storagefs.NewMem()
	fault := storagefs.NewFault(mem)

	s, err := Open(fault, "store.dat", Options{IndexSize: testIndexSize})
	require.NoError(t, err)

	defer func() { _ = s.Close() }()

	fault.FailWriteAfter = 1 // fail the very next Write call

	err = s.Put([]byte("k"), []byte("v"))
	require.Error(t, err)
	assert.True(t, storagefs.IsInjected(err))

	// A clean retry after the one-shot fault resets must still work.
	require.NoError(t, s.Put([]byte("k"), []byte("v")))

	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
