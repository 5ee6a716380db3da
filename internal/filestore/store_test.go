package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvshelf/kvshelf/internal/storagefs"
)

const testIndexSize = 4 * 64 // 64 slots

func openTestStore(t *testing.T, indexSize uint32) (*Store, storagefs.FS) {
	t.Helper()

	fsys := storagefs.NewMem()

	s, err := Open(fsys, "store.dat", Options{IndexSize: indexSize})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s, fsys
}

// S1 basic put/get, including a miss.
func Test_Store_S1_BasicPutGet(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, testIndexSize)

	require.NoError(t, s.Put([]byte("foo"), []byte("bar")))
	require.NoError(t, s.Put([]byte("baz"), []byte("qux")))

	got, err := s.Get([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), got)

	got, err = s.Get([]byte("baz"))
	require.NoError(t, err)
	assert.Equal(t, []byte("qux"), got)

	_, err = s.Get([]byte("absent"))
	assert.ErrorIs(t, err, ErrNotFound)
}

// S2 repeated overwrite within the original value's band must not grow
// the file.
func Test_Store_S2_OverwriteWithinBandDoesNotGrowFile(t *testing.T) {
	t.Parallel()

	s, fsys := openTestStore(t, testIndexSize)

	require.NoError(t, s.Put([]byte("foo"), []byte("aaaaaaaaaaaa")))

	info, err := fsys.Stat("store.dat")
	require.NoError(t, err)
	wantSize := info.Size()

	for _, v := range [][]byte{[]byte("bb"), []byte("cccccc"), []byte("eeeeeeeeeeeeeeeeeeee")} {
		require.NoError(t, s.Put([]byte("foo"), v))
	}

	info, err = fsys.Stat("store.dat")
	require.NoError(t, err)
	assert.Equal(t, wantSize, info.Size())

	got, err := s.Get([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("eeeeeeeeeeeeeeeeeeee"), got)
}

// S3 collision resolution with a single slot.
func Test_Store_S3_SingleSlotCollision(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, 4) // one slot

	require.NoError(t, s.Put([]byte("foo"), []byte("baz")))
	require.NoError(t, s.Put([]byte("foo"), []byte("qux")))
	require.NoError(t, s.Put([]byte("bar"), []byte("quux")))

	got, err := s.Get([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("qux"), got)

	got, err = s.Get([]byte("bar"))
	require.NoError(t, err)
	assert.Equal(t, []byte("quux"), got)
}

// S4 append + pop_head is FIFO.
func Test_Store_S4_AppendPopHeadIsFIFO(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, testIndexSize)

	require.NoError(t, s.Append([]byte("a"), []byte("x")))
	require.NoError(t, s.Append([]byte("a"), []byte("y")))
	require.NoError(t, s.Append([]byte("a"), []byte("z")))

	for _, want := range []string{"x", "y", "z"} {
		got, err := s.PopHead([]byte("a"))
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}

	_, err := s.PopHead([]byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)
}

// S5 append + pop_tail is LIFO.
func Test_Store_S5_AppendPopTailIsLIFO(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, testIndexSize)

	require.NoError(t, s.Append([]byte("a"), []byte("x")))
	require.NoError(t, s.Append([]byte("a"), []byte("y")))
	require.NoError(t, s.Append([]byte("a"), []byte("z")))

	for _, want := range []string{"z", "y", "x"} {
		got, err := s.PopTail([]byte("a"))
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

// S6 prepend then pop_head is LIFO on the head side.
func Test_Store_S6_PrependPopHeadIsLIFO(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, testIndexSize)

	require.NoError(t, s.Prepend([]byte("L"), []byte("A")))
	require.NoError(t, s.Prepend([]byte("L"), []byte("B")))
	require.NoError(t, s.Prepend([]byte("L"), []byte("C")))

	for _, want := range []string{"C", "B", "A"} {
		got, err := s.PopHead([]byte("L"))
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

// S7 a list overwritten by put behaves as a string afterward: the whole
// list is torn down, and a pop against the now-string key misses.
func Test_Store_S7_ListOverwrittenByPutBecomesString(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, testIndexSize)

	require.NoError(t, s.Append([]byte("k"), []byte("v1")))
	require.NoError(t, s.Put([]byte("k"), []byte("v2")))

	_, err := s.PopTail([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

// S8 a string overwritten by a list operation, under collision, becomes a
// list that keeps its place in the chain.
func Test_Store_S8_StringConvertedToListUnderCollision(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, 4) // one slot, everything collides

	require.NoError(t, s.Put([]byte("foo"), []byte("baz")))
	require.NoError(t, s.Put([]byte("bar"), []byte("qux")))
	require.NoError(t, s.Append([]byte("bar"), []byte("quux")))

	got, err := s.PopTail([]byte("bar"))
	require.NoError(t, err)
	assert.Equal(t, []byte("quux"), got)

	fooVal, err := s.Get([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("baz"), fooVal)
}

// S9 draining a list entirely with pop_head truncates the file back to
// just the header and index.
func Test_Store_S9_PopHeadDrainTruncatesToEmpty(t *testing.T) {
	t.Parallel()

	s, fsys := openTestStore(t, testIndexSize)

	const n = 5

	for i := 0; i < n; i++ {
		require.NoError(t, s.Append([]byte("k"), []byte{byte(i)}))
	}

	for i := 0; i < n; i++ {
		_, err := s.PopHead([]byte("k"))
		require.NoError(t, err)
	}

	info, err := fsys.Stat("store.dat")
	require.NoError(t, err)
	assert.EqualValues(t, headerLen+testIndexSize, info.Size())
}

// S10 persistence: data survives Close and a reopen without truncate.
func Test_Store_S10_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	fsys := storagefs.NewMem()

	s, err := Open(fsys, "store.dat", Options{IndexSize: testIndexSize})
	require.NoError(t, err)

	require.NoError(t, s.Put([]byte("alpha"), []byte("1")))
	require.NoError(t, s.Put([]byte("beta"), []byte("2")))
	require.NoError(t, s.Append([]byte("list"), []byte("x")))
	require.NoError(t, s.Append([]byte("list"), []byte("y")))
	require.NoError(t, s.Close())

	reopened, err := Open(fsys, "store.dat", Options{})
	require.NoError(t, err)

	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	got, err = reopened.Get([]byte("beta"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)

	got, err = reopened.PopHead([]byte("list"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func Test_Store_Put_RejectsKeyTooLong(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, testIndexSize)

	key := make([]byte, maxKeyLen+1)

	err := s.Put(key, []byte("v"))
	assert.ErrorIs(t, err, ErrKeyTooLong)
}

func Test_Store_FetchRemove_IsIdempotent(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, testIndexSize)

	require.NoError(t, s.Put([]byte("k"), []byte("v")))

	got, err := s.FetchRemove([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	_, err = s.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FetchRemove([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Store_Remove_LastKeyTruncatesToEmpty(t *testing.T) {
	t.Parallel()

	s, fsys := openTestStore(t, testIndexSize)

	require.NoError(t, s.Put([]byte("only"), []byte("v")))
	require.NoError(t, s.Remove([]byte("only")))

	info, err := fsys.Stat("store.dat")
	require.NoError(t, err)
	assert.EqualValues(t, headerLen+testIndexSize, info.Size())
}

func Test_Store_PopTail_OnSingletonListLeavesEmptyHeadAlive(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t, testIndexSize)

	require.NoError(t, s.Append([]byte("k"), []byte("only")))

	got, err := s.PopTail([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("only"), got)

	_, err = s.PopTail([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)

	// A further append reinitializes the emptied head rather than erroring.
	require.NoError(t, s.Append([]byte("k"), []byte("again")))

	got, err = s.PopTail([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("again"), got)
}
