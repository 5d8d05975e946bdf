package multiscale

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put("a/.zgroup", strings.NewReader(`{"zarr_format":2}`)))
	require.NoError(t, s.Put("a/s0/.zarray", strings.NewReader(`{}`)))
	require.NoError(t, s.Put("a/s0/0.0", strings.NewReader("chunk")))
	require.NoError(t, s.Put("ab", strings.NewReader("sibling")))

	f, err := s.Get("a/s0/0.0")
	require.NoError(t, err)
	d, err := io.ReadAll(f)
	require.NoError(t, err)
	f.Close()
	assert.Equal(t, "chunk", string(d))

	keys, err := s.Keys("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/.zgroup", "a/s0/.zarray", "a/s0/0.0"}, keys)

	// deleting a prefix removes descendants but not sibling keys
	require.NoError(t, s.Delete("a/s0"))
	keys, err = s.Keys("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/.zgroup"}, keys)

	_, err = s.Get("ab")
	require.NoError(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.Equal(t, MemoryStoreType, s.Type())
	testStore(t, s)
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, LocalStoreType, s.Type())
	testStore(t, s)
}
