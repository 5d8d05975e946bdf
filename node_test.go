package multiscale

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessModes(t *testing.T) {
	s := NewMemoryStore()

	_, err := Access(s, "missing", ModeRead)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = Access(s, "missing", ModeReadWrite)
	assert.ErrorIs(t, err, ErrNotFound)

	// "a" creates a group when nothing exists
	n, err := Access(s, "em", ModeAppend)
	require.NoError(t, err)
	assert.True(t, n.IsGroup())
	assert.False(t, n.IsArray())

	// and opens it on the next call
	n, err = Access(s, "em", ModeAppend)
	require.NoError(t, err)
	assert.True(t, n.IsGroup())

	// "w-" refuses to clobber
	_, err = Access(s, "em", ModeWriteFail)
	assert.ErrorIs(t, err, ErrExists)

	// "w" overwrites: the group becomes an array
	n, err = Access(s, "em", ModeWrite,
		WithShape(4, 4), WithDtype(MustDtype("<f8")))
	require.NoError(t, err)
	assert.True(t, n.IsArray())
	assert.Equal(t, []int{4, 4}, n.ArrayMeta().Shape)
	// chunks default to one chunk spanning the shape
	assert.Equal(t, []int{4, 4}, n.ArrayMeta().Chunks)

	_, err = Access(s, "em/sub", ModeWriteFail, WithShape(2))
	assert.Error(t, err, "array creation requires a dtype")
}

func TestAccessAttrs(t *testing.T) {
	s := NewMemoryStore()

	n, err := Access(s, "labels", ModeWriteFail, WithAttrs(Attributes{"source": "fibsem"}))
	require.NoError(t, err)
	assert.Equal(t, "fibsem", n.Attrs()["source"])

	n, err = Access(s, "labels", ModeRead)
	require.NoError(t, err)
	assert.Equal(t, "fibsem", n.Attrs()["source"])

	err = n.SetAttrs(Attributes{"source": "tem"})
	assert.Error(t, err, "read-only handles cannot write attributes")

	n, err = Access(s, "labels", ModeReadWrite)
	require.NoError(t, err)
	require.NoError(t, n.SetAttrs(Attributes{"source": "tem"}))

	n, err = Access(s, "labels", ModeRead)
	require.NoError(t, err)
	assert.Equal(t, "tem", n.Attrs()["source"])
}

func TestReadChunk(t *testing.T) {
	s := NewMemoryStore()

	n, err := Access(s, "raw", ModeWriteFail,
		WithShape(2, 4), WithDtype(MustDtype("<i4")), WithChunks(2, 2))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, []int32{1, 2, 3, 4}))
	require.NoError(t, s.Put("raw/0.1", buf))

	v, err := n.ReadChunk([]int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4}, v)

	_, err = n.ReadChunk([]int{0})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = n.ReadChunk([]int{1, 0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaterialize(t *testing.T) {
	s := NewMemoryStore()
	arrays := []NamedArray{
		{Name: "s0", Array: scaleLevel(0, 8)},
		{Name: "s1", Array: scaleLevel(1, 4)},
	}
	spec, err := MultiscaleGroup(arrays, AutoChunks(), WithName("em"))
	require.NoError(t, err)

	n, err := Materialize(s, "volumes/raw", spec)
	require.NoError(t, err)
	assert.True(t, n.IsGroup())

	keys, err := s.Keys("volumes/raw")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"volumes/raw/.zattrs",
		"volumes/raw/.zgroup",
		"volumes/raw/.zmetadata",
		"volumes/raw/s0/.zarray",
		"volumes/raw/s0/.zattrs",
		"volumes/raw/s1/.zarray",
		"volumes/raw/s1/.zattrs",
	}, keys)

	// group attributes round-trip through the store
	var groupAttrs GroupMetaV1
	readJSON(t, s, "volumes/raw/.zattrs", &groupAttrs)
	require.Len(t, groupAttrs.Multiscales, 1)
	assert.Equal(t, "em", *groupAttrs.Multiscales[0].Name)
	require.Len(t, groupAttrs.Multiscales[0].Datasets, 2)
	assert.Equal(t, "s0", groupAttrs.Multiscales[0].Datasets[0].Path)

	// member array definitions carry the spec's shape, dtype and chunks
	var s1Meta ArrayMeta
	readJSON(t, s, "volumes/raw/s1/.zarray", &s1Meta)
	assert.Equal(t, 2, s1Meta.ZarrFormat)
	assert.Equal(t, []int{4, 4, 4}, s1Meta.Shape)
	assert.Equal(t, []int{4, 4, 4}, s1Meta.Chunks)
	assert.Equal(t, "|u1", s1Meta.Dtype.String())
	assert.Equal(t, "C", s1Meta.Order)

	// member attributes carry the array's own transform
	var s1Attrs ArrayAttrs
	readJSON(t, s, "volumes/raw/s1/.zattrs", &s1Attrs)
	assert.Equal(t, []float64{8, 8, 8}, s1Attrs.Transform.Scale)

	// member arrays exist but carry no chunk data
	arr, err := Access(s, "volumes/raw/s0", ModeRead)
	require.NoError(t, err)
	assert.True(t, arr.IsArray())
	_, err = arr.ReadChunk([]int{0, 0, 0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaterializeConsolidated(t *testing.T) {
	s := NewMemoryStore()
	spec, err := MultiscaleGroup([]NamedArray{
		{Name: "s0", Array: scaleLevel(0, 4)},
	}, AutoChunks())
	require.NoError(t, err)

	_, err = Materialize(s, "em", spec)
	require.NoError(t, err)

	f, err := s.Get("em/.zmetadata")
	require.NoError(t, err)
	d, err := io.ReadAll(f)
	require.NoError(t, err)
	f.Close()

	cm := ConsolidatedMetadata{}
	require.NoError(t, json.Unmarshal(d, &cm))
	assert.Equal(t, 1, cm.ConsolidatedFormat)

	am, ok := cm.Metadata["s0/.zarray"].(*ArrayMeta)
	require.True(t, ok, "expected an array definition at s0/.zarray")
	assert.Equal(t, []int{4, 4, 4}, am.Shape)
	_, ok = cm.Metadata[".zgroup"].(GroupMeta)
	assert.True(t, ok, "expected a group marker at .zgroup")
	_, ok = cm.Metadata[".zattrs"].(Attributes)
	assert.True(t, ok, "expected group attributes at .zattrs")
}

func TestGroupMembers(t *testing.T) {
	s := NewMemoryStore()
	spec, err := MultiscaleGroup([]NamedArray{
		{Name: "s0", Array: scaleLevel(0, 4)},
		{Name: "s1", Array: scaleLevel(1, 2)},
	}, AutoChunks())
	require.NoError(t, err)

	n, err := Materialize(s, "em", spec)
	require.NoError(t, err)

	names, err := n.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"s0", "s1"}, names)
}

func TestDelete(t *testing.T) {
	s := NewMemoryStore()
	spec, err := MultiscaleGroup([]NamedArray{
		{Name: "s0", Array: scaleLevel(0, 4)},
	}, AutoChunks())
	require.NoError(t, err)

	_, err = Materialize(s, "a/b", spec)
	require.NoError(t, err)
	require.NoError(t, s.Put("keep", bytes.NewBufferString("x")))

	require.NoError(t, Delete(s, "a/b"))
	keys, err := s.Keys("a")
	require.NoError(t, err)
	assert.Empty(t, keys)
	_, err = s.Get("keep")
	assert.NoError(t, err)
}

func TestOpenURL(t *testing.T) {
	root := filepath.Join(t.TempDir(), "test.zarr")

	n, err := Open(root+"/volumes/raw", ModeWriteFail,
		WithShape(4), WithDtype(MustDtype("<f4")))
	require.NoError(t, err)
	assert.True(t, n.IsArray())

	n, err = Open(root+"/volumes/raw", ModeRead)
	require.NoError(t, err)
	assert.Equal(t, "<f4", n.ArrayMeta().Dtype.String())

	_, err = Open(filepath.Join(t.TempDir(), "plain")+"/x", ModeRead)
	assert.ErrorIs(t, err, ErrNoContainerSuffix)
}

func readJSON(t *testing.T, s Store, key string, v interface{}) {
	t.Helper()
	f, err := s.Get(key)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, json.NewDecoder(f).Decode(v))
}
