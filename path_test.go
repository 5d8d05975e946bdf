package multiscale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBySuffix(t *testing.T) {
	container, inner, suffix, err := SplitBySuffix("s3://0/1/2.n5/3/4", []string{".n5"})
	require.NoError(t, err)
	assert.Equal(t, "s3://0/1/2.n5", container)
	assert.Equal(t, "3/4", inner)
	assert.Equal(t, ".n5", suffix)

	container, inner, suffix, err = SplitBySuffix("foo.zarr", []string{".zarr"})
	require.NoError(t, err)
	assert.Equal(t, "foo.zarr", container)
	assert.Equal(t, "", inner)
	assert.Equal(t, ".zarr", suffix)
}

func TestSplitBySuffixErrors(t *testing.T) {
	_, _, _, err := SplitBySuffix("foo.zarr/bar/baz.zarr", []string{".zarr"})
	assert.ErrorIs(t, err, ErrAmbiguousSuffix)

	_, _, _, err = SplitBySuffix("foo/bar", []string{".zarr"})
	assert.ErrorIs(t, err, ErrNoContainerSuffix)
}

func TestSplitBySuffixMultipleSuffixes(t *testing.T) {
	container, inner, suffix, err := SplitBySuffix("data/em.n5/volumes/raw", DefaultSuffixes)
	require.NoError(t, err)
	assert.Equal(t, "data/em.n5", container)
	assert.Equal(t, "volumes/raw", inner)
	assert.Equal(t, ".n5", suffix)
}

func TestNewPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"foo/bar", "foo/bar"},
		{"/foo/bar/", "foo/bar"},
		{"foo//bar", "foo/bar"},
		{"foo\\bar", "foo/bar"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NewPath(c.in).String(), "NewPath(%q)", c.in)
	}
}

func TestPathJoin(t *testing.T) {
	p := NewPath("a/b")
	joined := p.Join("c", ".zarray")
	assert.Equal(t, "a/b/c/.zarray", joined.String())
	// joining must not mutate the receiver
	assert.Equal(t, "a/b", p.String())
}
