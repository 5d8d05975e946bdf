package multiscale

import (
	"fmt"
	"strings"
)

// DefaultSuffixes are the container suffixes recognized when splitting urls.
var DefaultSuffixes = []string{".zarr", ".n5"}

// Path is a normalized logical path within a store, one element per level.
type Path []string

// NewPath parses a posix-style path. To ensure consistent behaviour across
// storage systems, logical paths are normalized: backward slashes become
// forward slashes, leading and trailing slashes are stripped, and runs of
// slashes collapse to one.
func NewPath(posix string) Path {
	posix = strings.ReplaceAll(posix, "\\", "/")
	parts := strings.Split(posix, "/")
	p := make(Path, 0, len(parts))
	for _, el := range parts {
		if el != "" {
			p = append(p, el)
		}
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) Join(elems ...string) Path {
	joined := make(Path, 0, len(p)+len(elems))
	joined = append(joined, p...)
	return append(joined, elems...)
}

// SplitBySuffix splits a composite url into the path of the containing store
// and the path within it. The container is the path segment ending in one of
// the recognized suffixes; everything after it is the internal path. Exactly
// one segment must carry a recognized suffix: zero matches fail with
// ErrNoContainerSuffix, more than one with ErrAmbiguousSuffix.
//
//	SplitBySuffix("s3://0/1/2.n5/3/4", []string{".n5"})
//	  -> ("s3://0/1/2.n5", "3/4", ".n5")
func SplitBySuffix(url string, suffixes []string) (container, inner, suffix string, err error) {
	segments := strings.Split(url, "/")

	matchIdx := -1
	for i, seg := range segments {
		for _, sfx := range suffixes {
			if strings.HasSuffix(seg, sfx) && seg != sfx {
				if matchIdx >= 0 {
					return "", "", "", fmt.Errorf("%w: %q", ErrAmbiguousSuffix, url)
				}
				matchIdx = i
				suffix = sfx
			}
		}
	}
	if matchIdx < 0 {
		return "", "", "", fmt.Errorf("%w: %q", ErrNoContainerSuffix, url)
	}

	container = strings.Join(segments[:matchIdx+1], "/")
	inner = strings.Join(segments[matchIdx+1:], "/")
	return container, inner, suffix, nil
}
