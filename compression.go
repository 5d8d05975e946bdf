package multiscale

import (
	"io"

	"github.com/qri-io/dataset/compression"
)

// CompressionMeta identifies the primary compression codec applied to chunk
// data and its configuration parameters. The id names the codec; the
// remaining fields configure blosc-style codecs.
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// Decompressor wraps r with the codec named by the metadata.
func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	return compression.Decompressor(m.ID, r)
}
