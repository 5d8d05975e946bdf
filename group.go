package multiscale

import "fmt"

// ArraySpec is a declarative description of a single stored array: its shape,
// element type, chunk shape and the attributes it will carry, independent of
// the store that eventually realizes it. No sample data is involved.
type ArraySpec struct {
	Shape      []int            `json:"shape"`
	Dtype      Dtype            `json:"dtype"`
	Chunks     []int            `json:"chunks"`
	Attributes ArrayAttrs       `json:"attributes"`
	Compressor *CompressionMeta `json:"compressor,omitempty"`
	FillValue  interface{}      `json:"fill_value,omitempty"`
}

// GroupSpec is a complete description of a multiscale group, ready to be
// handed to Materialize: the group-level attribute document plus one
// ArraySpec per scale level, keyed by scale name. The member keys always
// equal the set of scale names referenced by the attributes. Rebuild the
// whole spec rather than patching either half.
type GroupSpec struct {
	Attributes GroupMetaV1          `json:"attributes"`
	Members    map[string]ArraySpec `json:"members"`
}

// ChunkPolicy selects the stored chunk shape assigned to each array of a
// group being built: either an explicit list, one chunk shape per array, or
// the automatic policy, which inherits an array's own chunking and falls
// back to a single chunk spanning the full shape for unchunked arrays. The
// zero value is the automatic policy.
type ChunkPolicy struct {
	explicit [][]int
}

// AutoChunks inherits each array's chunking, or its full shape if unchunked.
func AutoChunks() ChunkPolicy { return ChunkPolicy{} }

// ExplicitChunks assigns the given chunk shapes to the arrays 1:1, in order.
func ExplicitChunks(chunks ...[]int) ChunkPolicy { return ChunkPolicy{explicit: chunks} }

func (p ChunkPolicy) resolve(arrays []NamedArray) ([][]int, error) {
	n := len(arrays)
	if p.explicit != nil {
		if len(p.explicit) != n {
			return nil, fmt.Errorf("%w: %d chunk shapes for %d arrays",
				ErrPolicyLengthMismatch, len(p.explicit), n)
		}
		out := make([][]int, n)
		copy(out, p.explicit)
		return out, nil
	}

	out := make([][]int, n)
	for i, na := range arrays {
		if na.Array.Chunked() {
			out[i] = na.Array.Chunks
		} else {
			out[i] = na.Array.Shape
		}
	}
	return out, nil
}

// GroupOption configures array specs produced by MultiscaleGroup.
type GroupOption func(*groupOptions)

type groupOptions struct {
	name       *string
	compressor *CompressionMeta
	fillValue  interface{}
}

// WithName names the multiscale collection in the group attributes.
func WithName(name string) GroupOption {
	return func(o *groupOptions) { o.name = &name }
}

// WithCompressor sets the compressor recorded on every member array spec.
func WithCompressor(cm CompressionMeta) GroupOption {
	return func(o *groupOptions) { o.compressor = &cm }
}

// WithFillValue sets the fill value recorded on every member array spec.
func WithFillValue(v interface{}) GroupOption {
	return func(o *groupOptions) { o.fillValue = v }
}

// MultiscaleGroup models a COSEM-style multiscale group from an ordered
// collection of named arrays. Group attributes are built with
// GroupMetaV1FromArrays; each member spec carries its array's shape, dtype,
// the chunk shape resolved by the chunk policy, and the array's own
// transform as attributes.
func MultiscaleGroup(arrays []NamedArray, chunks ChunkPolicy, opts ...GroupOption) (GroupSpec, error) {
	o := &groupOptions{}
	for _, opt := range opts {
		opt(o)
	}

	resolved, err := chunks.resolve(arrays)
	if err != nil {
		return GroupSpec{}, err
	}

	attrs, err := GroupMetaV1FromArrays(arrays, o.name)
	if err != nil {
		return GroupSpec{}, err
	}

	members := make(map[string]ArraySpec, len(arrays))
	for i, na := range arrays {
		// the per-array transform repeats the one embedded in the group
		// attributes, so readers can interpret an array without its group
		t := attrs.Multiscales[0].Datasets[i].Transform
		members[na.Name] = ArraySpec{
			Shape:      na.Array.Shape,
			Dtype:      na.Array.Dtype,
			Chunks:     resolved[i],
			Attributes: ArrayAttrs{Transform: t},
			Compressor: o.compressor,
			FillValue:  o.fillValue,
		}
	}

	return GroupSpec{Attributes: attrs, Members: members}, nil
}
