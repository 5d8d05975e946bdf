package multiscale

import "fmt"

// ScaleMeta pairs the relative storage path of one scale level with the
// transform describing its geometry.
type ScaleMeta struct {
	Path      string    `json:"path"`
	Transform Transform `json:"transform"`
}

// MultiscaleMetaV1 is one multiscale entry in a v1 group attribute document:
// a named, ordered list of scale descriptors, conventionally running from
// full resolution to coarsest.
type MultiscaleMetaV1 struct {
	Name     *string     `json:"name"`
	Datasets []ScaleMeta `json:"datasets"`
}

// MultiscaleMetaV2 is one multiscale entry in a v2 group attribute document.
// It lists only the paths of the scale levels; transforms live on each
// array's own attributes. v2 carries strictly less information at the group
// level than v1 and is retained for reading existing data only.
type MultiscaleMetaV2 struct {
	Name     *string  `json:"name"`
	Datasets []string `json:"datasets"`
}

// GroupMetaV1 is the v1 multiscale group attribute document used by COSEM
// for multiscale datasets saved in N5/Zarr groups.
//
// Deprecated: superseded by the cellmap multiscale group schema. Retained
// for compatibility with existing data.
type GroupMetaV1 struct {
	Multiscales []MultiscaleMetaV1 `json:"multiscales"`
}

// GroupMetaV2 is the v2 multiscale group attribute document.
//
// Deprecated: legacy, read-only. Do not write new data with it.
type GroupMetaV2 struct {
	Multiscales []MultiscaleMetaV2 `json:"multiscales"`
}

// ArrayAttrs is the attribute document stored on each array of a multiscale
// group, carrying the array's own transform.
type ArrayAttrs struct {
	Transform Transform `json:"transform"`
}

// GroupMetaV1FromArrays generates v1 multiscale metadata from an ordered
// collection of arrays. The arrays are assumed to share dimension names,
// albeit with varying coordinates. Each array's name becomes the path of its
// scale descriptor, and its transform is inferred from its coordinates in
// row-major order. name, which may be nil, names the multiscale collection.
func GroupMetaV1FromArrays(arrays []NamedArray, name *string) (GroupMetaV1, error) {
	datasets := make([]ScaleMeta, len(arrays))
	for i, na := range arrays {
		if err := na.Array.validateCoords(); err != nil {
			return GroupMetaV1{}, fmt.Errorf("array %q: %w", na.Name, err)
		}
		t, err := TransformFromArray(na.Array, false)
		if err != nil {
			return GroupMetaV1{}, fmt.Errorf("array %q: %w", na.Name, err)
		}
		datasets[i] = ScaleMeta{Path: na.Name, Transform: t}
	}

	return GroupMetaV1{
		Multiscales: []MultiscaleMetaV1{{Name: name, Datasets: datasets}},
	}, nil
}

// GroupMetaV2FromArrays generates v2 multiscale metadata from an ordered
// collection of arrays. paths assigns a storage path to each array; the
// automatic policy names them s0, s1, ... in input order, with s0
// conventionally the full-resolution level (the builder does not verify
// decreasing resolution). Transforms are not embedded: callers writing v2
// data must attach each array's transform to the array's own attributes.
func GroupMetaV2FromArrays(arrays []DataArray, paths PathPolicy, name *string) (GroupMetaV2, error) {
	resolved, err := paths.resolve(len(arrays))
	if err != nil {
		return GroupMetaV2{}, err
	}

	return GroupMetaV2{
		Multiscales: []MultiscaleMetaV2{{Name: name, Datasets: resolved}},
	}, nil
}

// PathPolicy selects the storage path assigned to each array of a multiscale
// collection: either an explicit list, one path per array, or the automatic
// s0..s{n-1} naming scheme. The zero value is the automatic policy.
type PathPolicy struct {
	explicit []string
}

// AutoPaths names arrays s0, s1, ... in input order.
func AutoPaths() PathPolicy { return PathPolicy{} }

// ExplicitPaths assigns the given paths to the arrays 1:1, in order.
func ExplicitPaths(paths ...string) PathPolicy { return PathPolicy{explicit: paths} }

func (p PathPolicy) resolve(n int) ([]string, error) {
	if p.explicit == nil {
		auto := make([]string, n)
		for i := range auto {
			auto[i] = fmt.Sprintf("s%d", i)
		}
		return auto, nil
	}
	if len(p.explicit) != n {
		return nil, fmt.Errorf("%w: %d paths for %d arrays", ErrPolicyLengthMismatch, len(p.explicit), n)
	}
	out := make([]string, n)
	copy(out, p.explicit)
	return out, nil
}
