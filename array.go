package multiscale

import "fmt"

// DataArray is an in-memory description of an axis-labelled N-dimensional
// array: the shape, element type and chunking of the data, plus one labelled
// coordinate grid per dimension. It carries no sample data. The coordinate
// list follows the array's native (row-major) dimension order.
type DataArray struct {
	// Shape lists the length of each dimension.
	Shape []int
	// Dtype is a NumPy typestr describing the element type, e.g. "<f8".
	Dtype Dtype
	// Chunks is the chunk shape of the underlying data, or nil when the
	// data is not chunked.
	Chunks []int
	// Coords holds one Coordinate per dimension, in dimension order.
	Coords []Coordinate
	// Attrs carries free-form userland metadata.
	Attrs Attributes
}

// NamedArray pairs a scale name, used as the array's storage path within a
// multiscale group, with the array it names.
type NamedArray struct {
	Name  string
	Array DataArray
}

// Chunked reports whether the array's underlying data carries a chunk shape.
func (a DataArray) Chunked() bool { return len(a.Chunks) > 0 }

// NewDataArray builds a DataArray whose coordinates are derived from a
// transform. shape is given in the array's storage order; for a column-major
// transform that is the reverse of the transform's axis order.
func NewDataArray(t Transform, shape []int, dtype Dtype) (DataArray, error) {
	coords, err := t.ToCoords(shape)
	if err != nil {
		return DataArray{}, err
	}
	return DataArray{Shape: shape, Dtype: dtype, Coords: coords}, nil
}

// Dims returns the dimension names of the array, in storage order.
func (a DataArray) Dims() []string {
	dims := make([]string, len(a.Coords))
	for i, c := range a.Coords {
		dims[i] = c.Dim
	}
	return dims
}

// validateCoords checks that the coordinate grids agree with the shape.
func (a DataArray) validateCoords() error {
	if len(a.Coords) != len(a.Shape) {
		return fmt.Errorf("%w: array has %d dimensions but %d coordinates",
			ErrShapeMismatch, len(a.Shape), len(a.Coords))
	}
	for i, c := range a.Coords {
		if len(c.Values) != a.Shape[i] {
			return fmt.Errorf("%w: coordinate %q has %d values for a dimension of length %d",
				ErrShapeMismatch, c.Dim, len(c.Values), a.Shape[i])
		}
	}
	return nil
}
