package multiscale

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// DefaultUnit is assumed for coordinates that carry no unit annotation.
const DefaultUnit = "m"

// Order is the array indexing convention assumed by the per-axis fields of a
// Transform. Tools in the N5 ecosystem express axes in column-major order,
// contrary to the row-major order native to most array libraries. Carrying
// the convention on the transform lets an N5-based tool express a scaling +
// translation in its own axis order while remaining readable elsewhere.
type Order string

const (
	// RowMajor lists axes from slowest-varying to fastest-varying.
	RowMajor Order = "row-major"
	// ColumnMajor lists axes in the reverse of RowMajor.
	ColumnMajor Order = "column-major"
)

// Coordinate is a labelled one-dimensional coordinate grid along a single
// named axis.
type Coordinate struct {
	// Dim names the axis this coordinate varies along.
	Dim string
	// Unit annotates the coordinate values. An empty unit is read as
	// DefaultUnit during inference.
	Unit string
	// Values holds one coordinate per sample along the axis.
	Values []float64
}

// Transform is an N-dimensional scaling -> translation transform for labelled
// axes with units. When converting an array index into a coordinate, scaling
// applies before translation. Transforms are immutable values: construct a
// new one rather than mutating fields in place.
type Transform struct {
	Order     Order     `json:"order" validate:"oneof=row-major column-major"`
	Axes      []string  `json:"axes"`
	Units     []string  `json:"units"`
	Translate []float64 `json:"translate"`
	Scale     []float64 `json:"scale"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(transformStructLevel, Transform{})
}

// The four per-axis sequences must describe the same set of axes, so their
// lengths must agree.
func transformStructLevel(sl validator.StructLevel) {
	t := sl.Current().Interface().(Transform)
	n := len(t.Axes)
	if len(t.Units) != n || len(t.Translate) != n || len(t.Scale) != n {
		sl.ReportError(t.Axes, "Axes", "axes", "eqlength", "")
	}
}

// NewTransform constructs a validated Transform. An empty order defaults to
// RowMajor. Mismatched sequence lengths fail with ErrShapeMismatch.
// Positivity of scale values is deliberately not checked here: inference
// enforces it, while hand-built transforms are taken at face value.
func NewTransform(axes, units []string, translate, scale []float64, order Order) (Transform, error) {
	if order == "" {
		order = RowMajor
	}
	t := Transform{
		Order:     order,
		Axes:      axes,
		Units:     units,
		Translate: translate,
		Scale:     scale,
	}
	if err := t.Validate(); err != nil {
		return Transform{}, err
	}
	return t, nil
}

// Validate checks the cross-field invariants of a Transform. Useful for
// transforms decoded from JSON attributes, which bypass NewTransform.
func (t Transform) Validate() error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "eqlength":
				return fmt.Errorf("%w: len(axes) = %d, len(units) = %d, len(translate) = %d, len(scale) = %d",
					ErrShapeMismatch, len(t.Axes), len(t.Units), len(t.Translate), len(t.Scale))
			case "oneof":
				return fmt.Errorf("invalid order %q: must be %q or %q", t.Order, RowMajor, ColumnMajor)
			}
		}
	}
	return err
}

// Ndim returns the number of axes the transform describes.
func (t Transform) Ndim() int { return len(t.Axes) }

// ToCoords returns a bounded coordinate grid derived from this transform, one
// Coordinate per axis, with values translate[i] + k*scale[i]. shape gives the
// number of samples along each emitted coordinate, in emission order.
//
// A row-major transform emits axes in listed order. A column-major transform
// emits them reversed, each axis keeping its own scale, translate and unit,
// so that inference with the same order recovers the original transform.
func (t Transform) ToCoords(shape []int) ([]Coordinate, error) {
	if len(shape) != t.Ndim() {
		return nil, fmt.Errorf("%w: transform has %d axes but shape has %d dimensions",
			ErrShapeMismatch, t.Ndim(), len(shape))
	}

	coords := make([]Coordinate, t.Ndim())
	for pos := range coords {
		i := pos
		if t.Order == ColumnMajor {
			i = t.Ndim() - 1 - pos
		}
		vals := make([]float64, shape[pos])
		for k := range vals {
			vals[k] = t.Translate[i] + float64(k)*t.Scale[i]
		}
		coords[pos] = Coordinate{Dim: t.Axes[i], Unit: t.Units[i], Values: vals}
	}
	return coords, nil
}

// TransformFromCoords infers a Transform from labelled coordinates. This is
// the single place the axis-order convention is applied: when order is
// ColumnMajor the coordinate list is read in reverse, so that the resulting
// transform lists axes in the convention it is tagged with.
//
// Per coordinate: the axis name is the coordinate's dim, the unit is its
// annotation (DefaultUnit if absent), translate is the first value and scale
// is the absolute difference of the first two values. Only the first two
// samples are inspected; uniform spacing of the rest is an assumption of the
// caller, not a checked invariant.
//
// Fails with ErrInsufficientSamples when a coordinate has fewer than two
// elements, and with ErrNonPositiveScale when the leading samples coincide.
func TransformFromCoords(coords []Coordinate, order Order) (Transform, error) {
	if order == "" {
		order = RowMajor
	}

	n := len(coords)
	axes := make([]string, n)
	units := make([]string, n)
	translate := make([]float64, n)
	scale := make([]float64, n)

	for pos := range coords {
		c := coords[pos]
		if len(c.Values) < 2 {
			return Transform{}, fmt.Errorf("%w: coordinate %q has %d elements, need at least 2",
				ErrInsufficientSamples, c.Dim, len(c.Values))
		}

		i := pos
		if order == ColumnMajor {
			i = n - 1 - pos
		}

		axes[i] = c.Dim
		units[i] = c.Unit
		if units[i] == "" {
			units[i] = DefaultUnit
		}
		translate[i] = c.Values[0]
		scale[i] = math.Abs(c.Values[1] - c.Values[0])
		if scale[i] <= 0 {
			return Transform{}, fmt.Errorf("%w: coordinate %q starts with duplicate values",
				ErrNonPositiveScale, c.Dim)
		}
	}

	return NewTransform(axes, units, translate, scale, order)
}

// TransformFromArray infers a Transform from an array's coordinates. When
// reverseAxes is true the transform lists axes reversed relative to the
// array's own dimension order and is tagged ColumnMajor, for compatibility
// with N5 tools; the array itself is left untouched.
func TransformFromArray(arr DataArray, reverseAxes bool) (Transform, error) {
	order := RowMajor
	if reverseAxes {
		order = ColumnMajor
	}
	return TransformFromCoords(arr.Coords, order)
}
