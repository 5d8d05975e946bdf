package multiscale

import "errors"

// Validation and lookup failures surfaced by this package. All of them are
// hard, synchronous errors: every operation here is a pure construction, so
// nothing is retried and no partial document is ever returned alongside one.
var (
	// ErrShapeMismatch signals that the per-axis sequences of a transform
	// (axes, units, translate, scale) do not share a single length.
	ErrShapeMismatch = errors.New("per-axis sequence lengths do not match")
	// ErrInsufficientSamples signals a coordinate with fewer than two
	// elements, from which no spacing can be inferred.
	ErrInsufficientSamples = errors.New("not enough coordinate samples to infer spacing")
	// ErrNonPositiveScale signals an inferred or supplied grid spacing that
	// is zero or negative.
	ErrNonPositiveScale = errors.New("grid spacing must be strictly positive")
	// ErrPolicyLengthMismatch signals an explicit chunk or path policy whose
	// length disagrees with the number of arrays it is applied to.
	ErrPolicyLengthMismatch = errors.New("policy length does not match array count")

	// ErrNoContainerSuffix signals a url with no recognized container suffix.
	ErrNoContainerSuffix = errors.New("no recognized container suffix in url")
	// ErrAmbiguousSuffix signals a url in which more than one path segment
	// carries a recognized container suffix.
	ErrAmbiguousSuffix = errors.New("ambiguous: multiple container suffixes in url")

	// ErrNotFound signals a missing store key or node.
	ErrNotFound = errors.New("not found")
	// ErrExists signals a node that already exists when the access mode
	// requires creating a fresh one.
	ErrExists = errors.New("already exists")
)
