package pyoframe

import (
	"errors"

	"github.com/eduardosalaz/pyoframe/table"
)

// Error taxonomy. Dimension mismatches are the only recoverable category:
// the caller can retry with an explicit drop or keep strategy. Binding and
// degree violations signal programming errors and are never coerced; solver
// failures pass through wrapped with the operation that triggered them.
var (
	// ErrDimensionMismatch wraps every unresolved unmatched-tuple failure;
	// the concrete error names the operation, dimensions and tuples.
	ErrDimensionMismatch = table.ErrMismatch

	// ErrDegree reports a multiplication whose result would exceed degree 2.
	ErrDegree = errors.New("degree violation: result would exceed quadratic")

	// ErrAlreadyBound reports a second attempt to attach an element to a model.
	ErrAlreadyBound = errors.New("element is already attached to a model")

	// ErrDuplicateName reports reuse of a variable or constraint name.
	ErrDuplicateName = errors.New("name already used on this model")

	// ErrObjectiveSet reports direct replacement of an existing objective.
	ErrObjectiveSet = errors.New("objective already set; use AddToObjective or SubFromObjective")

	// ErrRounding reports an integer-domain solution value that is not
	// integral within Config.IntegerTolerance.
	ErrRounding = errors.New("solution value is not integral within tolerance")

	// ErrDisposed reports use of a model after Dispose.
	ErrDisposed = errors.New("model has been disposed")

	// ErrNotBound reports use of an element that was never attached to a model.
	ErrNotBound = errors.New("element is not attached to a model")
)
