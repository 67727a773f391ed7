package vector

import (
	"errors"
	"fmt"
)

// ErrVectorIDNotFound is returned by Update when the id is not stored.
var ErrVectorIDNotFound = errors.New("vector id not found")

// DimensionMismatchError indicates a vector whose dimension differs from the
// collection (or the other operand) it is used with.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// IsDimensionMismatch reports whether err is or wraps a *DimensionMismatchError.
func IsDimensionMismatch(err error) bool {
	var dm *DimensionMismatchError
	return errors.As(err, &dm)
}
