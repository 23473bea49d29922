// Package reduce defines the thin dimensionality-reduction contract the
// classifier holds, along with the in-core identity reducer. Non-trivial
// reducers (e.g. PCA) are external collaborators that satisfy the same
// Reducer interface.
package reduce

import (
	"github.com/pkg/errors"

	"github.com/gomlx/knn/point"
)

// ErrInvalidArgument is wrapped by Fit when the supplied constructor panics
// or otherwise fails to produce a usable reducer.
var ErrInvalidArgument = errors.New("invalid argument")

// Reducer maps points of dimension Nin to points of dimension Nout. Once
// constructed (fitted), Reduce must be pure and deterministic.
type Reducer[T point.Numeric] interface {
	Reduce(p point.Point[T]) point.Point[T]
}

// Identity is the in-core reducer: Nin == Nout and Reduce returns its
// input unchanged.
type Identity[T point.Numeric] struct{}

// NewIdentity returns an Identity reducer. The positions argument exists
// only to satisfy the same single-pass-constructor shape every Reducer is
// built from; Identity ignores it.
func NewIdentity[T point.Numeric](positions []point.Point[T]) (Identity[T], error) {
	return Identity[T]{}, nil
}

// Reduce returns p unchanged.
func (Identity[T]) Reduce(p point.Point[T]) point.Point[T] {
	return p
}

// Constructor is the single-pass-sequence-consuming constructor shape any
// Reducer implementation exposes: it fits itself from the full stream of
// training positions and returns a ready-to-use Reducer.
type Constructor[T point.Numeric, R Reducer[T]] func(positions []point.Point[T]) (R, error)

// Fit invokes ctor with positions, recovering any panic raised by an
// external reducer implementation (e.g. a PCA adapter hitting a singular
// matrix) and reporting it as ErrInvalidArgument instead of crashing the
// caller, the same boundary every constructor in this package is held to.
func Fit[T point.Numeric, R Reducer[T]](ctor Constructor[T, R], positions []point.Point[T]) (reducer R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			reducer, err = zero, errors.Wrapf(ErrInvalidArgument, "reducer construction failed: %v", r)
		}
	}()

	r, ctorErr := ctor(positions)
	if ctorErr != nil {
		var zero R
		return zero, errors.Wrapf(ErrInvalidArgument, "reducer construction failed: %v", ctorErr)
	}
	return r, nil
}
