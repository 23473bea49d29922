package point

import "github.com/pkg/errors"

// ErrAxisOutOfRange is returned when a Hyperbox operation is given an axis
// index outside [0, Dim).
var ErrAxisOutOfRange = errors.New("axis index out of range for hyperbox")

// Hyperbox is an axis-aligned bounding box described by two corner points,
// with the invariant Lo[i] <= Hi[i] for every axis i.
type Hyperbox[T Numeric] struct {
	Lo, Hi Point[T]
}

// Of returns the tight bounding box over points. Panics if points is empty.
func Of[T Numeric](points []Point[T]) Hyperbox[T] {
	if len(points) == 0 {
		panic(errors.New("cannot compute bounding box of an empty point set"))
	}
	dim := points[0].Dim()
	lo := points[0].Clone()
	hi := points[0].Clone()
	for _, p := range points[1:] {
		for axis := range dim {
			v := p.At(axis)
			if v < lo.coords[axis] {
				lo.coords[axis] = v
			}
			if v > hi.coords[axis] {
				hi.coords[axis] = v
			}
		}
	}
	return Hyperbox[T]{Lo: lo, Hi: hi}
}

// Dim returns the box's dimensionality.
func (b Hyperbox[T]) Dim() int { return b.Lo.Dim() }

// Contains reports whether every axis of p falls within [Lo[i], Hi[i]].
func (b Hyperbox[T]) Contains(p Point[T]) bool {
	for axis := range b.Dim() {
		if p.At(axis) < b.Lo.At(axis) || p.At(axis) > b.Hi.At(axis) {
			return false
		}
	}
	return true
}

// Overlaps reports whether no axis separates b from other.
func (b Hyperbox[T]) Overlaps(other Hyperbox[T]) bool {
	for axis := range b.Dim() {
		if other.Lo.At(axis) > b.Hi.At(axis) || other.Hi.At(axis) < b.Lo.At(axis) {
			return false
		}
	}
	return true
}

func checkAxis(axis, dim int) error {
	if axis < 0 || axis >= dim {
		return errors.Wrapf(ErrAxisOutOfRange, "cannot split axis %d of a %d-dimensional hyperbox", axis, dim)
	}
	return nil
}

func clamp[T Numeric](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Split returns the two boxes meeting at the plane axis=value, clamped to
// stay within b so the lo<=hi invariant is preserved.
func (b Hyperbox[T]) Split(axis int, value T) (left, right Hyperbox[T], err error) {
	if err := checkAxis(axis, b.Dim()); err != nil {
		return Hyperbox[T]{}, Hyperbox[T]{}, err
	}
	value = clamp(value, b.Lo.At(axis), b.Hi.At(axis))
	left = Hyperbox[T]{Lo: b.Lo.Clone(), Hi: b.Hi.Set(axis, value)}
	right = Hyperbox[T]{Lo: b.Lo.Set(axis, value), Hi: b.Hi.Clone()}
	return left, right, nil
}

// Side selects which half of a split ScopedSplit narrows a box to.
type Side int

const (
	// LeftSide lowers Hi[axis] to the clamped split value.
	LeftSide Side = iota
	// RightSide raises Lo[axis] to the clamped split value.
	RightSide
)

// ScopedSplit narrows b in place along axis to the left half (side
// LeftSide) or right half (side RightSide) of the split at value, and
// returns a restore function that must be called to undo the mutation
// before the sibling half is visited.
//
// This gives zero-allocation traversal: only the single scalar at
// Lo.coords[axis]/Hi.coords[axis] is overwritten and later restored, rather
// than allocating two new Hyperbox values per level as Split does.
func (b *Hyperbox[T]) ScopedSplit(axis int, value T, side Side) (restore func(), err error) {
	if err := checkAxis(axis, b.Dim()); err != nil {
		return func() {}, err
	}
	value = clamp(value, b.Lo.At(axis), b.Hi.At(axis))
	switch side {
	case LeftSide:
		original := b.Hi.coords[axis]
		b.Hi.coords[axis] = value
		return func() { b.Hi.coords[axis] = original }, nil
	case RightSide:
		original := b.Lo.coords[axis]
		b.Lo.coords[axis] = value
		return func() { b.Lo.coords[axis] = original }, nil
	default:
		return func() {}, errors.Errorf("unknown split side %d", side)
	}
}
