// Package point implements the fixed-dimension numeric tuple used throughout
// the kd-tree and classifier packages, and the axis-aligned bounding box
// built on top of it.
package point

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Numeric is the set of scalar types a Point may hold.
type Numeric interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Point is a fixed-length tuple of N scalars of type T, stored as a flat
// slice. The length is fixed at construction and never changes; Points are
// cheap to copy by value because the Go runtime copies the slice header,
// while construction helpers always clone the backing array so mutating one
// Point never observably mutates another. The one exception is
// Hyperbox.ScopedSplit, which overwrites a coordinate of the box's own Lo or
// Hi in place: copies of that box or of its corners share the change until
// the returned restore function runs.
type Point[T Numeric] struct {
	coords []T
}

// New returns a Point with the given coordinates. The input is cloned.
func New[T Numeric](coords ...T) Point[T] {
	cp := make([]T, len(coords))
	copy(cp, coords)
	return Point[T]{coords: cp}
}

// Fill returns a Point of dimension n with every axis set to v.
func Fill[T Numeric](n int, v T) Point[T] {
	coords := make([]T, n)
	for i := range coords {
		coords[i] = v
	}
	return Point[T]{coords: coords}
}

// Dim returns the number of axes.
func (p Point[T]) Dim() int { return len(p.coords) }

// At returns the coordinate on the given axis.
func (p Point[T]) At(axis int) T { return p.coords[axis] }

// Set returns a copy of p with axis set to v.
func (p Point[T]) Set(axis int, v T) Point[T] {
	cp := p.Clone()
	cp.coords[axis] = v
	return cp
}

// Clone returns a Point with its own backing array.
func (p Point[T]) Clone() Point[T] {
	cp := make([]T, len(p.coords))
	copy(cp, p.coords)
	return Point[T]{coords: cp}
}

// Raw exposes the underlying coordinates. Callers must not mutate the
// returned slice; use Clone first if a mutable copy is needed.
func (p Point[T]) Raw() []T { return p.coords }

// Sub returns p - q, elementwise. Panics if dimensions differ.
func (p Point[T]) Sub(q Point[T]) Point[T] {
	if len(p.coords) != len(q.coords) {
		panic(errors.Errorf("cannot subtract points of dimension %d and %d", len(p.coords), len(q.coords)))
	}
	out := make([]T, len(p.coords))
	for i := range out {
		out[i] = p.coords[i] - q.coords[i]
	}
	return Point[T]{coords: out}
}

// AbsPow returns, elementwise, |p[i]|^n.
func (p Point[T]) AbsPow(n int) Point[T] {
	out := make([]T, len(p.coords))
	for i, v := range p.coords {
		out[i] = absPow(v, n)
	}
	return Point[T]{coords: out}
}

func absPow[T Numeric](v T, n int) T {
	if v < 0 {
		v = -v
	}
	var result T = 1
	for range n {
		result *= v
	}
	return result
}

// String implements fmt.Stringer for debugging, matching the teacher's
// bracketed-coordinate dump style.
func (p Point[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range p.coords {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v", v)
	}
	sb.WriteByte(']')
	return sb.String()
}
