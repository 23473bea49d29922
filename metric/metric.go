// Package metric implements the Minkowski-p distance family and the
// conservative box/ball intersection test used to prune kd-tree traversal.
package metric

import (
	"math"

	"github.com/gomlx/knn/point"
)

// Metric is a Minkowski-p distance of order P over points of coordinate
// type T. P must be >= 1.
type Metric[T point.Numeric] struct {
	P int
}

// Manhattan is the L1 (P=1) metric.
func Manhattan[T point.Numeric]() Metric[T] { return Metric[T]{P: 1} }

// Euclidean is the L2 (P=2) metric.
func Euclidean[T point.Numeric]() Metric[T] { return Metric[T]{P: 2} }

// constAbsPow raises |x| to the integer power p, using specialized forms
// for the common small exponents and falling back to math.Pow otherwise.
func constAbsPow(x float64, p int) float64 {
	if x < 0 {
		x = -x
	}
	switch p {
	case 1:
		return x
	case 2:
		return x * x
	case 3:
		return x * x * x
	case 4:
		xx := x * x
		return xx * xx
	default:
		return math.Pow(x, float64(p))
	}
}

// constRoot returns x^(1/p), using specialized forms for the common small
// exponents.
func constRoot(x float64, p int) float64 {
	switch p {
	case 1:
		return x
	case 2:
		return math.Sqrt(x)
	case 3:
		return math.Cbrt(x)
	case 4:
		return math.Sqrt(math.Sqrt(x))
	default:
		return math.Pow(x, 1.0/float64(p))
	}
}

// Distance returns the L_p norm of a-b.
func (m Metric[T]) Distance(a, b point.Point[T]) float64 {
	diff := a.Sub(b)
	var sum float64
	for axis := range diff.Dim() {
		sum += constAbsPow(float64(diff.At(axis)), m.P)
	}
	return constRoot(sum, m.P)
}

// IntersectsSearchSpace reports whether the closed ball of radius r around
// center intersects box, under the L_p metric. It is a conservative
// over-approximation: it may return true for boxes the ball does not
// actually reach, but it never returns false when the ball does reach the
// box. This is what makes it safe to use as a kd-tree traversal pruning
// predicate -- see kdtree.KdTree.Walk.
func (m Metric[T]) IntersectsSearchSpace(box point.Hyperbox[T], center point.Point[T], r float64) bool {
	budget := constAbsPow(r, m.P)
	for axis := range box.Dim() {
		c := float64(center.At(axis))
		lo := float64(box.Lo.At(axis))
		hi := float64(box.Hi.At(axis))
		var shortfall float64
		switch {
		case c < lo:
			shortfall = c - lo
		case c > hi:
			shortfall = c - hi
		default:
			continue
		}
		budget -= constAbsPow(shortfall, m.P)
		if budget < 0 {
			return false
		}
	}
	return budget >= 0
}
