package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomlx/knn/point"
)

func TestDistanceSelfAndSymmetry(t *testing.T) {
	for _, p := range []int{1, 2, 3, 4, 5} {
		m := Metric[float64]{P: p}
		a := point.New(1.0, -2.0, 3.5)
		b := point.New(-4.0, 0.0, 2.0)

		require.InDelta(t, 0, m.Distance(a, a), 1e-9)
		require.InDelta(t, m.Distance(a, b), m.Distance(b, a), 1e-9)
	}
}

func TestEuclideanDistance(t *testing.T) {
	m := Euclidean[float64]()
	a := point.New(0.0, 0.0)
	b := point.New(3.0, 4.0)
	require.InDelta(t, 5.0, m.Distance(a, b), 1e-9)
}

func TestManhattanDistance(t *testing.T) {
	m := Manhattan[float64]()
	a := point.New(0.0, 0.0)
	b := point.New(3.0, 4.0)
	require.InDelta(t, 7.0, m.Distance(a, b), 1e-9)
}

func TestManhattanVsEuclideanDiverge(t *testing.T) {
	query := point.New(1.0, 1.0)
	x := point.New(0.0, 0.0)
	y := point.New(3.0, 4.0)
	z := point.New(5.0, 0.0)

	man := Manhattan[float64]()
	euc := Euclidean[float64]()

	require.InDelta(t, 2.0, man.Distance(query, x), 1e-9)
	require.InDelta(t, 5.0, man.Distance(query, y), 1e-9)
	require.InDelta(t, 5.0, man.Distance(query, z), 1e-9)

	require.InDelta(t, math.Sqrt(2), euc.Distance(query, x), 1e-9)
	require.InDelta(t, math.Sqrt(13), euc.Distance(query, y), 1e-9)
	require.InDelta(t, math.Sqrt(17), euc.Distance(query, z), 1e-9)
}

func TestIntersectsSearchSpaceConservative(t *testing.T) {
	box := point.Hyperbox[float64]{Lo: point.New(0.0, 0.0), Hi: point.New(10.0, 10.0)}
	m := Euclidean[float64]()

	// Center inside the box: always intersects for any r >= 0.
	require.True(t, m.IntersectsSearchSpace(box, point.New(5.0, 5.0), 0))

	// Center far outside: small radius must not falsely intersect.
	far := point.New(100.0, 100.0)
	require.False(t, m.IntersectsSearchSpace(box, far, 1.0))

	// A radius large enough to reach the nearest corner must intersect.
	distToCorner := m.Distance(far, point.New(10.0, 10.0))
	require.True(t, m.IntersectsSearchSpace(box, far, distToCorner))
	require.True(t, m.IntersectsSearchSpace(box, far, distToCorner+1))
}

func TestIntersectsSearchSpaceNoFalseNegatives(t *testing.T) {
	// Property: if a point q in the box is within r of center, the box
	// predicate must return true. We sample points within the box and
	// confirm the predicate agrees whenever the true distance is <= r.
	box := point.Hyperbox[float64]{Lo: point.New(-1.0, -1.0), Hi: point.New(1.0, 1.0)}
	m := Euclidean[float64]()
	center := point.New(5.0, 0.0)

	samples := []point.Point[float64]{
		point.New(1.0, 0.0),
		point.New(1.0, 1.0),
		point.New(-1.0, -1.0),
		point.New(0.0, 0.0),
	}
	for _, q := range samples {
		d := m.Distance(center, q)
		require.True(t, m.IntersectsSearchSpace(box, center, d),
			"predicate must not false-negative for q=%v at distance %v", q, d)
	}
}
