package point

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointSubAndAbsPow(t *testing.T) {
	a := New(1.0, 2.0, 3.0)
	b := New(3.0, 0.0, 3.0)
	diff := a.Sub(b)
	require.Equal(t, []float64{-2, 2, 0}, diff.Raw())

	sq := diff.AbsPow(2)
	require.Equal(t, []float64{4, 4, 0}, sq.Raw())
}

func TestPointFillAndSet(t *testing.T) {
	p := Fill[int32](3, 7)
	require.Equal(t, []int32{7, 7, 7}, p.Raw())

	p2 := p.Set(1, 9)
	require.Equal(t, []int32{7, 9, 7}, p2.Raw())
	// Original must be unmutated.
	require.Equal(t, []int32{7, 7, 7}, p.Raw())
}

func TestPointCloneIsIndependent(t *testing.T) {
	p := New[int32](1, 2, 3)
	cp := p.Clone()
	cp = cp.Set(0, 99)
	require.Equal(t, int32(1), p.At(0))
	require.Equal(t, int32(99), cp.At(0))
}

func TestHyperboxContainsAndOverlaps(t *testing.T) {
	box := Hyperbox[float64]{Lo: New(0.0, 0.0), Hi: New(10.0, 10.0)}
	require.True(t, box.Contains(New(5.0, 5.0)))
	require.True(t, box.Contains(New(0.0, 10.0)))
	require.False(t, box.Contains(New(-1.0, 5.0)))

	other := Hyperbox[float64]{Lo: New(5.0, 5.0), Hi: New(15.0, 15.0)}
	require.True(t, box.Overlaps(other))

	disjoint := Hyperbox[float64]{Lo: New(20.0, 20.0), Hi: New(30.0, 30.0)}
	require.False(t, box.Overlaps(disjoint))
}

func TestHyperboxOf(t *testing.T) {
	pts := []Point[float64]{New(2.0, 3.0), New(9.0, 1.0), New(-1.0, 5.0)}
	box := Of(pts)
	require.Equal(t, []float64{-1, 1}, box.Lo.Raw())
	require.Equal(t, []float64{9, 5}, box.Hi.Raw())
}

func TestHyperboxSplitClampsAndPreservesInvariant(t *testing.T) {
	box := Hyperbox[float64]{Lo: New(0.0, 0.0), Hi: New(10.0, 10.0)}

	left, right, err := box.Split(0, 4.0)
	require.NoError(t, err)
	require.Equal(t, 4.0, left.Hi.At(0))
	require.Equal(t, 4.0, right.Lo.At(0))
	require.Equal(t, 0.0, left.Lo.At(0))
	require.Equal(t, 10.0, right.Hi.At(0))

	// Value outside [lo,hi] is clamped, not rejected.
	leftClamped, rightClamped, err := box.Split(0, 999.0)
	require.NoError(t, err)
	require.Equal(t, 10.0, leftClamped.Hi.At(0))
	require.Equal(t, 10.0, rightClamped.Lo.At(0))

	_, _, err = box.Split(5, 1.0)
	require.ErrorIs(t, err, ErrAxisOutOfRange)
}

func TestHyperboxScopedSplitRestores(t *testing.T) {
	box := Hyperbox[float64]{Lo: New(0.0, 0.0), Hi: New(10.0, 10.0)}
	original := Hyperbox[float64]{Lo: box.Lo.Clone(), Hi: box.Hi.Clone()}

	restore, err := box.ScopedSplit(0, 4.0, LeftSide)
	require.NoError(t, err)
	require.Equal(t, 4.0, box.Hi.At(0))
	restore()
	require.Equal(t, original.Hi.At(0), box.Hi.At(0))

	restore, err = box.ScopedSplit(0, 4.0, RightSide)
	require.NoError(t, err)
	require.Equal(t, 4.0, box.Lo.At(0))
	restore()
	require.Equal(t, original.Lo.At(0), box.Lo.At(0))
}
