package batch

import (
	"testing"

	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/knn/kdtree"
	"github.com/gomlx/knn/knn"
	"github.com/gomlx/knn/metric"
	"github.com/gomlx/knn/point"
	"github.com/gomlx/knn/reduce"
)

func TestPredictBatchReturnsNearestLabelIndices(t *testing.T) {
	positions := []point.Point[float64]{
		point.New(0.0, 0.0), point.New(10.0, 10.0), point.New(0.0, 10.0), point.New(10.0, 0.0),
	}
	labels := []string{"SW", "NE", "NW", "SE"}
	c, err := knn.New[float64, string](metric.Euclidean[float64](), positions, labels, 2, reduce.NewIdentity[float64], kdtree.WithRandSeed(1, 1))
	require.NoError(t, err)

	queries := tensors.FromValue([][]float64{{0.1, 0.1}, {9.9, 9.9}})
	out, err := Predict(c, queries, labels, 1)
	require.NoError(t, err)
	require.Equal(t, dtypes.Int32, out.DType())
	require.Equal(t, []int{2}, out.Shape().Dimensions)

	tensors.ConstFlatData[int32](out, func(flat []int32) {
		require.Equal(t, labels[flat[0]], "SW")
		require.Equal(t, labels[flat[1]], "NE")
	})
}

func TestPredictBatchRejectsEmptyAndMismatchedDType(t *testing.T) {
	positions := []point.Point[float64]{point.New(0.0, 0.0)}
	labels := []string{"only"}
	c, err := knn.New[float64, string](metric.Euclidean[float64](), positions, labels, 2, reduce.NewIdentity[float64])
	require.NoError(t, err)

	empty := tensors.FromShape(shapes.Make(dtypes.Float64, 0, 2))
	_, err = Predict(c, empty, labels, 1)
	require.Error(t, err)

	wrongDType := tensors.FromValue([][]float32{{0, 0}})
	_, err = Predict(c, wrongDType, labels, 1)
	require.Error(t, err)
}
