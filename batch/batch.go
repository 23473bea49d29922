// Package batch wires the classifier into the gomlx tensor stack for bulk
// queries, mirroring how geometry.NearestEdges and geometry.RadiusEdges
// accept/return tensors rather than Go slices at a package boundary.
package batch

import (
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/knn/knn"
	"github.com/gomlx/knn/point"
)

// dtypeOf reports the gomlx dtype matching Go type T, and whether T is one
// of the supported coordinate types. Only float32 and float64 are
// supported, matching geometry.NearestEdges/RadiusEdges.
func dtypeOf[T point.Numeric]() (dt dtypes.DType, ok bool) {
	var zero T
	switch any(zero).(type) {
	case float32:
		return dtypes.Float32, true
	case float64:
		return dtypes.Float64, true
	default:
		return dt, false
	}
}

// Predict classifies every row of points (shaped [numPoints, dimension])
// against classifier, returning an Int32 tensor shaped [numPoints] holding,
// for each point, the index into labels of the predicted label.
//
// points must be rank 2 with a dtype matching the classifier's coordinate
// type T (float32 or float64), and a dimension matching the classifier's
// input dimension. labels is the caller's label universe: the returned
// tensor indexes into it the same way geometry.NearestEdges returns
// target-point indices rather than raw coordinates.
func Predict[T point.Numeric, L comparable](c *knn.Classifier[T, L], points *tensors.Tensor, labels []L, k int) (*tensors.Tensor, error) {
	if points == nil || points.Size() == 0 {
		return nil, errors.Errorf("batch predict: points tensor (%s) is empty", points.Shape())
	}
	if points.Shape().Rank() != 2 {
		return nil, errors.Errorf("batch predict: points (%s) must be rank 2: [numPoints, dimension]", points.Shape())
	}
	wantDType, ok := dtypeOf[T]()
	if !ok {
		return nil, errors.Errorf("batch predict: classifier coordinate type must be either Float32 or Float64")
	}
	if points.DType() != wantDType {
		return nil, errors.Errorf("batch predict: DType of points (%s) must match the classifier's coordinate type (%s)", points.DType(), wantDType)
	}
	dimension := points.Shape().Dimensions[1]

	labelIndex := make(map[L]int32, len(labels))
	for i, l := range labels {
		labelIndex[l] = int32(i)
	}

	var predictedIdx []int32
	var err error
	tensors.ConstFlatData[T](points, func(flat []T) {
		predictedIdx, err = predictImpl[T](c, flat, dimension, k, labelIndex)
	})
	if err != nil {
		return nil, err
	}

	numPoints := len(predictedIdx)
	out := tensors.FromShape(shapes.Make(dtypes.Int32, numPoints))
	tensors.MutableFlatData[int32](out, func(flat []int32) {
		copy(flat, predictedIdx)
	})
	return out, nil
}

func predictImpl[T point.Numeric, L comparable](c *knn.Classifier[T, L], flat []T, dimension, k int, labelIndex map[L]int32) ([]int32, error) {
	numPoints := len(flat) / dimension
	out := make([]int32, numPoints)
	for i := range numPoints {
		coords := make([]T, dimension)
		copy(coords, flat[i*dimension:(i+1)*dimension])
		p := point.New(coords...)
		label, err := c.Predict(p, k)
		if err != nil {
			return nil, errors.WithMessagef(err, "batch predict: point %d", i)
		}
		idx, ok := labelIndex[label]
		if !ok {
			return nil, errors.Errorf("batch predict: predicted label for point %d is not in the supplied label universe", i)
		}
		out[i] = idx
	}
	return out, nil
}
