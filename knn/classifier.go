// Package knn implements the adaptive-radius k-nearest-neighbor classifier:
// an index built by reducing training points and bulk-loading them into a
// kd-tree, and a predict operation that grows a search radius until enough
// candidates are collected, then votes on their labels.
package knn

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/gomlx/knn/kdtree"
	"github.com/gomlx/knn/metric"
	"github.com/gomlx/knn/point"
	"github.com/gomlx/knn/reduce"
)

// Sentinel error kinds, matching the taxonomy of kinds (not types) spec'd
// for the classifier: InvalidArgument and NoViablePoints. Callers match
// them with errors.Is; the underlying message carries the specifics.
var (
	// ErrInvalidArgument is returned by New when positions and labels differ
	// in length or are empty, and by Predict when k < 1 after clamping.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoViablePoints is returned when the adaptive search radius would
	// grow to infinity -- the only recoverable signal that a custom Metric
	// implementation is broken.
	ErrNoViablePoints = errors.New("no viable points: search radius grew unbounded")
)

const epsilon = 1e-6

// warmUpMultiplier is applied to the largest of the k winning distances to
// seed the next call's search radius. The source carries two variants (1.41
// and 2.0); 2.0 is canonical here because it converges in fewer growth
// iterations on sparse point sets.
const warmUpMultiplier = 2.0

// Stats accumulates classifier telemetry across predict calls.
type Stats struct {
	TotalPredictions    int64
	AccuratePredictions int64
	PointsConsidered    int64
	PointsSkipped       int64
}

func divOrZero(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Accuracy is AccuratePredictions/TotalPredictions, or 0 if no predictions
// carried a true label.
func (s Stats) Accuracy() float64 {
	return divOrZero(float64(s.AccuratePredictions), float64(s.TotalPredictions))
}

// Efficiency is PointsSkipped/PointsConsidered, or 0 if nothing was
// considered yet.
func (s Stats) Efficiency() float64 {
	return divOrZero(float64(s.PointsSkipped), float64(s.PointsConsidered))
}

// Classifier owns a reducer and a kd-tree built over the reduced training
// coordinates, and predicts labels via adaptive-radius kNN search.
//
// Predict mutates defaultSearchRadius and stats, so a Classifier is not
// safe for concurrent Predict calls against the same instance.
type Classifier[T point.Numeric, L comparable] struct {
	metric  metric.Metric[T]
	reducer reduce.Reducer[T]
	tree    *kdtree.KdTree[T, L]

	defaultSearchRadius float64
	stats               Stats
}

// New fits reducer over positions, reduces every position, and bulk-builds
// a kd-tree over the resulting (reducedPosition, label) entries.
//
// reducerCtor follows the Reducer construction contract: a single-pass
// constructor consuming the full stream of training positions. Pass
// reduce.NewIdentity for no dimensionality reduction.
func New[T point.Numeric, L comparable, R reduce.Reducer[T]](
	m metric.Metric[T],
	positions []point.Point[T],
	labels []L,
	treeDim int,
	reducerCtor reduce.Constructor[T, R],
	opts ...kdtree.Option,
) (*Classifier[T, L], error) {
	if len(positions) != len(labels) {
		return nil, errors.Wrapf(ErrInvalidArgument, "positions (%d) and labels (%d) must have the same length", len(positions), len(labels))
	}
	if len(positions) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "cannot build a classifier from an empty training set")
	}

	reducer, err := reduce.Fit[T, R](reducerCtor, positions)
	if err != nil {
		return nil, err
	}

	entries := make([]kdtree.Entry[T, L], len(positions))
	for i, p := range positions {
		entries[i] = kdtree.Entry[T, L]{Coord: reducer.Reduce(p), Label: labels[i]}
	}

	tree, err := kdtree.New(entries, treeDim, opts...)
	if err != nil {
		return nil, errors.WithMessage(err, "building kd-tree over reduced training entries")
	}

	return &Classifier[T, L]{
		metric:              m,
		reducer:             reducer,
		tree:                tree,
		defaultSearchRadius: math.Inf(1),
	}, nil
}

// predictConfig holds Predict's optional parameters, set via PredictOption.
type predictConfig[L comparable] struct {
	initialRadius *float64
	trueLabel     *L
}

// PredictOption configures an optional parameter of Predict.
type PredictOption[L comparable] func(*predictConfig[L])

// WithInitialRadius overrides the radius Predict's adaptive search loop
// starts from.
func WithInitialRadius[L comparable](r float64) PredictOption[L] {
	return func(c *predictConfig[L]) { c.initialRadius = &r }
}

// WithTrueLabel supplies the ground-truth label for telemetry only: it
// does not affect the prediction, only Stats.Accuracy bookkeeping.
func WithTrueLabel[L comparable](label L) PredictOption[L] {
	return func(c *predictConfig[L]) { c.trueLabel = &label }
}

type candidate[L comparable] struct {
	distance float64
	label    L
}

// Predict classifies point by adaptive-radius kNN search: it grows a
// search radius until at least k candidates are collected, takes the k
// closest, and returns the label with the highest (frequency,
// -totalDistance) under lexicographic ordering -- i.e. most frequent among
// the k neighbors, ties broken in favor of the label whose neighbors are
// collectively closer.
//
// State machine: InitRadius -> Walk -> (enough candidates? no: GrowRadius
// -> Walk) -> TopK -> Vote -> Return. No other transitions occur.
func (c *Classifier[T, L]) Predict(p point.Point[T], k int, opts ...PredictOption[L]) (L, error) {
	var zero L
	cfg := predictConfig[L]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	k = min(k, c.tree.NumEntries())
	if k < 1 {
		return zero, errors.Wrap(ErrInvalidArgument, "k must be positive after clamping to the number of training entries")
	}

	reduced := c.reducer.Reduce(p)

	radius := epsilon
	if c.defaultSearchRadius < math.Inf(1) {
		radius = c.defaultSearchRadius
	}
	if cfg.initialRadius != nil {
		radius = *cfg.initialRadius
	}

	var candidates []candidate[L]
	var entriesVisited int64

	for {
		if math.IsInf(radius, 1) {
			return zero, errors.Wrap(ErrNoViablePoints, "search radius grew unbounded; the metric's pruning predicate may be broken")
		}

		candidates = candidates[:0]
		entriesVisited = 0
		var totalDist float64

		searchRadius := radius
		c.tree.Walk(
			func(e *kdtree.Entry[T, L]) {
				entriesVisited++
				d := c.metric.Distance(reduced, e.Coord)
				totalDist += d
				if d < searchRadius {
					candidates = append(candidates, candidate[L]{distance: d, label: e.Label})
				}
			},
			func(box point.Hyperbox[T]) bool {
				return c.metric.IntersectsSearchSpace(box, reduced, searchRadius)
			},
		)

		if len(candidates) >= k {
			break
		}
		averageDistance := divOrZero(totalDist, float64(entriesVisited))
		radius = math.Max(radius*2, averageDistance)
	}

	topK := partialSortByDistance(candidates, k)

	maxKDist := 0.0
	for _, cand := range topK {
		maxKDist = math.Max(maxKDist, cand.distance)
	}
	if maxKDist > epsilon {
		c.defaultSearchRadius = maxKDist * warmUpMultiplier
	}

	label := vote(topK)

	c.stats.PointsConsidered += int64(c.tree.NumEntries())
	c.stats.PointsSkipped += int64(c.tree.NumEntries()) - entriesVisited
	if cfg.trueLabel != nil {
		c.stats.TotalPredictions++
		if label == *cfg.trueLabel {
			c.stats.AccuratePredictions++
		}
	}

	return label, nil
}

// Stats returns the classifier's accumulated telemetry.
func (c *Classifier[T, L]) Stats() Stats { return c.stats }

// ResetStats zeroes the classifier's accumulated telemetry.
func (c *Classifier[T, L]) ResetStats() { c.stats = Stats{} }

// NumEntries returns the number of training entries held by the tree.
func (c *Classifier[T, L]) NumEntries() int { return c.tree.NumEntries() }

// partialSortByDistance returns the k candidates with the smallest
// distance, sorted ascending. A full sort is used for simplicity over the
// source's std::partial_sort; candidate lists are small relative to the
// training set by construction (the adaptive radius loop stops growing as
// soon as len(candidates) >= k).
func partialSortByDistance[L comparable](candidates []candidate[L], k int) []candidate[L] {
	sorted := make([]candidate[L], len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].distance < sorted[j].distance
	})
	return sorted[:k]
}

type voteTally[L comparable] struct {
	label            L
	frequency        int
	negTotalDistance float64
}

// vote groups candidates by label, accumulating frequency and the negative
// sum of distances for each, and returns the label with the lexicographically
// greatest (frequency, negTotalDistance) -- i.e. most frequent, ties broken
// by smallest total distance.
func vote[L comparable](candidates []candidate[L]) L {
	tallies := make(map[L]*voteTally[L])
	order := make([]L, 0, len(candidates))
	for _, cand := range candidates {
		t, ok := tallies[cand.label]
		if !ok {
			t = &voteTally[L]{label: cand.label}
			tallies[cand.label] = t
			order = append(order, cand.label)
		}
		t.frequency++
		t.negTotalDistance -= cand.distance
	}

	best := tallies[order[0]]
	for _, label := range order[1:] {
		t := tallies[label]
		if t.frequency > best.frequency ||
			(t.frequency == best.frequency && t.negTotalDistance > best.negTotalDistance) {
			best = t
		}
	}
	return best.label
}
