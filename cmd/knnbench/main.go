// Command knnbench is a thin ambient demonstration harness for the knn
// classifier: it generates a synthetic uniformly-random point set, fits a
// classifier over it, runs a batch of predictions, and prints the
// resulting accuracy/efficiency stats. It intentionally does not read
// MNIST or dry-beans CSVs -- those dataset readers, like the rest of the
// benchmark/CLI layer, are external collaborators out of the classifier's
// scope.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/gomlx/knn/knn"
	"github.com/gomlx/knn/metric"
	"github.com/gomlx/knn/point"
	"github.com/gomlx/knn/reduce"
)

func main() {
	numTrain := flag.Int("n", 10_000, "number of synthetic training points")
	numQuery := flag.Int("queries", 1_000, "number of synthetic query points")
	dim := flag.Int("dim", 3, "dimensionality of the synthetic point set")
	k := flag.Int("k", 5, "number of neighbors to vote over")
	metricName := flag.String("metric", "euclidean", "distance metric: euclidean or manhattan")
	seed := flag.Uint64("seed", 42, "PRNG seed for reproducible runs")
	flag.Parse()

	if err := run(*numTrain, *numQuery, *dim, *k, *metricName, *seed); err != nil {
		fmt.Fprintln(os.Stderr, "knnbench:", err)
		os.Exit(1)
	}
}

func run(numTrain, numQuery, dim, k int, metricName string, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))

	var m metric.Metric[float64]
	switch metricName {
	case "euclidean":
		m = metric.Euclidean[float64]()
	case "manhattan":
		m = metric.Manhattan[float64]()
	default:
		return fmt.Errorf("unknown metric %q: want euclidean or manhattan", metricName)
	}

	positions := make([]point.Point[float64], numTrain)
	labels := make([]int, numTrain)
	for i := range positions {
		coords := make([]float64, dim)
		for d := range coords {
			coords[d] = rng.Float64()
		}
		positions[i] = point.New(coords...)
		// A synthetic label: which unit-hypercube "octant" the point falls
		// into, so nearby points plausibly share a label.
		label := 0
		for d, v := range coords {
			if v >= 0.5 {
				label |= 1 << (d % 31)
			}
		}
		labels[i] = label
	}

	classifier, err := knn.New[float64, int](m, positions, labels, dim, reduce.NewIdentity[float64])
	if err != nil {
		return fmt.Errorf("building classifier: %w", err)
	}

	correct := 0
	for range numQuery {
		coords := make([]float64, dim)
		for d := range coords {
			coords[d] = rng.Float64()
		}
		q := point.New(coords...)
		expected := 0
		for d, v := range coords {
			if v >= 0.5 {
				expected |= 1 << (d % 31)
			}
		}
		got, err := classifier.Predict(q, k, knn.WithTrueLabel[int](expected))
		if err != nil {
			return fmt.Errorf("predicting: %w", err)
		}
		if got == expected {
			correct++
		}
	}

	stats := classifier.Stats()
	fmt.Printf("trained on %s points (dim=%d, metric=%s, k=%d)\n", humanize.Comma(int64(numTrain)), dim, metricName, k)
	fmt.Printf("ran %s queries: accuracy=%.3f efficiency=%.3f (points considered=%s, skipped=%s)\n",
		humanize.Comma(int64(numQuery)),
		stats.Accuracy(),
		stats.Efficiency(),
		humanize.Comma(stats.PointsConsidered),
		humanize.Comma(stats.PointsSkipped),
	)
	return nil
}
