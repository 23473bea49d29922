// Package kdtree implements a bulk-loaded, static k-d tree index: an arena
// of nodes built by recursive median partitioning with randomized axis
// sampling, and a predicate-guarded traversal that lets callers prune
// branches by bounding box.
//
// The tree never mutates after New returns. There is no incremental
// insertion or deletion, matching the package's bulk-load-only design.
package kdtree

import (
	"math"
	"math/rand/v2"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/gomlx/knn/point"
)

// ErrEmptyEntries is returned by New when given no entries.
var ErrEmptyEntries = errors.New("cannot build a kd-tree from zero entries")

// MaxDepth bounds how deep the recursive build may go; exceeding it
// indicates the split heuristic is stuck (e.g. on a pathological dataset
// whose median splits stay badly unbalanced) rather than a legitimate large
// tree.
const MaxDepth = 64

const cacheLineBytes = 64

// Entry is a (coord, label) pair stored in the tree.
type Entry[T point.Numeric, L comparable] struct {
	Coord point.Point[T]
	Label L
}

// NodeID indexes into KdTree.Nodes. Stable for the tree's lifetime: nodes
// are never freed, renumbered, or mutated after construction.
type NodeID int32

const noChild NodeID = -1

// node is either a leaf (a contiguous, non-empty run of Entries) or an
// inner split node. isLeaf distinguishes the two; Left/Right are noChild
// for a leaf.
type node[T point.Numeric] struct {
	// Leaf: [start, end) indexes into KdTree.Entries.
	start, end int

	// Inner: split axis/value and children. Left/Right == noChild for a leaf.
	axis        int
	value       T
	left, right NodeID
}

func (n *node[T]) isLeaf() bool { return n.left == noChild && n.right == noChild }

// KdTree is a bulk-loaded, static spatial index over Entry values of
// dimension Dim.
type KdTree[T point.Numeric, L comparable] struct {
	Entries []Entry[T, L]
	Nodes   []node[T]
	Root    NodeID
	Dim     int

	rootBox point.Hyperbox[T]
	rng     *rand.Rand

	maxLeafElements int
}

// Option configures New.
type Option func(*buildConfig)

type buildConfig struct {
	rngSeed1, rngSeed2 uint64
	haveSeed           bool
}

// WithRandSeed fixes the PRNG seed used for randomized axis sampling during
// construction, making the resulting tree shape deterministic. Useful for
// tests and reproducible benchmarks.
func WithRandSeed(seed1, seed2 uint64) Option {
	return func(c *buildConfig) {
		c.rngSeed1, c.rngSeed2 = seed1, seed2
		c.haveSeed = true
	}
}

// New bulk-builds a kd-tree over entries. entries is copied; the caller's
// slice is left untouched.
func New[T point.Numeric, L comparable](entries []Entry[T, L], dim int, opts ...Option) (*KdTree[T, L], error) {
	if len(entries) == 0 {
		return nil, ErrEmptyEntries
	}
	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	owned := make([]Entry[T, L], len(entries))
	copy(owned, entries)

	coords := make([]point.Point[T], len(owned))
	for i, e := range owned {
		coords[i] = e.Coord
	}

	var zero T
	pointSize := max(dim, 1) * int(unsafe.Sizeof(zero))
	maxLeaf := max(2, 2*cacheLineBytes/pointSize)

	tree := &KdTree[T, L]{
		Entries:         owned,
		Dim:             dim,
		rootBox:         point.Of(coords),
		maxLeafElements: maxLeaf,
	}
	if cfg.haveSeed {
		tree.rng = rand.New(rand.NewPCG(cfg.rngSeed1, cfg.rngSeed2))
	} else {
		tree.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	root, err := tree.build(0, len(owned), 0)
	if err != nil {
		return nil, err
	}
	tree.Root = root
	return tree, nil
}

// NumEntries returns the number of entries held by the tree.
func (t *KdTree[T, L]) NumEntries() int { return len(t.Entries) }

// RootBox returns the tight bounding box computed over all entries at
// construction time.
func (t *KdTree[T, L]) RootBox() point.Hyperbox[T] { return t.rootBox }

type splitRecord[T point.Numeric] struct {
	score float64
	axis  int
	value T
}

// trySplit partitions entries[start:end] around the median value on axis,
// via an n-th-element style selection followed by a value-based partition.
// The value-based partition -- not the selection step -- defines the final
// left/right entry slices, and that median value is what gets stored in
// the inner node.
func (t *KdTree[T, L]) trySplit(start, end, axis int) splitRecord[T] {
	n := end - start
	mid := start + n/2

	// n-th-element selection by axis value to find the median.
	nthElement(t.Entries[start:end], mid-start, axis)
	median := t.Entries[mid].Coord.At(axis)

	// Stable value-based partition: < median goes left, >= median goes right.
	midpoint := partition(t.Entries[start:end], axis, median) + start

	leftSize := midpoint - start
	rightSize := end - midpoint
	sizeDiff := leftSize - rightSize
	if sizeDiff < 0 {
		sizeDiff = -sizeDiff
	}
	maxAbsInvScore := n - (n % 2)
	absInvScore := n - sizeDiff
	score := 0.0
	if maxAbsInvScore > 0 {
		score = float64(absInvScore) / float64(maxAbsInvScore)
	}

	return splitRecord[T]{score: score, axis: axis, value: median}
}

// findApproximateSplit samples up to min(Dim, 2+2*log2(Dim)) random axes,
// accepting the first split whose balance score exceeds 0.9, and otherwise
// falling back to the best-scoring sampled split. Returns ok=false if every
// sampled split scored zero (e.g. all entries coincide).
func (t *KdTree[T, L]) findApproximateSplit(start, end int) (splitRecord[T], bool) {
	const viableScoreThreshold = 0.9
	numSamples := min(t.Dim, int(2+2*math.Log2(float64(t.Dim))))
	if numSamples < 1 {
		numSamples = 1
	}

	var best splitRecord[T]
	haveBest := false
	for range numSamples {
		axis := t.rng.IntN(t.Dim)
		rec := t.trySplit(start, end, axis)
		if rec.score > viableScoreThreshold {
			return rec, true
		}
		if !haveBest || rec.score > best.score {
			best = rec
			haveBest = true
		}
	}
	if !haveBest || best.score == 0 {
		return splitRecord[T]{}, false
	}
	return best, true
}

// build recursively constructs the node covering entries[start:end],
// appending to t.Nodes (which has stable indices, so child NodeIDs taken
// during recursion remain valid regardless of later growth).
func (t *KdTree[T, L]) build(start, end, depth int) (NodeID, error) {
	if depth > MaxDepth {
		return 0, errors.Errorf("kd-tree build exceeded max depth %d; split heuristic may be stuck", MaxDepth)
	}

	n := end - start
	if n <= t.maxLeafElements {
		return t.appendLeaf(start, end), nil
	}

	split, ok := t.findApproximateSplit(start, end)
	if !ok {
		return t.appendLeaf(start, end), nil
	}

	midpoint := partition(t.Entries[start:end], split.axis, split.value) + start

	id := t.appendInner(split.axis, split.value)
	left, err := t.build(start, midpoint, depth+1)
	if err != nil {
		return 0, err
	}
	right, err := t.build(midpoint, end, depth+1)
	if err != nil {
		return 0, err
	}
	t.Nodes[id].left = left
	t.Nodes[id].right = right
	return id, nil
}

func (t *KdTree[T, L]) appendLeaf(start, end int) NodeID {
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, node[T]{start: start, end: end, left: noChild, right: noChild})
	return id
}

func (t *KdTree[T, L]) appendInner(axis int, value T) NodeID {
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, node[T]{axis: axis, value: value, left: noChild, right: noChild})
	return id
}

// Walk descends the tree from the root, invoking visit on every entry of
// every leaf whose containing box satisfies pred, in deterministic
// left-then-right order. pred is the only pruning mechanism and must be a
// conservative over-approximation: returning true for a box is always
// safe, returning false must only happen when the box provably cannot
// contain a relevant entry.
//
// pred may assume the box it receives is the exact bounding box of the
// subtree under consideration -- scoped splits compose along the descent
// path to make this true.
func (t *KdTree[T, L]) Walk(visit func(*Entry[T, L]), pred func(point.Hyperbox[T]) bool) {
	box := t.rootBox
	t.walk(t.Root, &box, visit, pred)
}

func (t *KdTree[T, L]) walk(id NodeID, box *point.Hyperbox[T], visit func(*Entry[T, L]), pred func(point.Hyperbox[T]) bool) {
	n := &t.Nodes[id]
	if n.isLeaf() {
		for i := n.start; i < n.end; i++ {
			visit(&t.Entries[i])
		}
		return
	}

	if restore, err := box.ScopedSplit(n.axis, n.value, point.LeftSide); err == nil {
		if pred(*box) {
			t.walk(n.left, box, visit, pred)
		}
		restore()
	}
	if restore, err := box.ScopedSplit(n.axis, n.value, point.RightSide); err == nil {
		if pred(*box) {
			t.walk(n.right, box, visit, pred)
		}
		restore()
	}
}

// partition reorders entries in place so that every entry with
// coord[axis] < value comes before every entry with coord[axis] >= value,
// and returns the index of the first entry in the right half (i.e. the
// count of entries that went left).
func partition[T point.Numeric, L comparable](entries []Entry[T, L], axis int, value T) int {
	i := 0
	for j := range entries {
		if entries[j].Coord.At(axis) < value {
			entries[i], entries[j] = entries[j], entries[i]
			i++
		}
	}
	return i
}

// nthElement reorders entries in place so that the element at index n holds
// the value it would hold if entries were fully sorted by coord[axis], with
// every element before it <= and every element after it >=, equivalent to
// C++'s std::nth_element. Implemented as quickselect with median-of-three
// pivoting; expected O(len(entries)) rather than the O(n log n) a full sort
// would cost.
func nthElement[T point.Numeric, L comparable](entries []Entry[T, L], n, axis int) {
	lo, hi := 0, len(entries)-1
	for lo < hi {
		pivot := medianOfThreePivot(entries, lo, hi, axis)
		entries[pivot], entries[hi] = entries[hi], entries[pivot]
		p := partition(entries[lo:hi+1], axis, entries[hi].Coord.At(axis)) + lo

		// partition places every entry < pivotValue before p, but the pivot
		// itself (and any duplicates equal to it) may sit on either side; a
		// second pass places the pivot's own slot correctly.
		for i := p; i <= hi; i++ {
			if entries[i].Coord.At(axis) == entries[hi].Coord.At(axis) {
				entries[i], entries[p] = entries[p], entries[i]
				break
			}
		}

		switch {
		case n < p:
			hi = p - 1
		case n > p:
			lo = p + 1
		default:
			return
		}
	}
}

// medianOfThreePivot returns the index of the median-valued entry among
// entries[lo], entries[(lo+hi)/2], and entries[hi], a standard quickselect
// heuristic that avoids quadratic behavior on already-sorted input.
func medianOfThreePivot[T point.Numeric, L comparable](entries []Entry[T, L], lo, hi, axis int) int {
	mid := lo + (hi-lo)/2
	a, b, c := entries[lo].Coord.At(axis), entries[mid].Coord.At(axis), entries[hi].Coord.At(axis)
	switch {
	case (a <= b && b <= c) || (c <= b && b <= a):
		return mid
	case (b <= a && a <= c) || (c <= a && a <= b):
		return lo
	default:
		return hi
	}
}
