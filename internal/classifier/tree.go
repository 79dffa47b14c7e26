package classifier

import (
	"math"
	"math/rand"
	"sort"
)

// Node is one decision-tree node. Leaves carry a class-probability
// distribution and have no children; internal nodes route on
// x[Feature] <= Threshold.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Probs     []float64 `json:"p,omitempty"`
}

// Tree is a single CART tree stored as a flat node array so it serializes
// to JSON without cycles.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree and returns the leaf class distribution.
func (t *Tree) Predict(x []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Probs != nil {
			return n.Probs
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// builder grows one tree over a bootstrap sample. y holds class indices,
// w per-sample weights (class-balanced).
type builder struct {
	x         [][]float64
	y         []int
	w         []float64
	nClasses  int
	nFeatures int
	mFeatures int
	maxDepth  int
	minLeaf   int
	rng       *rand.Rand
	nodes     []Node
}

func (b *builder) build(idx []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(idx, 0)
	nodes := make([]Node, len(b.nodes))
	copy(nodes, b.nodes)
	return Tree{Nodes: nodes}
}

func (b *builder) grow(idx []int, depth int) int {
	classW := make([]float64, b.nClasses)
	var total float64
	for _, i := range idx {
		classW[b.y[i]] += b.w[i]
		total += b.w[i]
	}

	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf || isPure(classW) {
		return b.leaf(classW, total)
	}

	feature, threshold, ok := b.bestSplit(idx, classW, total)
	if !ok {
		return b.leaf(classW, total)
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold, Left: -1, Right: -1})
	left := b.grow(leftIdx, depth+1)
	right := b.grow(rightIdx, depth+1)
	b.nodes[id].Left = left
	b.nodes[id].Right = right
	return id
}

func (b *builder) leaf(classW []float64, total float64) int {
	probs := make([]float64, b.nClasses)
	if total > 0 {
		for c, w := range classW {
			probs[c] = w / total
		}
	}
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1, Probs: probs})
	return len(b.nodes) - 1
}

// bestSplit scans a random feature subset for the threshold minimizing
// weighted Gini impurity, honoring the leaf-size floor on both sides.
func (b *builder) bestSplit(idx []int, classW []float64, total float64) (int, float64, bool) {
	type pair struct {
		v float64
		i int
	}

	bestImpurity := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	perm := b.rng.Perm(b.nFeatures)
	for _, feature := range perm[:b.mFeatures] {
		pairs := make([]pair, len(idx))
		for k, i := range idx {
			pairs[k] = pair{b.x[i][feature], i}
		}
		sort.Slice(pairs, func(a, c int) bool { return pairs[a].v < pairs[c].v })

		leftW := make([]float64, b.nClasses)
		var leftTotal float64
		for k := 0; k < len(pairs)-1; k++ {
			i := pairs[k].i
			leftW[b.y[i]] += b.w[i]
			leftTotal += b.w[i]

			if pairs[k].v == pairs[k+1].v {
				continue
			}
			nLeft, nRight := k+1, len(pairs)-k-1
			if nLeft < b.minLeaf || nRight < b.minLeaf {
				continue
			}

			rightTotal := total - leftTotal
			impurity := (leftTotal*giniFrom(leftW, leftTotal) +
				rightTotal*giniResidual(classW, leftW, rightTotal)) / total
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = feature
				bestThreshold = (pairs[k].v + pairs[k+1].v) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func isPure(classW []float64) bool {
	nonZero := 0
	for _, w := range classW {
		if w > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func giniFrom(classW []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	g := 1.0
	for _, w := range classW {
		p := w / total
		g -= p * p
	}
	return g
}

// giniResidual computes Gini for the right partition from the node totals
// minus the accumulated left side, avoiding a second pass.
func giniResidual(classW, leftW []float64, rightTotal float64) float64 {
	if rightTotal <= 0 {
		return 0
	}
	g := 1.0
	for c := range classW {
		p := (classW[c] - leftW[c]) / rightTotal
		g -= p * p
	}
	return g
}
