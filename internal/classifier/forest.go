// Package classifier implements the binary win/loss classifier behind the
// confidence score: a bagged ensemble of depth-bounded CART trees with
// class-balanced sample weights and a fixed seed for reproducible fits.
// The whole model is plain data so it round-trips through encoding/json.
package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config holds the ensemble hyperparameters.
type Config struct {
	Trees    int   `json:"trees" yaml:"trees"`
	MaxDepth int   `json:"maxDepth" yaml:"maxDepth"`
	MinLeaf  int   `json:"minLeaf" yaml:"minLeaf"`
	Seed     int64 `json:"seed" yaml:"seed"`
}

// DefaultConfig mirrors the hyperparameters the historical model was
// trained with.
func DefaultConfig() Config {
	return Config{Trees: 100, MaxDepth: 6, MinLeaf: 5, Seed: 42}
}

func (c Config) validate() error {
	if c.Trees <= 0 {
		return fmt.Errorf("classifier: trees must be positive, got %d", c.Trees)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("classifier: maxDepth must be positive, got %d", c.MaxDepth)
	}
	if c.MinLeaf <= 0 {
		return fmt.Errorf("classifier: minLeaf must be positive, got %d", c.MinLeaf)
	}
	return nil
}

// Forest is the fitted classifier artifact.
type Forest struct {
	Config    Config `json:"config"`
	Classes   []int  `json:"classes"`
	NFeatures int    `json:"nFeatures"`
	Trees     []Tree `json:"trees"`
}

// Fit trains the ensemble on the full feature matrix. Sample weights are
// balanced per class so a skewed win/loss ratio does not drown the minority
// class. The configured seed makes repeated fits on the same data identical.
func (f *Forest) Fit(x [][]float64, y []int) error {
	if err := f.Config.validate(); err != nil {
		return err
	}
	if len(x) == 0 {
		return fmt.Errorf("classifier: empty training set")
	}
	if len(x) != len(y) {
		return fmt.Errorf("classifier: %d feature rows vs %d labels", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("classifier: row %d has %d features, want %d", i, len(row), width)
		}
	}

	classes, classIdx := distinctClasses(y)
	yIdx := make([]int, len(y))
	counts := make([]float64, len(classes))
	for i, label := range y {
		yIdx[i] = classIdx[label]
		counts[classIdx[label]]++
	}

	// Balanced weighting: w_c = n / (k * n_c).
	n := float64(len(x))
	classWeight := make([]float64, len(classes))
	for c, cnt := range counts {
		classWeight[c] = n / (float64(len(classes)) * cnt)
	}
	w := make([]float64, len(x))
	for i, c := range yIdx {
		w[i] = classWeight[c]
	}

	rng := rand.New(rand.NewSource(f.Config.Seed))
	b := &builder{
		x:         x,
		y:         yIdx,
		w:         w,
		nClasses:  len(classes),
		nFeatures: width,
		mFeatures: maxInt(1, int(math.Sqrt(float64(width)))),
		maxDepth:  f.Config.MaxDepth,
		minLeaf:   f.Config.MinLeaf,
		rng:       rng,
	}

	trees := make([]Tree, f.Config.Trees)
	sample := make([]int, len(x))
	for t := range trees {
		for i := range sample {
			sample[i] = rng.Intn(len(x))
		}
		trees[t] = b.build(sample)
	}

	f.Classes = classes
	f.NFeatures = width
	f.Trees = trees
	return nil
}

// PredictProba returns the per-class probability for one feature vector,
// aligned with Classes. It averages the leaf distributions of all trees.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("classifier: not fitted")
	}
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("classifier: got %d features, model expects %d", len(x), f.NFeatures)
	}

	probs := make([]float64, len(f.Classes))
	for i := range f.Trees {
		leaf := f.Trees[i].Predict(x)
		for c, p := range leaf {
			probs[c] += p
		}
	}
	inv := 1.0 / float64(len(f.Trees))
	for c := range probs {
		probs[c] *= inv
	}
	return probs, nil
}

// PredictClass returns the majority-vote class label.
func (f *Forest) PredictClass(x []float64) (int, error) {
	probs, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := range probs {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return f.Classes[best], nil
}

func distinctClasses(y []int) ([]int, map[int]int) {
	seen := make(map[int]struct{})
	for _, label := range y {
		seen[label] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	idx := make(map[int]int, len(classes))
	for i, label := range classes {
		idx[label] = i
	}
	return classes, idx
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
