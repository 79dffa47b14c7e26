package classifier

import (
	"fmt"
	"math/rand"
)

// CrossValidate runs shuffled k-fold cross-validation and returns the
// held-out accuracy of each fold. The shuffle uses its own seed so fold
// composition is stable for a given dataset, independent of how many trees
// the final fit grows.
func CrossValidate(cfg Config, x [][]float64, y []int, folds int) ([]float64, error) {
	if folds < 2 {
		return nil, fmt.Errorf("classifier: need at least 2 folds, got %d", folds)
	}
	if len(x) < folds {
		return nil, fmt.Errorf("classifier: %d samples cannot fill %d folds", len(x), folds)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	order := rng.Perm(len(x))

	scores := make([]float64, 0, folds)
	foldSize := len(x) / folds
	extra := len(x) % folds

	start := 0
	for k := 0; k < folds; k++ {
		size := foldSize
		if k < extra {
			size++
		}
		test := order[start : start+size]
		start += size

		inTest := make(map[int]bool, len(test))
		for _, i := range test {
			inTest[i] = true
		}

		var trainX [][]float64
		var trainY []int
		for i := range x {
			if !inTest[i] {
				trainX = append(trainX, x[i])
				trainY = append(trainY, y[i])
			}
		}

		fold := &Forest{Config: cfg}
		if err := fold.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("fold %d: %w", k, err)
		}

		correct := 0
		for _, i := range test {
			pred, err := fold.PredictClass(x[i])
			if err != nil {
				return nil, fmt.Errorf("fold %d: %w", k, err)
			}
			if pred == y[i] {
				correct++
			}
		}
		scores = append(scores, float64(correct)/float64(len(test)))
	}
	return scores, nil
}
