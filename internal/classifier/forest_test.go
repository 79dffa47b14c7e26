package classifier

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData builds a dataset where class 1 is decided by the first
// feature, with the rest as noise.
func separableData(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		row := []float64{rng.Float64(), rng.Float64() * 10, rng.Float64() - 0.5}
		x[i] = row
		if row[0] > 0.5 {
			y[i] = 1
		}
	}
	return x, y
}

func smallConfig() Config {
	return Config{Trees: 25, MaxDepth: 4, MinLeaf: 2, Seed: 42}
}

func TestForest_FitPredict(t *testing.T) {
	x, y := separableData(120, 1)

	f := &Forest{Config: smallConfig()}
	require.NoError(t, f.Fit(x, y))
	assert.Equal(t, []int{0, 1}, f.Classes)
	assert.Equal(t, 3, f.NFeatures)
	assert.Len(t, f.Trees, 25)

	probs, err := f.PredictProba([]float64{0.95, 5, 0})
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-9, "probabilities must sum to 1")
	assert.Greater(t, probs[1], 0.5, "clearly positive sample should lean to class 1")

	probs, err = f.PredictProba([]float64{0.05, 5, 0})
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.5, "clearly negative sample should lean to class 0")
}

func TestForest_DeterministicForSeed(t *testing.T) {
	x, y := separableData(80, 2)

	a := &Forest{Config: smallConfig()}
	require.NoError(t, a.Fit(x, y))
	b := &Forest{Config: smallConfig()}
	require.NoError(t, b.Fit(x, y))

	probe := []float64{0.6, 3, 0.1}
	pa, err := a.PredictProba(probe)
	require.NoError(t, err)
	pb, err := b.PredictProba(probe)
	require.NoError(t, err)
	assert.Equal(t, pa, pb, "same seed and data must produce identical fits")
}

func TestForest_SingleClass(t *testing.T) {
	x, _ := separableData(30, 3)
	y := make([]int, len(x)) // all losses

	f := &Forest{Config: smallConfig()}
	require.NoError(t, f.Fit(x, y))
	assert.Equal(t, []int{0}, f.Classes)

	probs, err := f.PredictProba(x[0])
	require.NoError(t, err)
	require.Len(t, probs, 1)
	assert.InDelta(t, 1.0, probs[0], 1e-9)
}

func TestForest_FitErrors(t *testing.T) {
	f := &Forest{Config: smallConfig()}
	assert.Error(t, f.Fit(nil, nil), "empty training set")
	assert.Error(t, f.Fit([][]float64{{1, 2}}, []int{0, 1}), "row/label mismatch")
	assert.Error(t, f.Fit([][]float64{{1, 2}, {1}}, []int{0, 1}), "ragged rows")

	bad := &Forest{Config: Config{Trees: 0, MaxDepth: 4, MinLeaf: 2}}
	x, y := separableData(20, 4)
	assert.Error(t, bad.Fit(x, y), "invalid config")
}

func TestForest_PredictErrors(t *testing.T) {
	f := &Forest{Config: smallConfig()}
	_, err := f.PredictProba([]float64{1, 2, 3})
	assert.Error(t, err, "unfitted forest")

	x, y := separableData(40, 5)
	require.NoError(t, f.Fit(x, y))
	_, err = f.PredictProba([]float64{1, 2})
	assert.Error(t, err, "wrong feature width")
}

func TestForest_JSONRoundTrip(t *testing.T) {
	x, y := separableData(60, 6)
	f := &Forest{Config: smallConfig()}
	require.NoError(t, f.Fit(x, y))

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var loaded Forest
	require.NoError(t, json.Unmarshal(data, &loaded))

	for _, probe := range x[:10] {
		want, err := f.PredictProba(probe)
		require.NoError(t, err)
		got, err := loaded.PredictProba(probe)
		require.NoError(t, err)
		assert.Equal(t, want, got, "reloaded model must score identically")
	}
}

func TestCrossValidate(t *testing.T) {
	x, y := separableData(100, 7)

	scores, err := CrossValidate(smallConfig(), x, y, 5)
	require.NoError(t, err)
	require.Len(t, scores, 5)
	for i, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0, "fold %d", i)
		assert.LessOrEqual(t, s, 1.0, "fold %d", i)
	}

	// An easily separable problem should validate well above chance.
	var sum float64
	for _, s := range scores {
		sum += s
	}
	assert.Greater(t, sum/float64(len(scores)), 0.6)
}

func TestCrossValidate_Errors(t *testing.T) {
	x, y := separableData(10, 8)

	_, err := CrossValidate(smallConfig(), x, y, 1)
	assert.Error(t, err, "fewer than 2 folds")

	_, err = CrossValidate(smallConfig(), x[:3], y[:3], 5)
	assert.Error(t, err, "more folds than samples")
}
