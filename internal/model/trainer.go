// Package model owns the classifier lifecycle: training runs that produce
// the persisted artifacts, and one-shot scoring against them.
package model

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"confscore/internal/classifier"
	"confscore/internal/dataset"
	"confscore/internal/features"
)

// minSamples is the floor below which a training run is refused, both on raw
// rows and on rows that survive encoding.
const minSamples = 10

// Trainer orchestrates a full training run against a fixed model directory.
type Trainer struct {
	modelDir string
	cfg      classifier.Config
}

func NewTrainer(modelDir string, cfg classifier.Config) *Trainer {
	return &Trainer{modelDir: modelDir, cfg: cfg}
}

// TrainResult is the success payload written to stdout after training.
type TrainResult struct {
	OK          bool      `json:"ok"`
	SampleCount int       `json:"sampleCount"`
	Accuracy    float64   `json:"accuracy"`
	CVScores    []float64 `json:"cvScores"`
}

// Train loads the historical corpus (plus live outcomes when the path
// exists), builds fresh encoders, cross-validates, fits the final model on
// everything, and persists the three artifacts. No artifact is written on
// any failure path.
func (t *Trainer) Train(dataPath, livePath string) (*TrainResult, error) {
	rows, err := dataset.LoadJSONL(dataPath)
	if err != nil {
		return nil, err
	}

	if livePath != "" {
		if _, statErr := os.Stat(livePath); statErr == nil {
			live, err := dataset.LoadJSONL(livePath)
			if err != nil {
				return nil, err
			}
			log.Info().Int("rows", len(live)).Str("path", livePath).Msg("merged live outcomes")
			rows = append(rows, live...)
		}
	}

	if len(rows) < minSamples {
		return nil, fmt.Errorf("too few samples: %d (need >= %d)", len(rows), minSamples)
	}

	// Encoders are rebuilt from scratch each run so codes always reflect the
	// current corpus.
	coins := features.BuildCoinEncoder(rows)

	var x [][]float64
	var y []int
	skipped := 0
	for _, row := range rows {
		vec, err := features.Vector(row, coins)
		if err != nil {
			skipped++
			continue
		}
		label, ok := deriveLabel(row)
		if !ok {
			skipped++
			continue
		}
		x = append(x, vec)
		y = append(y, label)
	}

	if len(x) < minSamples {
		return nil, fmt.Errorf("too few valid samples after processing: %d (skipped %d)", len(x), skipped)
	}

	folds := minInt(5, maxInt(2, len(x)/10))
	scores, err := classifier.CrossValidate(t.cfg, x, y, folds)
	if err != nil {
		return nil, fmt.Errorf("cross-validation: %w", err)
	}
	accuracy := mean(scores)

	forest := &classifier.Forest{Config: t.cfg}
	if err := forest.Fit(x, y); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(t.modelDir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	if err := writeJSONAtomic(t.modelDir, modelFile, forest); err != nil {
		return nil, err
	}
	if err := writeJSONAtomic(t.modelDir, encodersFile, encoderArtifact{CoinEncoder: coins}); err != nil {
		return nil, err
	}
	meta := Metadata{
		SampleCount:   len(x),
		Accuracy:      round4(accuracy),
		LastTrainedAt: time.Now().UTC().Format(time.RFC3339),
		CVScores:      round4Slice(scores),
		Skipped:       skipped,
	}
	if err := writeJSONAtomic(t.modelDir, metaFile, meta); err != nil {
		return nil, err
	}

	log.Info().
		Int("samples", len(x)).
		Int("skipped", skipped).
		Int("folds", folds).
		Float64("cv_accuracy", meta.Accuracy).
		Str("model_dir", t.modelDir).
		Msg("model trained")

	return &TrainResult{
		OK:          true,
		SampleCount: len(x),
		Accuracy:    meta.Accuracy,
		CVScores:    meta.CVScores,
	}, nil
}

// deriveLabel prefers an explicit won flag over raw pnl; a trade with
// non-negative pnl counts as won. Rows carrying neither, or a malformed
// value, are skipped.
func deriveLabel(row features.Record) (int, bool) {
	if row.Has("won") {
		v, err := row.Float("won", 0)
		if err != nil {
			return 0, false
		}
		return int(v), true
	}
	if row.Has("pnl") {
		v, err := row.Float("pnl", 0)
		if err != nil {
			return 0, false
		}
		if v >= 0 {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round4Slice(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = round4(v)
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
