package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"confscore/internal/classifier"
	"confscore/internal/features"
)

// Scorer serves one-shot inference against the persisted artifacts.
type Scorer struct {
	modelDir string
}

func NewScorer(modelDir string) *Scorer {
	return &Scorer{modelDir: modelDir}
}

// ScoreResult is the payload written to stdout for every scoring run. Score
// stays null on any failure; callers treat a null score as "no opinion".
type ScoreResult struct {
	Score        *float64 `json:"score"`
	ModelSamples *int     `json:"modelSamples,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Score reads one JSON record from stdin and returns the class-1 probability.
// It never fails: every error path, including a panic, degrades to a
// structured result with a null score so the calling agent keeps running.
func (s *Scorer) Score(stdin io.Reader) (result *ScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("scoring panicked")
			result = errResult(fmt.Sprintf("internal error: %v", r))
		}
	}()

	modelPath := filepath.Join(s.modelDir, modelFile)
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return errResult("Model not trained yet")
	}

	var forest classifier.Forest
	if err := readJSON(modelPath, &forest); err != nil {
		return errResult(fmt.Sprintf("load model: %v", err))
	}
	var encoders encoderArtifact
	if err := readJSON(filepath.Join(s.modelDir, encodersFile), &encoders); err != nil {
		return errResult(fmt.Sprintf("load encoders: %v", err))
	}

	// Metadata is informational; a missing or corrupt file degrades to a
	// zero sample count rather than blocking the score.
	var meta Metadata
	metaPath := filepath.Join(s.modelDir, metaFile)
	if err := readJSON(metaPath, &meta); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("training metadata unreadable")
		meta = Metadata{}
	}

	input, err := io.ReadAll(stdin)
	if err != nil {
		return errResult(fmt.Sprintf("read stdin: %v", err))
	}
	trimmed := strings.TrimSpace(string(input))
	if trimmed == "" {
		return errResult("Empty stdin")
	}

	var row features.Record
	if err := json.Unmarshal([]byte(trimmed), &row); err != nil {
		return errResult(fmt.Sprintf("parse input: %v", err))
	}

	vec, err := features.Vector(row, encoders.CoinEncoder)
	if err != nil {
		return errResult(fmt.Sprintf("encode input: %v", err))
	}

	probs, err := forest.PredictProba(vec)
	if err != nil {
		return errResult(err.Error())
	}

	// A model fit on a degenerate single-class corpus has no class-1 column;
	// report a neutral score instead of guessing.
	score := 0.5
	for i, c := range forest.Classes {
		if c == 1 {
			score = probs[i]
		}
	}

	rounded := round4(score)
	samples := meta.SampleCount
	return &ScoreResult{Score: &rounded, ModelSamples: &samples}
}

func errResult(msg string) *ScoreResult {
	return &ScoreResult{Error: msg}
}
