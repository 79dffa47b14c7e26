package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"confscore/internal/features"
)

// Artifact file names inside the model directory. Scoring loads whatever
// training last wrote under these names; there is no versioning scheme.
const (
	modelFile    = "confidence_model.json"
	encodersFile = "label_encoders.json"
	metaFile     = "training_meta.json"
)

// encoderArtifact wraps the categorical encoders so the file format has room
// for additional encoders without renaming the artifact.
type encoderArtifact struct {
	CoinEncoder features.CoinEncoder `json:"coin_encoder"`
}

// Metadata describes the last training run. It is informational only; the
// scorer reports SampleCount alongside each score.
type Metadata struct {
	SampleCount   int       `json:"sampleCount"`
	Accuracy      float64   `json:"accuracy"`
	LastTrainedAt string    `json:"lastTrainedAt"`
	CVScores      []float64 `json:"cvScores"`
	Skipped       int       `json:"skipped"`
}

// writeJSONAtomic marshals v into dir/name via a temp file and rename, so a
// concurrently running scorer never reads a half-written artifact.
func writeJSONAtomic(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
