package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"confscore/internal/cfg"
	"confscore/internal/features"
	"confscore/internal/model"
	"confscore/internal/store"
)

// The process writes exactly one JSON object to stdout per invocation; all
// logging goes to stderr so the calling agent can parse the result blindly.
func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "", "train | score | record | export")
	data := flag.String("data", "", "path to historical JSONL data (train mode)")
	live := flag.String("live", "", "optional path to live outcome JSONL data (train mode)")
	out := flag.String("out", "", "output path for exported JSONL (export mode)")
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setLogLevel(c.LogLevel)

	switch *mode {
	case "train":
		runTrain(c, *data, *live)
	case "score":
		runScore(c)
	case "record":
		runRecord(c)
	case "export":
		runExport(c, *out)
	default:
		fmt.Fprintln(os.Stderr, "usage: confscore --mode train|score|record|export [--data path] [--live path] [--out path]")
		os.Exit(2)
	}
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// runTrain reports structured errors on stdout with a non-zero exit so the
// orchestrator can distinguish a failed run from a bad invocation.
func runTrain(c cfg.Settings, data, live string) {
	if data == "" {
		emit(map[string]string{"error": "--data is required for training"})
		os.Exit(1)
	}

	result, err := model.NewTrainer(c.ModelDir, c.Classifier).Train(data, live)
	if err != nil {
		emit(map[string]string{"error": err.Error()})
		os.Exit(1)
	}
	emit(result)
}

// runScore always exits 0: a null score with an error string is a valid
// "no opinion" answer for the caller.
func runScore(c cfg.Settings) {
	emit(model.NewScorer(c.ModelDir).Score(os.Stdin))
}

// runRecord appends one live outcome (JSON on stdin) to the local store.
func runRecord(c cfg.Settings) {
	if c.DataPath == "" {
		log.Fatal().Msg("DATA_PATH must be configured for record mode")
	}

	st, err := store.Open(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open outcome store")
	}
	defer st.Close()

	var rec features.Record
	if err := json.NewDecoder(os.Stdin).Decode(&rec); err != nil {
		log.Fatal().Err(err).Msg("invalid outcome record on stdin")
	}

	if err := st.Append(rec); err != nil {
		log.Fatal().Err(err).Msg("store outcome")
	}
	log.Info().Str("coin", rec.String("coin", "BTC")).Msg("outcome recorded")
}

// runExport dumps the outcome store as JSONL for the trainer's --live flag.
func runExport(c cfg.Settings, out string) {
	if c.DataPath == "" {
		log.Fatal().Msg("DATA_PATH must be configured for export mode")
	}
	if out == "" {
		log.Fatal().Msg("--out is required for export mode")
	}

	st, err := store.Open(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open outcome store")
	}
	defer st.Close()

	f, err := os.Create(out)
	if err != nil {
		log.Fatal().Err(err).Msg("create export file")
	}
	defer f.Close()

	n, err := st.Export(f)
	if err != nil {
		log.Fatal().Err(err).Msg("export outcomes")
	}
	log.Info().Int("records", n).Str("path", out).Msg("outcomes exported")
}

func emit(v any) {
	if err := json.NewEncoder(os.Stdout).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write result")
	}
}
