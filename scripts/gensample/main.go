// Generates a synthetic labeled outcome dataset for training experiments.
// The win probability is tied to RSI and DI spread so a trained model has
// real structure to find.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
)

var (
	coins   = []string{"BTC", "ETH", "SOL", "AVAX", "DOGE"}
	regimes = []string{"quiet", "ranging", "trending", "volatile_trend"}
	rules   = []string{"R1-mean-reversion", "R2-mean-reversion", "R3-trend", "R4-trend", "R6-sentiment", "C-oversold"}
)

func main() {
	var (
		outputPath = flag.String("output", "sample_trades.jsonl", "Output JSONL file path")
		count      = flag.Int("count", 500, "Number of records to generate")
		seed       = flag.Int64("seed", 1, "RNG seed")
	)
	flag.Parse()

	fmt.Printf("Generating %d sample trade outcomes...\n", *count)

	f, err := os.Create(*outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	enc := json.NewEncoder(f)

	for i := 0; i < *count; i++ {
		side := "long"
		if rng.Float64() < 0.4 {
			side = "short"
		}

		plusDI := 10 + rng.Float64()*25
		minusDI := 10 + rng.Float64()*25
		rsi := 20 + rng.Float64()*60

		spread := plusDI - minusDI
		if side == "short" {
			spread = minusDI - plusDI
		}

		// Favorable DI spread and a non-extreme RSI push the win odds up.
		winProb := 0.35 + 0.015*spread
		if rsi > 35 && rsi < 70 {
			winProb += 0.1
		}
		pnl := rng.NormFloat64() * 2
		if rng.Float64() < winProb {
			pnl = 0.5 + rng.Float64()*5
		} else if pnl >= 0 {
			pnl = -0.5 - rng.Float64()*3
		}

		record := map[string]any{
			"coin":           coins[rng.Intn(len(coins))],
			"side":           side,
			"regime":         regimes[rng.Intn(len(regimes))],
			"rule":           rules[rng.Intn(len(rules))],
			"adx":            15 + rng.Float64()*30,
			"plus_di":        plusDI,
			"minus_di":       minusDI,
			"rsi":            rsi,
			"macd_histogram": rng.NormFloat64() * 0.5,
			"bb_width":       0.01 + rng.Float64()*0.06,
			"atr_pct":        0.005 + rng.Float64()*0.03,
			"galaxy_score":   30 + rng.Float64()*50,
			"sentiment_pct":  20 + rng.Float64()*60,
			"alt_rank":       float64(rng.Intn(2000)),
			"pnl":            pnl,
		}
		if err := enc.Encode(record); err != nil {
			log.Fatalf("Failed to write record: %v", err)
		}
	}

	fmt.Printf("Wrote %d records to %s\n", *count, *outputPath)
}
