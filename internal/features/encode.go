// Package features turns raw indicator snapshots into the fixed-width
// numeric vectors the confidence classifier is trained on.
package features

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// VectorLen is the width of every feature vector. The persisted model is fit
// against this exact column order, so changing it breaks existing artifacts.
const VectorLen = 15

// UnknownCoin is the reserved encoder key for symbols not seen during training.
const UnknownCoin = "_unknown"

// Record is one decoded trade snapshot or historical outcome. Fields are
// open-ended; every semantic field has a default substituted when absent.
type Record map[string]any

// CoinEncoder maps coin symbols to small integer codes. It is built once per
// training run and loaded read-only at scoring time.
type CoinEncoder map[string]int

var regimeCodes = map[string]float64{
	"quiet":          0,
	"ranging":        1,
	"trending":       2,
	"volatile_trend": 3,
}

var sideCodes = map[string]float64{
	"long":  0,
	"short": 1,
}

var ruleCodes = map[string]float64{
	"R1-mean-reversion": 0,
	"R2-mean-reversion": 1,
	"R3-trend":          2,
	"R4-trend":          3,
	"R6-sentiment":      4,
}

const (
	contrarianRuleCode = 5 // any "C-" prefixed rule
	defaultRuleCode    = 3 // R4-trend
	defaultRegimeCode  = 1 // ranging
	defaultSideCode    = 0 // long
)

// Float returns the field as a float64, substituting def when the field is
// absent. String and boolean values are coerced the same way the training
// corpus writers produce them; a present but unconvertible value is an error
// so the caller can count the row as skipped.
func (r Record) Float(key string, def float64) (float64, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q: cannot use %T as number", key, v)
	}
}

// String returns the field as a string, substituting def when absent.
// Non-string values are stringified rather than rejected.
func (r Record) String(key, def string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether the field is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// BuildCoinEncoder derives the coin→code mapping from the full training
// corpus: distinct symbols in sorted order, plus the reserved unknown code.
// It is rebuilt from scratch every run; there is no incremental merge.
func BuildCoinEncoder(rows []Record) CoinEncoder {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.String("coin", "BTC")] = struct{}{}
	}

	coins := make([]string, 0, len(seen))
	for c := range seen {
		coins = append(coins, c)
	}
	sort.Strings(coins)

	enc := make(CoinEncoder, len(coins)+1)
	for i, c := range coins {
		enc[c] = i
	}
	enc[UnknownCoin] = len(coins)
	return enc
}

func encodeRule(rule string) float64 {
	if strings.HasPrefix(rule, "C-") {
		return contrarianRuleCode
	}
	if code, ok := ruleCodes[rule]; ok {
		return code
	}
	return defaultRuleCode
}

// Vector encodes one record into the 15-element feature vector. It is pure
// and deterministic; absent fields take documented defaults and unknown
// categorical values resolve to fallback codes instead of failing. Only a
// present-but-malformed field yields an error.
func Vector(r Record, coins CoinEncoder) ([]float64, error) {
	adx, err := r.Float("adx", 25)
	if err != nil {
		return nil, err
	}
	plusDI, err := r.Float("plus_di", 20)
	if err != nil {
		return nil, err
	}
	minusDI, err := r.Float("minus_di", 20)
	if err != nil {
		return nil, err
	}

	side := r.String("side", "long")
	// Signed DI spread: positive when the directional indicator points the
	// same way as the trade, for either side.
	diSpread := minusDI - plusDI
	if side == "long" {
		diSpread = plusDI - minusDI
	}

	rsi, err := r.Float("rsi", 50)
	if err != nil {
		return nil, err
	}
	macdHist, err := r.Float("macd_histogram", 0)
	if err != nil {
		return nil, err
	}
	bbWidth, err := r.Float("bb_width", 0.03)
	if err != nil {
		return nil, err
	}
	atrPct, err := r.Float("atr_pct", 0.01)
	if err != nil {
		return nil, err
	}

	regimeCode, ok := regimeCodes[r.String("regime", "ranging")]
	if !ok {
		regimeCode = defaultRegimeCode
	}
	sideCode, ok := sideCodes[side]
	if !ok {
		sideCode = defaultSideCode
	}
	ruleCode := encodeRule(r.String("rule", "R4-trend"))

	coinCode, ok := coins[r.String("coin", "BTC")]
	if !ok {
		coinCode = coins[UnknownCoin]
	}

	galaxy, err := r.Float("galaxy_score", 0)
	if err != nil {
		return nil, err
	}
	sentiment, err := r.Float("sentiment_pct", 50)
	if err != nil {
		return nil, err
	}
	altRank, err := r.Float("alt_rank", 500)
	if err != nil {
		return nil, err
	}
	altRankNorm := 1.0 - math.Min(altRank, 1000)/1000.0

	return []float64{
		adx,
		plusDI,
		minusDI,
		diSpread,
		rsi,
		macdHist,
		bbWidth,
		atrPct,
		regimeCode,
		sideCode,
		ruleCode,
		float64(coinCode),
		galaxy,
		sentiment,
		altRankNorm,
	}, nil
}
