// Package dataset reads newline-delimited JSON trade records.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"confscore/internal/features"
)

// LoadJSONL reads one record per line from path. Blank lines and lines that
// fail to parse are discarded; a single bad line never aborts the load.
func LoadJSONL(path string) ([]features.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	var rows []features.Record
	bad := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec features.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			bad++
			continue
		}
		rows = append(rows, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	if bad > 0 {
		log.Debug().Str("path", path).Int("discarded", bad).Msg("skipped malformed lines")
	}
	return rows, nil
}
