// Package store persists live trade outcomes in a local BoltDB file so the
// agent can accumulate them between training runs. Records are exported as
// newline-delimited JSON, the format the trainer's --live flag consumes.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"confscore/internal/features"
)

const outcomesBucket = "outcomes"

// Store wraps the BoltDB database holding recorded outcomes.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the outcome database under dataPath.
func Open(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "outcomes.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(outcomesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create outcomes bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append stores one outcome record keyed by coin and arrival time, so
// exports come back in roughly chronological order per symbol.
func (s *Store) Append(rec features.Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(outcomesBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal outcome: %w", err)
		}

		key := fmt.Sprintf("%s_%d", rec.String("coin", "BTC"), time.Now().UnixNano())
		return b.Put([]byte(key), data)
	})
}

// Count returns the number of stored outcomes.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(outcomesBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

// Export writes every stored outcome to w as one JSON object per line and
// returns the number of records written. Values are stored pre-marshaled,
// so the export is a straight copy.
func (s *Store) Export(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	count := 0

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(outcomesBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if _, err := bw.Write(v); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("export outcomes: %w", err)
	}
	return count, bw.Flush()
}
