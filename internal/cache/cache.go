// Package cache persists classification results keyed by file content, so
// unchanged files are not parsed again. Results live in a bbolt database;
// writes are transactional, so an interrupted run cannot corrupt earlier
// entries.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"
	bolt "go.etcd.io/bbolt"

	"github.com/phobologic/declscan/internal/classify"
)

// schemaVersion is part of every key; bump it when Result changes shape or
// meaning.
const schemaVersion = 1

var bucketResults = []byte("results")

// Store is a content-addressed result cache. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) a cache database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResults)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives the cache key for a file's content under a language and
// classifier options.
func Key(language string, opts classify.Options, source []byte) []byte {
	flags := 0
	if opts.ClassLevelIsStatic {
		flags |= 1
	}
	h := xxh3.Hash128(source).Bytes()
	return fmt.Appendf(nil, "v%d/%s/%d/%x", schemaVersion, language, flags, h[:])
}

// Get returns the cached result for key. A missing or undecodable entry is a
// miss.
func (s *Store) Get(key []byte) (*classify.Result, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			// Copy: bbolt memory is only valid inside the transaction.
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache read: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}
	var res classify.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, nil
	}
	return &res, true, nil
}

// Put stores res under key. Concurrent calls are coalesced into shared
// transactions.
func (s *Store) Put(key []byte, res *classify.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.db.Batch(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketResults)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// Len returns the number of cached results.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketResults); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}
