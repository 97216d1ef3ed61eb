package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketEngagement = []byte("engagement")
)

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("store is closed")

// KVStore implements domain.Store using BoltDB.
type KVStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache and closed flag

	// In-memory copy of every value read or written (promoted on access).
	// In memory-only mode this is the only copy.
	cache  map[string][]byte
	closed bool
}

// NewKVStore opens the store under baseDir. Each server URL gets its own
// database since artwork IDs are only meaningful per server.
// An empty baseDir selects memory-only mode.
func NewKVStore(baseDir, serverURL string) (*KVStore, error) {
	if baseDir == "" {
		return &KVStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseDir
	if serverURL != "" {
		dir = filepath.Join(baseDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "artshelf.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEngagement)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &KVStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Path returns the database file path, or "" in memory-only mode
func (s *KVStore) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns a copy of the value stored under key, nil if absent.
func (s *KVStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return clone(data), nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketEngagement).Get([]byte(key)); v != nil {
			data = clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if data == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return clone(data), nil
}

// Update reads key, passes it to fn and writes the result in one transaction.
// The current value is always read from disk so writes made by another
// process since our last read are seen by fn.
func (s *KVStore) Update(key string, fn func(current []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.db == nil {
		next, err := fn(clone(s.cache[key]))
		if err != nil {
			return err
		}
		s.setCached(key, next)
		return nil
	}

	var next []byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEngagement)

		var current []byte
		if v := b.Get([]byte(key)); v != nil {
			current = clone(v)
		}

		var err error
		next, err = fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return b.Delete([]byte(key))
		}
		return b.Put([]byte(key), next)
	})
	if err != nil {
		return err
	}

	s.setCached(key, next)
	return nil
}

// Delete removes key from memory and disk.
func (s *KVStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	delete(s.cache, key)

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEngagement).Delete([]byte(key))
	})
}

// setCached must be called with mu held
func (s *KVStore) setCached(key string, value []byte) {
	if value == nil {
		delete(s.cache, key)
		return
	}
	s.cache[key] = clone(value)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
