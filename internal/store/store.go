package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketCollections = []byte("collections")
	bucketSession     = []byte("session")
	bucketSettings    = []byte("settings")
)

// Session keys within bucketSession
const (
	keyToken        = "token"
	keyRefreshToken = "refreshToken"
	keyUser         = "user"
)

// Store is the process-wide persisted key/value store backing the local
// backend, the session and the mode flag. It is the stand-in for the
// browser's persisted storage: one serialized blob per key.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// Open opens (or creates) the store at dir. An empty dir yields a
// memory-only store with no persistence.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "shelfdesk.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCollections, bucketSession, bucketSettings} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *Store) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *Store) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

// === Collections ===

// GetRecords loads the serialized collection stored under key.
// Returns false when the collection has never been written.
func (s *Store) GetRecords(key string, dest interface{}) bool {
	return s.get(bucketCollections, key, dest)
}

// SaveRecords persists the full collection under key.
func (s *Store) SaveRecords(key string, records interface{}) error {
	return s.set(bucketCollections, key, records)
}

// GetSequence returns the identity high-water mark for a collection.
func (s *Store) GetSequence(key string) int {
	var seq int
	s.get(bucketCollections, key+"#seq", &seq)
	return seq
}

// SaveSequence persists the identity high-water mark for a collection.
func (s *Store) SaveSequence(key string, seq int) error {
	return s.set(bucketCollections, key+"#seq", seq)
}

// === Session ===

// GetSession loads the persisted session. Returns false when no access
// token is stored, which means unauthenticated.
func (s *Store) GetSession() (domain.Session, bool) {
	var sess domain.Session
	if !s.get(bucketSession, keyToken, &sess.AccessToken) || sess.AccessToken == "" {
		return domain.Session{}, false
	}
	s.get(bucketSession, keyRefreshToken, &sess.RefreshToken)
	s.get(bucketSession, keyUser, &sess.User)
	return sess, true
}

// SaveSession persists the token pair and the user snapshot.
func (s *Store) SaveSession(sess domain.Session) error {
	if err := s.set(bucketSession, keyToken, sess.AccessToken); err != nil {
		return err
	}
	if sess.RefreshToken != "" {
		if err := s.set(bucketSession, keyRefreshToken, sess.RefreshToken); err != nil {
			return err
		}
	}
	return s.set(bucketSession, keyUser, sess.User)
}

// SaveUser updates only the cached profile snapshot.
func (s *Store) SaveUser(user domain.User) error {
	return s.set(bucketSession, keyUser, user)
}

// ClearSession removes the token pair and the user snapshot.
func (s *Store) ClearSession() {
	s.delete(bucketSession, keyToken)
	s.delete(bucketSession, keyRefreshToken)
	s.delete(bucketSession, keyUser)
}

// === Settings ===

// GetFlag reads a boolean setting. The second return is false when the
// flag has never been written.
func (s *Store) GetFlag(key string) (value, ok bool) {
	ok = s.get(bucketSettings, key, &value)
	return value, ok
}

// SetFlag persists a boolean setting.
func (s *Store) SetFlag(key string, value bool) error {
	return s.set(bucketSettings, key, value)
}
