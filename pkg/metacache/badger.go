package metacache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore persists cache entries in a local badger key-value store.
// Entries carry a native badger TTL of several times their logical TTL:
// logical expiry is enforced by the cache, the native TTL just bounds how
// long stale data lingers on disk.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)
var _ StatsProvider = (*BadgerStore)(nil)

// retentionFactor is how many logical TTLs an entry survives on disk, so
// stale entries stay readable for revalidation.
const retentionFactor = 4

// NewBadgerStore opens (creating if needed) a badger store at dbPath.
func NewBadgerStore(dbPath string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // badger's own logging is too chatty for a cache

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", dbPath, err)
	}

	slog.Info("metadata cache store initialized", "path", dbPath, "backend", "badger")
	return &BadgerStore{db: db}, nil
}

// Read implements Store.
func (s *BadgerStore) Read(key string) (*Entry, error) {
	var entry *Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var e Entry
			if err := json.Unmarshal(val, &e); err != nil {
				return fmt.Errorf("%w: key %s: %v", ErrCorrupt, key, err)
			}
			entry = &e
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Write implements Store.
func (s *BadgerStore) Write(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(entry.Key), data).
			WithTTL(time.Duration(retentionFactor) * entry.TTL)
		return txn.SetEntry(e)
	})
}

// Delete implements Store.
func (s *BadgerStore) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Stats returns entry counts for the cache subcommands.
func (s *BadgerStore) Stats() (map[string]any, error) {
	var total, failed, expired int
	now := time.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			total++
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return nil // counted in total only
				}
				if e.FailureCount > 0 {
					failed++
				}
				if e.Expired(now, 1) {
					expired++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate badger store: %w", err)
	}

	return map[string]any{
		"total_entries":   total,
		"failed_entries":  failed,
		"expired_entries": expired,
	}, nil
}
