// Package storage implements the durable key-value string stores that persisted coordinator state is mirrored into.
//
// Values are JSON snapshots written by [state.Container]; the stores treat them as opaque strings.
//   - [MemoryStore] : process-local map, used by tests and the "memory" driver
//   - [BoltStore] : single-file bbolt database, one bucket
//   - [SQLiteStore] : kv table in the shared SQLite database (see internal/shared/sql)
package storage

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/desertthunder/ytplay/internal/shared"
)

// Store is a key-value string store.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Open returns the store selected by cfg.Driver. The sqlite driver uses db, which must already be migrated.
func Open(cfg shared.StorageConfig, db *sql.DB) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "bolt":
		return NewBoltStore(cfg.Path)
	case "sqlite":
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite storage requires a database", shared.ErrInvalidConfig)
		}
		return NewSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownStorageDriver, cfg.Driver)
	}
}

// MemoryStore keeps values in a map.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
