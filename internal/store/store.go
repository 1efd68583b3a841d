// Package store persists projects: one table snapshot plus the metadata
// synthesized from it. Every commit replaces both together or neither.
package store

import (
	"context"
	"sync"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/project"
)

// Store is implemented by the filesystem and SQLite backends.
type Store interface {
	// Create persists a new project with its initial snapshot and metadata.
	Create(ctx context.Context, p *project.Project, t *dataset.Table, md *dataset.Metadata) error
	Get(ctx context.Context, name string) (*project.Project, error)
	List(ctx context.Context) ([]*project.Project, error)
	LoadSnapshot(ctx context.Context, name string) (*dataset.Table, error)
	// Commit atomically replaces the snapshot and metadata of an existing project.
	Commit(ctx context.Context, name string, t *dataset.Table, md *dataset.Metadata) error
	Delete(ctx context.Context, name string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
)

// KeyedMutex serializes work per key. Entries are reference counted and
// dropped when the last holder unlocks.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is held and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
