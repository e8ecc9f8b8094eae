// Package service holds the entity services: each owns an in-memory cache of
// its entities and a pending-operation queue, and applies write-through
// semantics per mutation. A mutation validates first (validation failures
// propagate before any I/O), then attempts the remote write; on failure the
// service goes offline, enqueues the mutation for later replay, and still
// applies it to the cache so callers see their intent immediately. Reads
// propagate failures and leave the cache at its last good state.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sheetbudget/internal/sheets"
)

// RowStore is the slice of the sheets client the services depend on.
type RowStore interface {
	Read(ctx context.Context, readRange string) ([]sheets.Row, error)
	BatchRead(ctx context.Context, ranges []string) (map[string][]sheets.Row, error)
	UpsertByID(ctx context.Context, sheetName, id string, row sheets.Row, idColumnIndex int) (*sheets.UpsertResult, error)
	DeleteByID(ctx context.Context, sheetName, id string, columnCount, idColumnIndex int) (bool, error)
}

// SyncStatus is the per-entity synchronization phase.
type SyncStatus string

const (
	// StatusPendingRemote marks an entity whose write-through attempt is in
	// flight.
	StatusPendingRemote SyncStatus = "pending-remote"
	// StatusSynced marks an entity the remote store has confirmed.
	StatusSynced SyncStatus = "synced"
	// StatusQueued marks an entity whose last mutation sits in the queue.
	StatusQueued SyncStatus = "queued-for-retry"
)

// State is the polled introspection surface exposed to the UI layer. It lets
// the caller distinguish fully synced, offline with pending mutations, and
// hard errors requiring a recovery action.
type State struct {
	IsOnline     bool
	IsLoading    bool
	Error        string
	QueueLength  int
	LastSyncTime time.Time
}

// ReplayResult counts the outcome of one queue replay pass.
type ReplayResult struct {
	Success int
	Failed  int
}

// core carries the sync bookkeeping shared by all entity services. The
// embedding service's mutex also guards its cache and status map.
type core struct {
	mu       sync.Mutex
	online   bool
	loading  bool
	lastErr  error
	lastSync time.Time
	now      func() time.Time
	log      zerolog.Logger
}

func newCore() core {
	return core{
		online: true,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
}

// markOnline records a confirmed remote write. Caller holds the lock.
func (c *core) markOnline() {
	c.online = true
	c.lastErr = nil
	c.lastSync = c.now()
}

// markOffline records a failed remote interaction. Caller holds the lock.
func (c *core) markOffline(err error) {
	c.online = false
	c.lastErr = err
}

func (c *core) state(queueLength int) State {
	s := State{
		IsOnline:     c.online,
		IsLoading:    c.loading,
		QueueLength:  queueLength,
		LastSyncTime: c.lastSync,
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}
