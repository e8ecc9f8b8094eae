package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"sheetbudget/internal/domain"
	"sheetbudget/internal/errclass"
	"sheetbudget/internal/pending"
	"sheetbudget/internal/rowmap"
)

// CategoryService owns the category cache and its pending queue. It also
// serves as the category resolver the movement service derives types from.
type CategoryService struct {
	core

	store    RowStore
	adapter  rowmap.CategoryAdapter
	cache    map[string]*domain.Category
	statuses map[string]SyncStatus
	queue    *pending.Queue[*domain.Category]
}

// CategoryServiceOption configures a CategoryService.
type CategoryServiceOption func(*CategoryService)

// WithCategoryLogger sets the service logger.
func WithCategoryLogger(log zerolog.Logger) CategoryServiceOption {
	return func(s *CategoryService) { s.log = log }
}

// NewCategoryService assembles a category service over the given store.
func NewCategoryService(store RowStore, opts ...CategoryServiceOption) *CategoryService {
	s := &CategoryService{
		core:     newCore(),
		store:    store,
		cache:    map[string]*domain.Category{},
		statuses: map[string]SyncStatus{},
		queue:    pending.NewQueue[*domain.Category](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the cache with the remote sheet contents. On failure the
// cache keeps its last good state and the service goes offline.
func (s *CategoryService) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	rows, err := s.store.Read(ctx, s.adapter.SheetName())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.markOffline(err)
		return fmt.Errorf("Load categories: %w", err)
	}

	s.cache = map[string]*domain.Category{}
	for i := 1; i < len(rows); i++ {
		c := s.adapter.FromRow(rows[i])
		if c.ID == "" {
			continue
		}
		s.cache[c.ID] = c
		s.statuses[c.ID] = StatusSynced
	}
	s.markOnline()
	return nil
}

// List returns the cached categories sorted by name.
func (s *CategoryService) List() []*domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Category, 0, len(s.cache))
	for _, c := range s.cache {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the cached category with the given id.
func (s *CategoryService) Get(id string) (*domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cache[id]
	if !ok {
		return nil, false
	}
	copied := *c
	return &copied, true
}

// CategoryByID satisfies the movement service's resolver.
func (s *CategoryService) CategoryByID(id string) (*domain.Category, bool) {
	return s.Get(id)
}

// Create validates and stores a new category. The remote write failing does
// not fail the call; the mutation is queued and the category gets a local id
// until replay confirms it.
func (s *CategoryService) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	created := *c
	if created.ID == "" {
		created.ID = domain.NewID()
	}
	if err := created.Validate(); err != nil {
		return nil, err
	}

	row, err := s.adapter.ToRow(&created)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.statuses[created.ID] = StatusPendingRemote
	s.mu.Unlock()

	_, remoteErr := s.store.UpsertByID(ctx, s.adapter.SheetName(), created.ID, row, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	if remoteErr != nil {
		s.markOffline(remoteErr)
		delete(s.statuses, created.ID)
		created.ID = domain.NewLocalID()
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindCreate, &created)
			s.statuses[created.ID] = StatusQueued
			s.log.Warn().Err(remoteErr).Str("category", created.ID).Msg("Category create queued for replay")
		}
	} else {
		s.markOnline()
		s.statuses[created.ID] = StatusSynced
	}

	s.cache[created.ID] = &created
	result := created
	return &result, nil
}

// Update validates and stores changes to an existing category. The category
// type is immutable once set.
func (s *CategoryService) Update(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	updated := *c
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.cache[updated.ID]; ok && existing.Type != updated.Type {
		s.mu.Unlock()
		return nil, &domain.ValidationError{Entity: "category", Field: "type", Reason: "is immutable"}
	}
	s.mu.Unlock()

	row, err := s.adapter.ToRow(&updated)
	if err != nil {
		return nil, err
	}

	_, remoteErr := s.store.UpsertByID(ctx, s.adapter.SheetName(), updated.ID, row, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	if remoteErr != nil {
		s.markOffline(remoteErr)
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindUpdate, &updated)
			s.statuses[updated.ID] = StatusQueued
		}
	} else {
		s.markOnline()
		s.statuses[updated.ID] = StatusSynced
	}

	s.cache[updated.ID] = &updated
	result := updated
	return &result, nil
}

// Delete removes a category. The remote row is cleared in place; positions of
// the remaining rows are preserved.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	_, remoteErr := s.store.DeleteByID(ctx, s.adapter.SheetName(), id, s.adapter.ColumnCount(), 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	if remoteErr != nil {
		s.markOffline(remoteErr)
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindDelete, &domain.Category{ID: id})
		}
	} else {
		s.markOnline()
	}

	delete(s.cache, id)
	delete(s.statuses, id)
	return nil
}

// ProcessQueue replays the pending mutations in enqueue order. Successes
// leave the queue; failures stay for the next pass.
func (s *CategoryService) ProcessQueue(ctx context.Context) ReplayResult {
	var result ReplayResult
	for _, op := range s.queue.Snapshot() {
		if err := s.replay(ctx, op); err != nil {
			result.Failed++
			s.mu.Lock()
			s.markOffline(err)
			s.mu.Unlock()
			s.log.Warn().Err(err).Str("op", string(op.Kind)).Str("category", op.Payload.ID).Msg("Queued category mutation failed replay")
			continue
		}
		result.Success++
		s.queue.Remove(op.ID)
		s.mu.Lock()
		s.statuses[op.Payload.ID] = StatusSynced
		s.mu.Unlock()
	}

	if result.Failed == 0 {
		s.mu.Lock()
		s.markOnline()
		s.mu.Unlock()
	}
	return result
}

func (s *CategoryService) replay(ctx context.Context, op pending.Op[*domain.Category]) error {
	if op.Kind == pending.KindDelete {
		_, err := s.store.DeleteByID(ctx, s.adapter.SheetName(), op.Payload.ID, s.adapter.ColumnCount(), 0)
		return err
	}
	row, err := s.adapter.ToRow(op.Payload)
	if err != nil {
		return err
	}
	_, err = s.store.UpsertByID(ctx, s.adapter.SheetName(), op.Payload.ID, row, 0)
	return err
}

// State returns a snapshot of the sync state.
func (s *CategoryService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(s.queue.Len())
}

// EntityStatus returns the sync phase of one cached category.
func (s *CategoryService) EntityStatus(id string) (SyncStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[id]
	return st, ok
}

// Reset drops the cache, the queue and all sync state, for logout or
// spreadsheet switch.
func (s *CategoryService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = map[string]*domain.Category{}
	s.statuses = map[string]SyncStatus{}
	s.queue.Clear()
	s.online = true
	s.loading = false
	s.lastErr = nil
	s.lastSync = time.Time{}
}
