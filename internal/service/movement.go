package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"sheetbudget/internal/domain"
	"sheetbudget/internal/errclass"
	"sheetbudget/internal/pending"
	"sheetbudget/internal/rowmap"
)

// CategoryResolver resolves category references at movement write time. The
// category service satisfies it.
type CategoryResolver interface {
	CategoryByID(id string) (*domain.Category, bool)
}

// MovementInput carries the caller-supplied fields of a movement mutation.
// The Type field is advisory only: the referenced category's fixed type
// always decides the stored type.
type MovementInput struct {
	Date        time.Time
	Amount      decimal.Decimal
	CategoryID  string
	Description string
	Type        domain.MovementType
}

// MovementService owns the movement cache, its pending queue and the monthly
// aggregates derived from the cache.
type MovementService struct {
	core

	store      RowStore
	categories CategoryResolver
	adapter    rowmap.MovementAdapter
	summaries  rowmap.SummaryAdapter
	cache      map[string]*domain.Movement
	statuses   map[string]SyncStatus
	queue      *pending.Queue[*domain.Movement]
}

// MovementServiceOption configures a MovementService.
type MovementServiceOption func(*MovementService)

// WithMovementLogger sets the service logger.
func WithMovementLogger(log zerolog.Logger) MovementServiceOption {
	return func(s *MovementService) { s.log = log }
}

// WithMovementClock injects the clock. Test hook.
func WithMovementClock(now func() time.Time) MovementServiceOption {
	return func(s *MovementService) { s.now = now }
}

// NewMovementService assembles a movement service over the given store and
// category resolver.
func NewMovementService(store RowStore, categories CategoryResolver, opts ...MovementServiceOption) *MovementService {
	s := &MovementService{
		core:       newCore(),
		store:      store,
		categories: categories,
		cache:      map[string]*domain.Movement{},
		statuses:   map[string]SyncStatus{},
		queue:      pending.NewQueue[*domain.Movement](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the cache with the remote sheet contents, skipping the header
// row and rows cleared by logical deletes.
func (s *MovementService) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	rows, err := s.store.Read(ctx, s.adapter.SheetName())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.markOffline(err)
		return fmt.Errorf("Load movements: %w", err)
	}

	s.cache = map[string]*domain.Movement{}
	for i := 1; i < len(rows); i++ {
		m := s.adapter.FromRow(rows[i])
		if m.ID == "" {
			continue
		}
		s.cache[m.ID] = m
		s.statuses[m.ID] = StatusSynced
	}
	s.markOnline()
	return nil
}

// List returns the cached movements sorted by date, newest first.
func (s *MovementService) List() []*domain.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Movement, 0, len(s.cache))
	for _, m := range s.cache {
		copied := *m
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns the cached movement with the given id.
func (s *MovementService) Get(id string) (*domain.Movement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.cache[id]
	if !ok {
		return nil, false
	}
	copied := *m
	return &copied, true
}

// Create validates and stores a new movement. The stored type is derived from
// the referenced category regardless of the input's type field. The remote
// write failing does not fail the call; the movement gets a temporary local
// id and the create is queued for replay.
func (s *MovementService) Create(ctx context.Context, in MovementInput) (*domain.Movement, error) {
	m, err := s.build(domain.NewID(), in)
	if err != nil {
		return nil, err
	}

	row, err := s.adapter.ToRow(m)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.statuses[m.ID] = StatusPendingRemote
	s.mu.Unlock()

	_, remoteErr := s.store.UpsertByID(ctx, s.adapter.SheetName(), m.ID, row, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	if remoteErr != nil {
		s.markOffline(remoteErr)
		delete(s.statuses, m.ID)
		m.ID = domain.NewLocalID()
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindCreate, m)
			s.statuses[m.ID] = StatusQueued
			s.log.Warn().Err(remoteErr).Str("movement", m.ID).Msg("Movement create queued for replay")
		}
	} else {
		s.markOnline()
		s.statuses[m.ID] = StatusSynced
	}

	s.cache[m.ID] = m
	result := *m
	return &result, nil
}

// Update validates and stores changes to an existing movement. Type
// derivation applies on update too; the category stays the single source of
// truth.
func (s *MovementService) Update(ctx context.Context, id string, in MovementInput) (*domain.Movement, error) {
	m, err := s.build(id, in)
	if err != nil {
		return nil, err
	}

	row, err := s.adapter.ToRow(m)
	if err != nil {
		return nil, err
	}

	_, remoteErr := s.store.UpsertByID(ctx, s.adapter.SheetName(), m.ID, row, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	if remoteErr != nil {
		s.markOffline(remoteErr)
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindUpdate, m)
			s.statuses[m.ID] = StatusQueued
		}
	} else {
		s.markOnline()
		s.statuses[m.ID] = StatusSynced
	}

	s.cache[m.ID] = m
	result := *m
	return &result, nil
}

// Delete removes a movement. The remote row is cleared in place.
func (s *MovementService) Delete(ctx context.Context, id string) error {
	_, remoteErr := s.store.DeleteByID(ctx, s.adapter.SheetName(), id, s.adapter.ColumnCount(), 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	if remoteErr != nil {
		s.markOffline(remoteErr)
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindDelete, &domain.Movement{ID: id})
		}
	} else {
		s.markOnline()
	}

	delete(s.cache, id)
	delete(s.statuses, id)
	return nil
}

// build assembles and validates a movement from caller input, deriving the
// effective type from the referenced category's fixed type.
func (s *MovementService) build(id string, in MovementInput) (*domain.Movement, error) {
	cat, ok := s.categories.CategoryByID(in.CategoryID)
	if !ok {
		return nil, &domain.ValidationError{Entity: "movement", Field: "categoryId", Reason: "references unknown category"}
	}

	m := &domain.Movement{
		ID:          id,
		Date:        in.Date,
		Amount:      in.Amount,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Type:        cat.Type.MovementType(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ProcessQueue replays the pending mutations in enqueue order. Successes
// leave the queue; failures stay for the next pass.
func (s *MovementService) ProcessQueue(ctx context.Context) ReplayResult {
	var result ReplayResult
	for _, op := range s.queue.Snapshot() {
		if err := s.replay(ctx, op); err != nil {
			result.Failed++
			s.mu.Lock()
			s.markOffline(err)
			s.mu.Unlock()
			s.log.Warn().Err(err).Str("op", string(op.Kind)).Str("movement", op.Payload.ID).Msg("Queued movement mutation failed replay")
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

func (s *MovementService) replay(ctx context.Context, op pending.Op[*domain.Movement]) error {
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

// MonthlySummary aggregates the cached movements of one YYYY-MM month. Pure
// computation over the cache; never triggers I/O.
func (s *MovementService) MonthlySummary(month string) (*domain.MonthlySummary, error) {
	summary := &domain.MonthlySummary{
		ID:         "sum-" + month,
		Month:      month,
		ByCategory: map[string]decimal.Decimal{},
		UpdatedAt:  s.now(),
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.cache {
		if !strings.HasPrefix(m.Date.Format(domain.DateFormat), month) {
			continue
		}
		summary.MovementCount++
		if m.Type == domain.Income {
			summary.TotalIncome = summary.TotalIncome.Add(m.Amount)
		} else {
			summary.TotalExpense = summary.TotalExpense.Add(m.Amount)
		}
		summary.ByCategory[m.CategoryID] = summary.ByCategory[m.CategoryID].Add(m.Amount)
	}
	summary.Net = summary.TotalIncome.Sub(summary.TotalExpense)
	return summary, nil
}

// PublishSummary writes a month's aggregate row to the summaries sheet. The
// row is derivable from the movement cache at any time, so a failed write is
// returned as an error rather than queued.
func (s *MovementService) PublishSummary(ctx context.Context, month string) (*domain.MonthlySummary, error) {
	summary, err := s.MonthlySummary(month)
	if err != nil {
		return nil, err
	}

	row, err := s.summaries.ToRow(summary)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.UpsertByID(ctx, s.summaries.SheetName(), summary.ID, row, 0); err != nil {
		s.mu.Lock()
		s.markOffline(err)
		s.mu.Unlock()
		return nil, fmt.Errorf("PublishSummary %s: %w", month, err)
	}

	s.mu.Lock()
	s.markOnline()
	s.mu.Unlock()
	return summary, nil
}

// State returns a snapshot of the sync state.
func (s *MovementService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(s.queue.Len())
}

// EntityStatus returns the sync phase of one cached movement.
func (s *MovementService) EntityStatus(id string) (SyncStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[id]
	return st, ok
}

// Reset drops the cache, the queue and all sync state.
func (s *MovementService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = map[string]*domain.Movement{}
	s.statuses = map[string]SyncStatus{}
	s.queue.Clear()
	s.online = true
	s.loading = false
	s.lastErr = nil
	s.lastSync = time.Time{}
}
