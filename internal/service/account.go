package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"sheetbudget/internal/domain"
	"sheetbudget/internal/errclass"
	"sheetbudget/internal/pending"
	"sheetbudget/internal/rowmap"
)

// AccountInput carries the caller-supplied fields of an account mutation.
type AccountInput struct {
	Name    string
	Icon    string
	Balance decimal.Decimal
}

// AccountService owns the account cache, the balance history and the pending
// queue. Balance changes record a per-day snapshot as a side effect.
type AccountService struct {
	core

	store     RowStore
	adapter   rowmap.AccountAdapter
	snapshots rowmap.SnapshotAdapter
	cache     map[string]*domain.Account
	history   map[string]*domain.BalanceSnapshot // keyed by name + date
	statuses  map[string]SyncStatus
	queue     *pending.Queue[*domain.Account]
}

// AccountServiceOption configures an AccountService.
type AccountServiceOption func(*AccountService)

// WithAccountLogger sets the service logger.
func WithAccountLogger(log zerolog.Logger) AccountServiceOption {
	return func(s *AccountService) { s.log = log }
}

// WithAccountClock injects the clock deciding "today" for snapshots. Test
// hook.
func WithAccountClock(now func() time.Time) AccountServiceOption {
	return func(s *AccountService) { s.now = now }
}

// NewAccountService assembles an account service over the given store.
func NewAccountService(store RowStore, opts ...AccountServiceOption) *AccountService {
	s := &AccountService{
		core:     newCore(),
		store:    store,
		cache:    map[string]*domain.Account{},
		history:  map[string]*domain.BalanceSnapshot{},
		statuses: map[string]SyncStatus{},
		queue:    pending.NewQueue[*domain.Account](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func snapshotKey(accountName string, date time.Time) string {
	return accountName + "|" + date.Format(domain.DateFormat)
}

// Load replaces the account cache and the balance history with the remote
// contents, fetched in one batch round trip.
func (s *AccountService) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	ranges := []string{s.adapter.SheetName(), s.snapshots.SheetName()}
	sheets, err := s.store.BatchRead(ctx, ranges)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.markOffline(err)
		return fmt.Errorf("Load accounts: %w", err)
	}

	s.cache = map[string]*domain.Account{}
	accountRows := sheets[s.adapter.SheetName()]
	for i := 1; i < len(accountRows); i++ {
		a := s.adapter.FromRow(accountRows[i])
		if a.ID == "" {
			continue
		}
		s.cache[a.ID] = a
		s.statuses[a.ID] = StatusSynced
	}

	s.history = map[string]*domain.BalanceSnapshot{}
	snapshotRows := sheets[s.snapshots.SheetName()]
	for i := 1; i < len(snapshotRows); i++ {
		snap := s.snapshots.FromRow(snapshotRows[i])
		if snap.ID == "" {
			continue
		}
		s.history[snapshotKey(snap.AccountName, snap.Date)] = snap
	}

	s.markOnline()
	return nil
}

// List returns the cached accounts sorted by name.
func (s *AccountService) List() []*domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Account, 0, len(s.cache))
	for _, a := range s.cache {
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the cached account with the given id.
func (s *AccountService) Get(id string) (*domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.cache[id]
	if !ok {
		return nil, false
	}
	copied := *a
	return &copied, true
}

// History returns the cached balance snapshots sorted by date then account
// name.
func (s *AccountService) History() []*domain.BalanceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.BalanceSnapshot, 0, len(s.history))
	for _, snap := range s.history {
		copied := *snap
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].AccountName < out[j].AccountName
	})
	return out
}

// NetWorth sums the cached account balances. Pure computation; never triggers
// I/O.
func (s *AccountService) NetWorth() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, a := range s.cache {
		total = total.Add(a.Balance)
	}
	return total
}

// Create validates and stores a new account, recording an initial balance
// snapshot. The remote write failing does not fail the call.
func (s *AccountService) Create(ctx context.Context, in AccountInput) (*domain.Account, error) {
	a := &domain.Account{
		ID:      domain.NewID(),
		Name:    in.Name,
		Icon:    in.Icon,
		Balance: in.Balance,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	row, err := s.adapter.ToRow(a)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.statuses[a.ID] = StatusPendingRemote
	s.mu.Unlock()

	_, remoteErr := s.store.UpsertByID(ctx, s.adapter.SheetName(), a.ID, row, 0)

	s.mu.Lock()
	if remoteErr != nil {
		s.markOffline(remoteErr)
		delete(s.statuses, a.ID)
		a.ID = domain.NewLocalID()
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindCreate, a)
			s.statuses[a.ID] = StatusQueued
			s.log.Warn().Err(remoteErr).Str("account", a.ID).Msg("Account create queued for replay")
		}
	} else {
		s.markOnline()
		s.statuses[a.ID] = StatusSynced
	}
	s.cache[a.ID] = a
	s.mu.Unlock()

	s.recordSnapshot(ctx, a)

	result := *a
	return &result, nil
}

// Update validates and stores changes to an existing account. A balance
// change records a snapshot for the current date as a best-effort side
// effect.
func (s *AccountService) Update(ctx context.Context, id string, in AccountInput) (*domain.Account, error) {
	a := &domain.Account{
		ID:      id,
		Name:    in.Name,
		Icon:    in.Icon,
		Balance: in.Balance,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	balanceChanged := true
	if existing, ok := s.cache[id]; ok {
		balanceChanged = !existing.Balance.Equal(a.Balance)
	}
	s.mu.Unlock()

	row, err := s.adapter.ToRow(a)
	if err != nil {
		return nil, err
	}

	_, remoteErr := s.store.UpsertByID(ctx, s.adapter.SheetName(), a.ID, row, 0)

	s.mu.Lock()
	if remoteErr != nil {
		s.markOffline(remoteErr)
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindUpdate, a)
			s.statuses[a.ID] = StatusQueued
		}
	} else {
		s.markOnline()
		s.statuses[a.ID] = StatusSynced
	}
	s.cache[a.ID] = a
	s.mu.Unlock()

	if balanceChanged {
		s.recordSnapshot(ctx, a)
	}

	result := *a
	return &result, nil
}

// Delete removes an account. History rows for the account are kept; the
// snapshot sheet is an append-mostly record.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	_, remoteErr := s.store.DeleteByID(ctx, s.adapter.SheetName(), id, s.adapter.ColumnCount(), 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	if remoteErr != nil {
		s.markOffline(remoteErr)
		if !errclass.IsHandled(remoteErr) {
			s.queue.Enqueue(pending.KindDelete, &domain.Account{ID: id})
		}
	} else {
		s.markOnline()
	}

	delete(s.cache, id)
	delete(s.statuses, id)
	return nil
}

// recordSnapshot writes a balance snapshot for the account and the current
// date. At most one snapshot exists per (account name, date); a second write
// the same day updates it in place. Strictly best-effort: failures are logged
// and never surface to the account mutation.
func (s *AccountService) recordSnapshot(ctx context.Context, a *domain.Account) {
	today := s.nowDate()
	key := snapshotKey(a.Name, today)

	s.mu.Lock()
	snap, ok := s.history[key]
	if ok {
		updated := *snap
		updated.Value = a.Balance
		updated.Icon = a.Icon
		snap = &updated
	} else {
		snap = &domain.BalanceSnapshot{
			ID:          domain.NewID(),
			Date:        today,
			AccountName: a.Name,
			Value:       a.Balance,
			Icon:        a.Icon,
		}
	}
	s.mu.Unlock()

	row, err := s.snapshots.ToRow(snap)
	if err != nil {
		s.log.Warn().Err(err).Str("account", a.Name).Msg("Balance snapshot skipped")
		return
	}

	if _, err := s.store.UpsertByID(ctx, s.snapshots.SheetName(), snap.ID, row, 0); err != nil {
		s.log.Warn().Err(err).Str("account", a.Name).Msg("Balance snapshot write failed")
	}

	// The history cache keeps the latest value even when the remote write
	// failed, so a retried update the same day still updates in place.
	s.mu.Lock()
	s.history[key] = snap
	s.mu.Unlock()
}

func (s *AccountService) nowDate() time.Time {
	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ProcessQueue replays the pending mutations in enqueue order. Successes
// leave the queue; failures stay for the next pass.
func (s *AccountService) ProcessQueue(ctx context.Context) ReplayResult {
	var result ReplayResult
	for _, op := range s.queue.Snapshot() {
		if err := s.replay(ctx, op); err != nil {
			result.Failed++
			s.mu.Lock()
			s.markOffline(err)
			s.mu.Unlock()
			s.log.Warn().Err(err).Str("op", string(op.Kind)).Str("account", op.Payload.ID).Msg("Queued account mutation failed replay")
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

func (s *AccountService) replay(ctx context.Context, op pending.Op[*domain.Account]) error {
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
func (s *AccountService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(s.queue.Len())
}

// EntityStatus returns the sync phase of one cached account.
func (s *AccountService) EntityStatus(id string) (SyncStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[id]
	return st, ok
}

// Reset drops the cache, the history, the queue and all sync state.
func (s *AccountService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = map[string]*domain.Account{}
	s.history = map[string]*domain.BalanceSnapshot{}
	s.statuses = map[string]SyncStatus{}
	s.queue.Clear()
	s.online = true
	s.loading = false
	s.lastErr = nil
	s.lastSync = time.Time{}
}
