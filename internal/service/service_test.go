package service

import (
	"context"
	"sync"

	"sheetbudget/internal/domain"
	"sheetbudget/internal/sheets"
)

// fakeStore is an in-memory RowStore. Each tab holds data rows only; Read
// prepends a header row the way the remote sheets carry one.
type fakeStore struct {
	mu        sync.Mutex
	tabs      map[string][]sheets.Row
	failAll   error
	failSheet map[string]error
	calls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tabs:      map[string][]sheets.Row{},
		failSheet: map[string]error{},
	}
}

func (f *fakeStore) failure(sheetName string) error {
	if f.failAll != nil {
		return f.failAll
	}
	return f.failSheet[sheetName]
}

func (f *fakeStore) Read(ctx context.Context, readRange string) ([]sheets.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if err := f.failure(readRange); err != nil {
		return nil, err
	}
	out := []sheets.Row{sheets.EmptyRow(1)}
	return append(out, f.tabs[readRange]...), nil
}

func (f *fakeStore) BatchRead(ctx context.Context, ranges []string) (map[string][]sheets.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	out := map[string][]sheets.Row{}
	for _, r := range ranges {
		if err := f.failure(r); err != nil {
			return nil, err
		}
		rows := []sheets.Row{sheets.EmptyRow(1)}
		out[r] = append(rows, f.tabs[r]...)
	}
	return out, nil
}

func (f *fakeStore) UpsertByID(ctx context.Context, sheetName, id string, row sheets.Row, idColumnIndex int) (*sheets.UpsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if err := f.failure(sheetName); err != nil {
		return nil, err
	}
	rows := f.tabs[sheetName]
	for i, r := range rows {
		if r.Cell(idColumnIndex).AsString() == id {
			rows[i] = row
			return &sheets.UpsertResult{Updated: true, RowNumber: i + 2}, nil
		}
	}
	f.tabs[sheetName] = append(rows, row)
	return &sheets.UpsertResult{Updated: false, RowNumber: len(f.tabs[sheetName]) + 1}, nil
}

func (f *fakeStore) DeleteByID(ctx context.Context, sheetName, id string, columnCount, idColumnIndex int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if err := f.failure(sheetName); err != nil {
		return false, err
	}
	for i, r := range f.tabs[sheetName] {
		if r.Cell(idColumnIndex).AsString() == id {
			f.tabs[sheetName][i] = sheets.EmptyRow(columnCount)
			return true, nil
		}
	}
	return false, nil
}

// liveRows counts the data rows of a tab that have not been cleared by a
// logical delete.
func (f *fakeStore) liveRows(sheetName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.tabs[sheetName] {
		if r.Cell(0).AsString() != "" {
			n++
		}
	}
	return n
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResolver struct {
	cats map[string]*domain.Category
}

func (f fakeResolver) CategoryByID(id string) (*domain.Category, bool) {
	c, ok := f.cats[id]
	return c, ok
}
