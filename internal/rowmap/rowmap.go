// Package rowmap holds the row adapters: one fixed mapping per entity kind
// between a typed domain object and a flat row of primitive cells in one
// named sheet. ToRow validates invariants before serializing, so invalid
// entities fail with a validation error before any network call; FromRow is
// tolerant of short rows and coerces cells through their tagged types.
//
// Reading a sheet always skips row 0, the header row, before mapping the
// remaining rows through FromRow.
package rowmap

import (
	"time"

	"sheetbudget/internal/domain"
	"sheetbudget/internal/sheets"
)

// parseDate parses a calendar-date cell; unparseable values fall back to the
// zero time.
func parseDate(s string) time.Time {
	t, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// dateCell serializes a calendar date without its time component.
func dateCell(t time.Time) sheets.Cell {
	if t.IsZero() {
		return sheets.EmptyCell()
	}
	return sheets.StringCell(t.Format(domain.DateFormat))
}
