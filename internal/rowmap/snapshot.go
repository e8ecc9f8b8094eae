package rowmap

import (
	"sheetbudget/internal/domain"
	"sheetbudget/internal/sheets"
)

// SnapshotAdapter maps balance snapshots to the BalanceHistory sheet:
// [id, date, accountName, value, icon] in columns 0-4.
type SnapshotAdapter struct{}

// SheetName returns the sheet the adapter owns.
func (SnapshotAdapter) SheetName() string { return "BalanceHistory" }

// ColumnCount returns the fixed row width.
func (SnapshotAdapter) ColumnCount() int { return 5 }

// Header returns the header row written at sheet row 1.
func (SnapshotAdapter) Header() sheets.Row {
	return sheets.NewRow(
		sheets.StringCell("id"),
		sheets.StringCell("date"),
		sheets.StringCell("accountName"),
		sheets.StringCell("value"),
		sheets.StringCell("icon"),
	)
}

// ToRow validates the snapshot and serializes it.
func (SnapshotAdapter) ToRow(s *domain.BalanceSnapshot) (sheets.Row, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	value, _ := s.Value.Float64()
	return sheets.NewRow(
		sheets.StringCell(s.ID),
		dateCell(s.Date),
		sheets.StringCell(s.AccountName),
		sheets.NumberCell(value),
		sheets.StringCell(s.Icon),
	), nil
}

// FromRow deserializes a row, tolerating short rows.
func (SnapshotAdapter) FromRow(r sheets.Row) *domain.BalanceSnapshot {
	return &domain.BalanceSnapshot{
		ID:          r.Cell(0).AsString(),
		Date:        parseDate(r.Cell(1).AsString()),
		AccountName: r.Cell(2).AsString(),
		Value:       r.Cell(3).AsDecimal(),
		Icon:        r.Cell(4).AsString(),
	}
}
