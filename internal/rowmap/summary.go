package rowmap

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"sheetbudget/internal/domain"
	"sheetbudget/internal/sheets"
)

// SummaryAdapter maps monthly summaries to the Summaries sheet:
// [id, month, totalIncome, totalExpense, net, movementCount, byCategory,
// updatedAt] in columns 0-7. The per-category breakdown is a JSON-encoded
// object in a single cell.
type SummaryAdapter struct{}

// SheetName returns the sheet the adapter owns.
func (SummaryAdapter) SheetName() string { return "Summaries" }

// ColumnCount returns the fixed row width.
func (SummaryAdapter) ColumnCount() int { return 8 }

// Header returns the header row written at sheet row 1.
func (SummaryAdapter) Header() sheets.Row {
	return sheets.NewRow(
		sheets.StringCell("id"),
		sheets.StringCell("month"),
		sheets.StringCell("totalIncome"),
		sheets.StringCell("totalExpense"),
		sheets.StringCell("net"),
		sheets.StringCell("movementCount"),
		sheets.StringCell("byCategory"),
		sheets.StringCell("updatedAt"),
	)
}

// ToRow validates the summary and serializes it.
func (SummaryAdapter) ToRow(s *domain.MonthlySummary) (sheets.Row, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	breakdown := "{}"
	if len(s.ByCategory) > 0 {
		encoded, err := json.Marshal(s.ByCategory)
		if err != nil {
			return nil, err
		}
		breakdown = string(encoded)
	}

	income, _ := s.TotalIncome.Float64()
	expense, _ := s.TotalExpense.Float64()
	net, _ := s.Net.Float64()

	updatedAt := sheets.EmptyCell()
	if !s.UpdatedAt.IsZero() {
		updatedAt = sheets.StringCell(s.UpdatedAt.UTC().Format(time.RFC3339))
	}

	return sheets.NewRow(
		sheets.StringCell(s.ID),
		sheets.StringCell(s.Month),
		sheets.NumberCell(income),
		sheets.NumberCell(expense),
		sheets.NumberCell(net),
		sheets.NumberCell(float64(s.MovementCount)),
		sheets.StringCell(breakdown),
		updatedAt,
	), nil
}

// FromRow deserializes a row, tolerating short rows. An unparseable
// breakdown cell coerces to an empty breakdown.
func (SummaryAdapter) FromRow(r sheets.Row) *domain.MonthlySummary {
	byCategory := map[string]decimal.Decimal{}
	if raw := r.Cell(6).AsString(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &byCategory); err != nil {
			byCategory = map[string]decimal.Decimal{}
		}
	}

	updatedAt := time.Time{}
	if raw := r.Cell(7).AsString(); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			updatedAt = t.UTC()
		}
	}

	return &domain.MonthlySummary{
		ID:            r.Cell(0).AsString(),
		Month:         r.Cell(1).AsString(),
		TotalIncome:   r.Cell(2).AsDecimal(),
		TotalExpense:  r.Cell(3).AsDecimal(),
		Net:           r.Cell(4).AsDecimal(),
		MovementCount: int(r.Cell(5).AsFloat()),
		ByCategory:    byCategory,
		UpdatedAt:     updatedAt,
	}
}
