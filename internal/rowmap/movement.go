package rowmap

import (
	"sheetbudget/internal/domain"
	"sheetbudget/internal/sheets"
)

// MovementAdapter maps movements to the Movements sheet:
// [id, date, amount, categoryId, description, type] in columns 0-5.
type MovementAdapter struct{}

// SheetName returns the sheet the adapter owns.
func (MovementAdapter) SheetName() string { return "Movements" }

// ColumnCount returns the fixed row width.
func (MovementAdapter) ColumnCount() int { return 6 }

// Header returns the header row written at sheet row 1.
func (MovementAdapter) Header() sheets.Row {
	return sheets.NewRow(
		sheets.StringCell("id"),
		sheets.StringCell("date"),
		sheets.StringCell("amount"),
		sheets.StringCell("categoryId"),
		sheets.StringCell("description"),
		sheets.StringCell("type"),
	)
}

// ToRow validates the movement and serializes it.
func (MovementAdapter) ToRow(m *domain.Movement) (sheets.Row, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	amount, _ := m.Amount.Float64()
	return sheets.NewRow(
		sheets.StringCell(m.ID),
		dateCell(m.Date),
		sheets.NumberCell(amount),
		sheets.StringCell(m.CategoryID),
		sheets.StringCell(m.Description),
		sheets.StringCell(string(m.Type)),
	), nil
}

// FromRow deserializes a row, tolerating short rows. An unrecognized type
// cell falls back to expense.
func (MovementAdapter) FromRow(r sheets.Row) *domain.Movement {
	movementType := domain.MovementType(r.Cell(5).AsString())
	if movementType != domain.Income {
		movementType = domain.Expense
	}
	return &domain.Movement{
		ID:          r.Cell(0).AsString(),
		Date:        parseDate(r.Cell(1).AsString()),
		Amount:      r.Cell(2).AsDecimal(),
		CategoryID:  r.Cell(3).AsString(),
		Description: r.Cell(4).AsString(),
		Type:        movementType,
	}
}
