package rowmap

import (
	"sheetbudget/internal/domain"
	"sheetbudget/internal/sheets"
)

// AccountAdapter maps accounts to the Accounts sheet:
// [id, name, icon, balance] in columns 0-3.
type AccountAdapter struct{}

// SheetName returns the sheet the adapter owns.
func (AccountAdapter) SheetName() string { return "Accounts" }

// ColumnCount returns the fixed row width.
func (AccountAdapter) ColumnCount() int { return 4 }

// Header returns the header row written at sheet row 1.
func (AccountAdapter) Header() sheets.Row {
	return sheets.NewRow(
		sheets.StringCell("id"),
		sheets.StringCell("name"),
		sheets.StringCell("icon"),
		sheets.StringCell("balance"),
	)
}

// ToRow validates the account and serializes it.
func (AccountAdapter) ToRow(a *domain.Account) (sheets.Row, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	balance, _ := a.Balance.Float64()
	return sheets.NewRow(
		sheets.StringCell(a.ID),
		sheets.StringCell(a.Name),
		sheets.StringCell(a.Icon),
		sheets.NumberCell(balance),
	), nil
}

// FromRow deserializes a row, tolerating short rows. A missing balance cell
// coerces to zero.
func (AccountAdapter) FromRow(r sheets.Row) *domain.Account {
	return &domain.Account{
		ID:      r.Cell(0).AsString(),
		Name:    r.Cell(1).AsString(),
		Icon:    r.Cell(2).AsString(),
		Balance: r.Cell(3).AsDecimal(),
	}
}
