package rowmap

import (
	"sheetbudget/internal/domain"
	"sheetbudget/internal/sheets"
)

// CategoryAdapter maps categories to the Categories sheet:
// [id, name, color, type] in columns 0-3.
type CategoryAdapter struct{}

// SheetName returns the sheet the adapter owns.
func (CategoryAdapter) SheetName() string { return "Categories" }

// ColumnCount returns the fixed row width.
func (CategoryAdapter) ColumnCount() int { return 4 }

// Header returns the header row written at sheet row 1.
func (CategoryAdapter) Header() sheets.Row {
	return sheets.NewRow(
		sheets.StringCell("id"),
		sheets.StringCell("name"),
		sheets.StringCell("color"),
		sheets.StringCell("type"),
	)
}

// ToRow validates the category and serializes it.
func (CategoryAdapter) ToRow(c *domain.Category) (sheets.Row, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return sheets.NewRow(
		sheets.StringCell(c.ID),
		sheets.StringCell(c.Name),
		sheets.StringCell(c.Color),
		sheets.StringCell(string(c.Type)),
	), nil
}

// FromRow deserializes a row, tolerating short rows. An unrecognized type
// cell falls back to the open "both" type.
func (CategoryAdapter) FromRow(r sheets.Row) *domain.Category {
	categoryType := domain.CategoryType(r.Cell(3).AsString())
	switch categoryType {
	case domain.CategoryIncome, domain.CategoryExpense, domain.CategoryBoth:
	default:
		categoryType = domain.CategoryBoth
	}
	return &domain.Category{
		ID:    r.Cell(0).AsString(),
		Name:  r.Cell(1).AsString(),
		Color: r.Cell(2).AsString(),
		Type:  categoryType,
	}
}
