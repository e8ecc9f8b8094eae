package sheets

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CellKind tags the primitive type a cell carries on the wire.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindString
	KindNumber
	KindBool
)

// Cell is one primitive spreadsheet cell: empty, string, number or boolean.
// Adapters convert cells to field types through the explicit As* coercions
// instead of relying on runtime type switches at every call site.
type Cell struct {
	kind CellKind
	str  string
	num  float64
	b    bool
}

// EmptyCell returns the empty cell. It serializes as "" on the wire, which is
// also what a logical delete writes to clear a row.
func EmptyCell() Cell {
	return Cell{kind: KindEmpty}
}

// StringCell wraps a string value.
func StringCell(s string) Cell {
	return Cell{kind: KindString, str: s}
}

// NumberCell wraps a numeric value.
func NumberCell(f float64) Cell {
	return Cell{kind: KindNumber, num: f}
}

// BoolCell wraps a boolean value.
func BoolCell(b bool) Cell {
	return Cell{kind: KindBool, b: b}
}

// Kind returns the cell's tag.
func (c Cell) Kind() CellKind {
	return c.kind
}

// IsEmpty reports whether the cell is empty or an empty string.
func (c Cell) IsEmpty() bool {
	return c.kind == KindEmpty || (c.kind == KindString && c.str == "")
}

// AsString coerces the cell to a string. Numbers render in their shortest
// decimal form, booleans as TRUE/FALSE, empty cells as "".
func (c Cell) AsString() string {
	switch c.kind {
	case KindString:
		return c.str
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindBool:
		if c.b {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// AsFloat coerces the cell to a float64. Unparseable strings and empty cells
// coerce to 0.
func (c Cell) AsFloat() float64 {
	switch c.kind {
	case KindNumber:
		return c.num
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.str), 64)
		if err != nil {
			return 0
		}
		return f
	case KindBool:
		if c.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// AsDecimal coerces the cell to a decimal. Unparseable values coerce to zero.
func (c Cell) AsDecimal() decimal.Decimal {
	switch c.kind {
	case KindNumber:
		return decimal.NewFromFloat(c.num)
	case KindString:
		d, err := decimal.NewFromString(strings.TrimSpace(c.str))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// AsBool coerces the cell to a bool. The strings TRUE/true/1 coerce to true.
func (c Cell) AsBool() bool {
	switch c.kind {
	case KindBool:
		return c.b
	case KindString:
		s := strings.TrimSpace(strings.ToUpper(c.str))
		return s == "TRUE" || s == "1"
	case KindNumber:
		return c.num != 0
	default:
		return false
	}
}

// FromInterface converts a raw API cell value into a tagged Cell.
func FromInterface(v interface{}) Cell {
	switch t := v.(type) {
	case nil:
		return EmptyCell()
	case string:
		if t == "" {
			return EmptyCell()
		}
		return StringCell(t)
	case float64:
		return NumberCell(t)
	case int:
		return NumberCell(float64(t))
	case int64:
		return NumberCell(float64(t))
	case bool:
		return BoolCell(t)
	default:
		return EmptyCell()
	}
}

// ToInterface converts the cell into the raw value the API accepts.
func (c Cell) ToInterface() interface{} {
	switch c.kind {
	case KindString:
		return c.str
	case KindNumber:
		return c.num
	case KindBool:
		return c.b
	default:
		return ""
	}
}

// Row is one spreadsheet row. Rows read from the API may be shorter than a
// sheet's declared column count; missing trailing cells are implicit empties.
type Row []Cell

// NewRow builds a row from cells.
func NewRow(cells ...Cell) Row {
	return Row(cells)
}

// EmptyRow returns a row of n empty cells, as written by a logical delete.
func EmptyRow(n int) Row {
	r := make(Row, n)
	for i := range r {
		r[i] = EmptyCell()
	}
	return r
}

// Cell returns the cell at index i, or the empty cell when the row is short.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r) {
		return EmptyCell()
	}
	return r[i]
}

// Interfaces converts the row into the raw shape the API accepts.
func (r Row) Interfaces() []interface{} {
	out := make([]interface{}, len(r))
	for i, c := range r {
		out[i] = c.ToInterface()
	}
	return out
}

// RowFromInterfaces converts a raw API row into tagged cells.
func RowFromInterfaces(values []interface{}) Row {
	r := make(Row, len(values))
	for i, v := range values {
		r[i] = FromInterface(v)
	}
	return r
}

// RowsFromInterfaces converts a raw API value grid into rows.
func RowsFromInterfaces(grid [][]interface{}) []Row {
	rows := make([]Row, len(grid))
	for i, v := range grid {
		rows[i] = RowFromInterfaces(v)
	}
	return rows
}

// RowsToInterfaces converts rows into the raw grid shape the API accepts.
func RowsToInterfaces(rows []Row) [][]interface{} {
	grid := make([][]interface{}, len(rows))
	for i, r := range rows {
		grid[i] = r.Interfaces()
	}
	return grid
}
