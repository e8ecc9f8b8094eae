package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validMovement() *Movement {
	return &Movement{
		ID:          NewID(),
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(25),
		CategoryID:  "cat-1",
		Description: "groceries",
		Type:        Expense,
	}
}

func TestMovement_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Movement)
		wantErr bool
	}{
		{"valid", func(m *Movement) {}, false},
		{"empty id", func(m *Movement) { m.ID = "" }, true},
		{"zero date", func(m *Movement) { m.Date = time.Time{} }, true},
		{"zero amount", func(m *Movement) { m.Amount = decimal.Zero }, true},
		{"negative amount", func(m *Movement) { m.Amount = decimal.NewFromInt(-5) }, true},
		{"missing category", func(m *Movement) { m.CategoryID = "" }, true},
		{"overlong description", func(m *Movement) { m.Description = strings.Repeat("x", MaxDescriptionLen+1) }, true},
		{"empty description ok", func(m *Movement) { m.Description = "" }, false},
		{"bad type", func(m *Movement) { m.Type = "transfer" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMovement()
			tt.mutate(m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("Expected a ValidationError, got %T", err)
			}
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		wantErr  bool
	}{
		{"valid expense", Category{ID: "c1", Name: "Food", Color: "#FF0000", Type: CategoryExpense}, false},
		{"valid both", Category{ID: "c2", Name: "Misc", Color: "#00ff00", Type: CategoryBoth}, false},
		{"named color rejected", Category{ID: "c3", Name: "Food", Color: "red", Type: CategoryExpense}, true},
		{"missing hash", Category{ID: "c4", Name: "Food", Color: "FF0000", Type: CategoryExpense}, true},
		{"short hex", Category{ID: "c5", Name: "Food", Color: "#F00", Type: CategoryExpense}, true},
		{"blank name", Category{ID: "c6", Name: "   ", Color: "#FF0000", Type: CategoryExpense}, true},
		{"bad type", Category{ID: "c7", Name: "Food", Color: "#FF0000", Type: "savings"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.category.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryType_MovementType(t *testing.T) {
	tests := []struct {
		in   CategoryType
		want MovementType
	}{
		{CategoryIncome, Income},
		{CategoryExpense, Expense},
		{CategoryBoth, Expense}, // open categories default to expense
	}

	for _, tt := range tests {
		if got := tt.in.MovementType(); got != tt.want {
			t.Errorf("%s.MovementType() = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAccount_Validate(t *testing.T) {
	valid := Account{ID: "a1", Name: "Checking", Icon: "bank", Balance: decimal.NewFromInt(-120)}
	if err := valid.Validate(); err != nil {
		t.Errorf("negative balance must be allowed, got %v", err)
	}

	bad := Account{ID: "a2", Name: "Checking", Icon: ""}
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for empty icon")
	}
}

func TestMonthlySummary_Validate(t *testing.T) {
	tests := []struct {
		name    string
		month   string
		wantErr bool
	}{
		{"valid", "2024-02", false},
		{"month 13", "2024-13", true},
		{"month 0", "2024-00", true},
		{"no dash", "202402", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MonthlySummary{ID: "s1", Month: tt.month}
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalIDs(t *testing.T) {
	id := NewID()
	local := NewLocalID()

	if IsLocalID(id) {
		t.Errorf("NewID() %q must not look local", id)
	}
	if !IsLocalID(local) {
		t.Errorf("NewLocalID() %q must carry the local prefix", local)
	}
	if id == NewID() {
		t.Error("NewID() must be unique per call")
	}
}
