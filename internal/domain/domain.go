// Package domain holds the typed entities the services and row adapters
// share, together with their invariant checks. These are domain structs, not
// spreadsheet rows; the rowmap adapters handle the row layouts.
package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-date layout used everywhere; movements and
// snapshots carry no time component.
const DateFormat = "2006-01-02"

// MaxDescriptionLen bounds free-text movement descriptions.
const MaxDescriptionLen = 500

// LocalIDPrefix marks identifiers synthesized while offline, distinguishing
// them from ids that have reached the remote store.
const LocalIDPrefix = "local-"

// NewID generates a globally unique client-side identifier.
func NewID() string {
	return uuid.NewString()
}

// NewLocalID generates an identifier for an entity created while offline.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether the id was synthesized offline.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// ValidationError reports an entity that failed an invariant check. It is
// surfaced before any network attempt and is never retried or queued.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Reason)
}

// IsValidationError reports whether err is a failed invariant check.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// MovementType is a movement's direction of money.
type MovementType string

const (
	Income  MovementType = "income"
	Expense MovementType = "expense"
)

// CategoryType is a category's fixed type. It is immutable after creation
// and governs the derived type of movements referencing the category.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryBoth    CategoryType = "both"
)

// MovementType derives the effective movement type for this category type.
// Open categories default to expense.
func (t CategoryType) MovementType() MovementType {
	if t == CategoryIncome {
		return Income
	}
	return Expense
}

// Movement is one income or expense entry.
type Movement struct {
	ID          string
	Date        time.Time
	Amount      decimal.Decimal
	CategoryID  string
	Description string
	Type        MovementType
}

// Validate checks the movement's invariants.
func (m *Movement) Validate() error {
	if m.ID == "" {
		return &ValidationError{Entity: "movement", Field: "id", Reason: "must not be empty"}
	}
	if m.Date.IsZero() {
		return &ValidationError{Entity: "movement", Field: "date", Reason: "must be set"}
	}
	if m.Amount.Cmp(decimal.Zero) <= 0 {
		return &ValidationError{Entity: "movement", Field: "amount", Reason: "must be positive"}
	}
	if m.CategoryID == "" {
		return &ValidationError{Entity: "movement", Field: "categoryId", Reason: "must not be empty"}
	}
	if len(m.Description) > MaxDescriptionLen {
		return &ValidationError{Entity: "movement", Field: "description", Reason: fmt.Sprintf("exceeds %d characters", MaxDescriptionLen)}
	}
	if m.Type != Income && m.Type != Expense {
		return &ValidationError{Entity: "movement", Field: "type", Reason: "must be income or expense"}
	}
	return nil
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category groups movements and fixes their derived type.
type Category struct {
	ID    string
	Name  string
	Color string
	Type  CategoryType
}

// Validate checks the category's invariants.
func (c *Category) Validate() error {
	if c.ID == "" {
		return &ValidationError{Entity: "category", Field: "id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Entity: "category", Field: "name", Reason: "must not be empty"}
	}
	if !colorPattern.MatchString(c.Color) {
		return &ValidationError{Entity: "category", Field: "color", Reason: "must match #RRGGBB"}
	}
	switch c.Type {
	case CategoryIncome, CategoryExpense, CategoryBoth:
	default:
		return &ValidationError{Entity: "category", Field: "type", Reason: "must be income, expense or both"}
	}
	return nil
}

// Account is a money holding with a signed balance.
type Account struct {
	ID      string
	Name    string
	Icon    string
	Balance decimal.Decimal
}

// Validate checks the account's invariants. The balance carries no sign
// constraint.
func (a *Account) Validate() error {
	if a.ID == "" {
		return &ValidationError{Entity: "account", Field: "id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Entity: "account", Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(a.Icon) == "" {
		return &ValidationError{Entity: "account", Field: "icon", Reason: "must not be empty"}
	}
	return nil
}

// BalanceSnapshot is one balance-history entry. The account name is
// denormalized on purpose, not a foreign key. At most one snapshot exists per
// (account name, date); a second write for the same day updates in place.
type BalanceSnapshot struct {
	ID          string
	Date        time.Time
	AccountName string
	Value       decimal.Decimal
	Icon        string
}

// Validate checks the snapshot's invariants.
func (s *BalanceSnapshot) Validate() error {
	if s.ID == "" {
		return &ValidationError{Entity: "snapshot", Field: "id", Reason: "must not be empty"}
	}
	if s.Date.IsZero() {
		return &ValidationError{Entity: "snapshot", Field: "date", Reason: "must be set"}
	}
	if strings.TrimSpace(s.AccountName) == "" {
		return &ValidationError{Entity: "snapshot", Field: "accountName", Reason: "must not be empty"}
	}
	return nil
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// MonthlySummary is the per-month aggregate row: totals, a net figure and a
// per-category breakdown.
type MonthlySummary struct {
	ID            string
	Month         string // YYYY-MM
	TotalIncome   decimal.Decimal
	TotalExpense  decimal.Decimal
	Net           decimal.Decimal
	MovementCount int
	ByCategory    map[string]decimal.Decimal
	UpdatedAt     time.Time
}

// Validate checks the summary's invariants.
func (s *MonthlySummary) Validate() error {
	if s.ID == "" {
		return &ValidationError{Entity: "summary", Field: "id", Reason: "must not be empty"}
	}
	if !monthPattern.MatchString(s.Month) {
		return &ValidationError{Entity: "summary", Field: "month", Reason: "must match YYYY-MM"}
	}
	if s.MovementCount < 0 {
		return &ValidationError{Entity: "summary", Field: "movementCount", Reason: "must not be negative"}
	}
	return nil
}
