package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	TransactionKind string

	Frequency string

	User struct {
		ID        string
		Email     string
		Name      string
		GoogleID  string
		CreatedAt time.Time
	}

	Transaction struct {
		ID          string
		UserID      string
		Amount      Money
		Kind        TransactionKind
		Category    string
		Description string
		Date        time.Time // calendar date, midnight UTC
		CreatedAt   time.Time
	}

	// RecurringSeries is a template that periodically materializes
	// concrete transactions.
	RecurringSeries struct {
		ID            string
		UserID        string
		Amount        Money
		Kind          TransactionKind
		Category      string
		Description   string
		Frequency     Frequency
		StartDate     time.Time
		EndDate       time.Time // zero when open-ended
		LastProcessed time.Time // zero until first materialization
		IsActive      bool
		CreatedAt     time.Time
	}

	Budget struct {
		ID        string
		UserID    string
		Category  string
		Limit     Money
		Month     string // "2006-01"
		CreatedAt time.Time
	}

	Goal struct {
		ID        string
		UserID    string
		Title     string
		Target    Money
		Current   Money
		Deadline  time.Time // zero when none
		CreatedAt time.Time
	}

	BudgetAlert struct {
		ID        string
		UserID    string
		BudgetID  string
		Category  string
		Month     string
		Spent     Money
		Limit     Money
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("kind must be income or expense")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("month must be in YYYY-MM format")
	ErrInvalidDateRange = errors.New("end date must not be before start date")
)

// AutoDescription is the fallback description stamped on transactions
// materialized from a series that carries none of its own.
func AutoDescription(category string) string {
	return "[AUTO] " + category
}

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// ValidMonth reports whether s is a YYYY-MM month key.
func ValidMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (s RecurringSeries) Validate() error {
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if !s.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	if len(s.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !s.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if s.StartDate.IsZero() {
		return errors.New("invalid start date: " + ErrInvalidDate.Error())
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(Midnight(s.StartDate)) {
		return ErrInvalidDateRange
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !ValidMonth(b.Month) {
		return ErrInvalidMonth
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
