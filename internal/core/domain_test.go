package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:   Money{Cents: 1250},
		Kind:     Expense,
		Category: "Groceries",
		Date:     date(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Amount: Money{Cents: 0}, Kind: Expense, Category: "c", Date: date(2025, 1, 1)},
		{Amount: Money{Cents: 100}, Kind: "transfer", Category: "c", Date: date(2025, 1, 1)},
		{Amount: Money{Cents: 100}, Kind: Income, Category: "  ", Date: date(2025, 1, 1)},
		{Amount: Money{Cents: 100}, Kind: Income, Category: "c"}, // zero date
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecurringSeriesValidate(t *testing.T) {
	good := RecurringSeries{
		Amount:    Money{Cents: 5000},
		Kind:      Expense,
		Category:  "Rent",
		Frequency: Monthly,
		StartDate: date(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	withEnd := good
	withEnd.EndDate = date(2025, 6, 30)
	if err := withEnd.Validate(); err != nil {
		t.Fatalf("expected ok with end date, got %v", err)
	}

	bads := []struct {
		name string
		mut  func(*RecurringSeries)
	}{
		{"zero amount", func(s *RecurringSeries) { s.Amount = Money{} }},
		{"bad kind", func(s *RecurringSeries) { s.Kind = "weird" }},
		{"empty category", func(s *RecurringSeries) { s.Category = "" }},
		{"bad frequency", func(s *RecurringSeries) { s.Frequency = "fortnightly" }},
		{"zero start", func(s *RecurringSeries) { s.StartDate = time.Time{} }},
		{"end before start", func(s *RecurringSeries) { s.EndDate = date(2024, 12, 31) }},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			s := good
			tc.mut(&s)
			if err := s.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Limit: Money{Cents: 30000}, Category: "Food", Month: "2025-01"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Budget{
		{Limit: Money{Cents: 0}, Category: "Food", Month: "2025-01"},
		{Limit: Money{Cents: 100}, Category: "", Month: "2025-01"},
		{Limit: Money{Cents: 100}, Category: "Food", Month: "January"},
		{Limit: Money{Cents: 100}, Category: "Food", Month: "2025-13"},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestGoalValidate(t *testing.T) {
	good := Goal{Title: "Vacation", Target: Money{Cents: 100000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Goal{Title: "", Target: Money{Cents: 1}}).Validate(); err == nil {
		t.Fatalf("expected error for empty title")
	}
	if err := (Goal{Title: "x", Target: Money{Cents: 0}}).Validate(); err == nil {
		t.Fatalf("expected error for zero target")
	}
	if err := (Goal{Title: "x", Target: Money{Cents: 1}, Current: Money{Cents: -5}}).Validate(); err == nil {
		t.Fatalf("expected error for negative progress")
	}
}

func TestAutoDescription(t *testing.T) {
	if got := AutoDescription("Rent"); got != "[AUTO] Rent" {
		t.Fatalf("expected auto tag, got %q", got)
	}
}
