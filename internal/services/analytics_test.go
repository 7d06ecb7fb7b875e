package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

type fakeSeriesLister struct {
	series []core.RecurringSeries
}

func (l *fakeSeriesLister) ListSeries(ctx context.Context, userID string) ([]core.RecurringSeries, error) {
	var out []core.RecurringSeries
	for _, s := range l.series {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func income(userID string, cents int64, day time.Time) core.Transaction {
	return core.Transaction{
		UserID:   userID,
		Amount:   core.Money{Cents: cents},
		Kind:     core.Income,
		Category: "Salary",
		Date:     day,
	}
}

func TestAnalyticsReportSummary(t *testing.T) {
	st := &fakeTransactionStore{transactions: []core.Transaction{
		income("user-1", 300000, date(2025, 3, 1)),
		expense("user-1", "Rent", 120000, date(2025, 3, 2)),
		expense("user-1", "Groceries", 25000, date(2025, 3, 5)),
	}}
	svc := NewAnalyticsService(st, &fakeSeriesLister{})

	r, err := svc.Report(context.Background(), "user-1", date(2025, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Summary.TotalIncome.Cents != 300000 {
		t.Errorf("total income = %d, want 300000", r.Summary.TotalIncome.Cents)
	}
	if r.Summary.TotalExpense.Cents != 145000 {
		t.Errorf("total expense = %d, want 145000", r.Summary.TotalExpense.Cents)
	}
	if r.Summary.Balance.Cents != 155000 {
		t.Errorf("balance = %d, want 155000", r.Summary.Balance.Cents)
	}
	if r.Summary.TransactionCount != 3 {
		t.Errorf("count = %d, want 3", r.Summary.TransactionCount)
	}
}

func TestAnalyticsCategoryBreakdownSorted(t *testing.T) {
	st := &fakeTransactionStore{transactions: []core.Transaction{
		expense("user-1", "Groceries", 10000, date(2025, 3, 1)),
		expense("user-1", "Rent", 120000, date(2025, 3, 2)),
		expense("user-1", "Groceries", 15000, date(2025, 3, 8)),
		income("user-1", 300000, date(2025, 3, 1)),
	}}
	svc := NewAnalyticsService(st, &fakeSeriesLister{})

	r, err := svc.Report(context.Background(), "user-1", date(2025, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r.CategoryData) != 2 {
		t.Fatalf("expected 2 expense categories, got %d", len(r.CategoryData))
	}
	if r.CategoryData[0].Name != "Rent" || r.CategoryData[0].Amount.Cents != 120000 {
		t.Errorf("top category = %+v, want Rent 120000", r.CategoryData[0])
	}
	if r.CategoryData[1].Name != "Groceries" || r.CategoryData[1].Amount.Cents != 25000 {
		t.Errorf("second category = %+v, want Groceries 25000", r.CategoryData[1])
	}
}

func TestAnalyticsMonthlyWindowIncludesEmptyMonths(t *testing.T) {
	st := &fakeTransactionStore{transactions: []core.Transaction{
		expense("user-1", "Rent", 120000, date(2025, 1, 2)),
		income("user-1", 300000, date(2025, 3, 1)),
		// Outside the six-month window; must be ignored.
		expense("user-1", "Rent", 120000, date(2024, 6, 2)),
	}}
	svc := NewAnalyticsService(st, &fakeSeriesLister{})

	r, err := svc.Report(context.Background(), "user-1", date(2025, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r.MonthlyData) != 6 {
		t.Fatalf("expected 6 months, got %d", len(r.MonthlyData))
	}
	if r.MonthlyData[0].Month != "2024-10" || r.MonthlyData[5].Month != "2025-03" {
		t.Fatalf("window bounds wrong: %s .. %s", r.MonthlyData[0].Month, r.MonthlyData[5].Month)
	}
	for _, m := range r.MonthlyData {
		switch m.Month {
		case "2025-01":
			if m.Expense.Cents != 120000 {
				t.Errorf("2025-01 expense = %d, want 120000", m.Expense.Cents)
			}
		case "2025-03":
			if m.Income.Cents != 300000 {
				t.Errorf("2025-03 income = %d, want 300000", m.Income.Cents)
			}
		default:
			if m.Income.Cents != 0 || m.Expense.Cents != 0 {
				t.Errorf("month %s should be empty, got %+v", m.Month, m)
			}
		}
	}
}

func TestAnalyticsTopExpensesCapped(t *testing.T) {
	st := &fakeTransactionStore{}
	for i := int64(1); i <= 7; i++ {
		st.transactions = append(st.transactions,
			expense("user-1", "Misc", i*1000, date(2025, 3, int(i))))
	}
	svc := NewAnalyticsService(st, &fakeSeriesLister{})

	r, err := svc.Report(context.Background(), "user-1", date(2025, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r.TopExpenses) != 5 {
		t.Fatalf("expected top 5 expenses, got %d", len(r.TopExpenses))
	}
	if r.TopExpenses[0].Amount.Cents != 7000 || r.TopExpenses[4].Amount.Cents != 3000 {
		t.Fatalf("top expenses not sorted: first=%d last=%d",
			r.TopExpenses[0].Amount.Cents, r.TopExpenses[4].Amount.Cents)
	}
}

func TestAnalyticsForecastAveragesAndRecurring(t *testing.T) {
	st := &fakeTransactionStore{transactions: []core.Transaction{
		income("user-1", 300000, date(2025, 1, 5)),
		income("user-1", 300000, date(2025, 2, 5)),
		income("user-1", 300000, date(2025, 3, 5)),
		expense("user-1", "Rent", 120000, date(2025, 1, 2)),
		expense("user-1", "Rent", 120000, date(2025, 2, 2)),
		expense("user-1", "Rent", 120000, date(2025, 3, 2)),
		expense("user-1", "Groceries", 30000, date(2025, 3, 8)),
		// Before the three-month window; must be ignored.
		expense("user-1", "Rent", 99999, date(2024, 11, 1)),
	}}
	series := &fakeSeriesLister{series: []core.RecurringSeries{
		{UserID: "user-1", Amount: core.Money{Cents: 5000}, Kind: core.Expense, Category: "Streaming", IsActive: true},
		{UserID: "user-1", Amount: core.Money{Cents: 20000}, Kind: core.Income, Category: "Freelance", IsActive: true},
		{UserID: "user-1", Amount: core.Money{Cents: 70000}, Kind: core.Expense, Category: "Gym", IsActive: false},
	}}
	svc := NewAnalyticsService(st, series)

	f, err := svc.Forecast(context.Background(), "user-1", date(2025, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Months != 3 || f.SampleSize != 7 {
		t.Fatalf("window = %d months / %d transactions, want 3 / 7", f.Months, f.SampleSize)
	}
	if f.AvgIncome.Cents != 300000 || f.AvgExpense.Cents != 130000 {
		t.Errorf("averages = income %d, expense %d, want 300000, 130000",
			f.AvgIncome.Cents, f.AvgExpense.Cents)
	}
	if len(f.CategoryAverages) != 2 ||
		f.CategoryAverages[0].Name != "Rent" || f.CategoryAverages[0].Amount.Cents != 120000 ||
		f.CategoryAverages[1].Name != "Groceries" || f.CategoryAverages[1].Amount.Cents != 10000 {
		t.Errorf("category averages = %+v, want Rent 120000, Groceries 10000", f.CategoryAverages)
	}
	if f.RecurringExpense.Cents != 5000 || f.RecurringIncome.Cents != 20000 {
		t.Errorf("recurring = expense %d, income %d, want 5000, 20000",
			f.RecurringExpense.Cents, f.RecurringIncome.Cents)
	}
	if f.ExpectedIncome.Cents != 320000 || f.ExpectedExpense.Cents != 135000 || f.ExpectedBalance.Cents != 185000 {
		t.Errorf("expected = income %d, expense %d, balance %d, want 320000, 135000, 185000",
			f.ExpectedIncome.Cents, f.ExpectedExpense.Cents, f.ExpectedBalance.Cents)
	}
}

func TestAnalyticsForecastEmptyHistoryStillCountsRecurring(t *testing.T) {
	series := &fakeSeriesLister{series: []core.RecurringSeries{
		{UserID: "user-1", Amount: core.Money{Cents: 5000}, Kind: core.Expense, Category: "Streaming", IsActive: true},
	}}
	svc := NewAnalyticsService(&fakeTransactionStore{}, series)

	f, err := svc.Forecast(context.Background(), "user-1", date(2025, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Months != 0 || f.SampleSize != 0 {
		t.Fatalf("expected empty window, got %d months / %d transactions", f.Months, f.SampleSize)
	}
	if f.ExpectedExpense.Cents != 5000 || f.ExpectedBalance.Cents != -5000 {
		t.Errorf("expected = expense %d, balance %d, want 5000, -5000",
			f.ExpectedExpense.Cents, f.ExpectedBalance.Cents)
	}
}

func TestAnalyticsMonthComparison(t *testing.T) {
	tests := []struct {
		name        string
		current     int64
		previous    int64
		wantPercent int
	}{
		{"increase", 15000, 10000, 50},
		{"decrease", 5000, 10000, -50},
		{"no previous spending", 5000, 0, 100},
		{"nothing either month", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeTransactionStore{}
			if tt.current > 0 {
				st.transactions = append(st.transactions,
					expense("user-1", "Misc", tt.current, date(2025, 3, 5)))
			}
			if tt.previous > 0 {
				st.transactions = append(st.transactions,
					expense("user-1", "Misc", tt.previous, date(2025, 2, 5)))
			}
			svc := NewAnalyticsService(st, &fakeSeriesLister{})

			r, err := svc.Report(context.Background(), "user-1", date(2025, 3, 15))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Comparison.CurrentMonth.Cents != tt.current {
				t.Errorf("current = %d, want %d", r.Comparison.CurrentMonth.Cents, tt.current)
			}
			if r.Comparison.PreviousMonth.Cents != tt.previous {
				t.Errorf("previous = %d, want %d", r.Comparison.PreviousMonth.Cents, tt.previous)
			}
			if r.Comparison.ChangePercent != tt.wantPercent {
				t.Errorf("change = %d%%, want %d%%", r.Comparison.ChangePercent, tt.wantPercent)
			}
		})
	}
}
