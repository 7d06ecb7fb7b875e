package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AnalyticsService aggregates a user's transactions into the dashboard
// report. Everything is computed in one pass over the user's history;
// at personal-finance volumes that is cheaper than maintaining rollups.
type AnalyticsService struct {
	store  TransactionStore
	series SeriesLister
}

func NewAnalyticsService(store TransactionStore, series SeriesLister) *AnalyticsService {
	return &AnalyticsService{store: store, series: series}
}

const (
	monthlyWindow  = 6
	topExpenseN    = 5
	forecastWindow = 3
)

// Report builds the full analytics payload for one user as of now.
func (s *AnalyticsService) Report(ctx context.Context, userID string, now time.Time) (core.AnalyticsReport, error) {
	transactions, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return core.AnalyticsReport{}, fmt.Errorf("list transactions: %w", err)
	}

	report := core.AnalyticsReport{
		Summary:      summarize(transactions),
		CategoryData: expensesByCategory(transactions),
		MonthlyData:  monthlyFlows(transactions, now),
		TopExpenses:  topExpenses(transactions),
		Comparison:   compareMonths(transactions, now),
	}
	return report, nil
}

// Forecast projects next month's cash flow: per-month averages over the
// last three months of history plus the user's active recurring series.
func (s *AnalyticsService) Forecast(ctx context.Context, userID string, now time.Time) (core.Forecast, error) {
	from := now.AddDate(0, -forecastWindow, 0)
	transactions, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{From: from})
	if err != nil {
		return core.Forecast{}, fmt.Errorf("list transactions: %w", err)
	}

	f := core.Forecast{SampleSize: len(transactions)}

	months := make(map[string]struct{})
	byCategory := make(map[string]int64)
	var incomeCents, expenseCents int64
	for _, t := range transactions {
		months[t.Date.Format("2006-01")] = struct{}{}
		switch t.Kind {
		case core.Income:
			incomeCents += t.Amount.Cents
		case core.Expense:
			expenseCents += t.Amount.Cents
			byCategory[t.Category] += t.Amount.Cents
		}
	}

	// Averages divide by months that actually have data, so a sparse
	// history is not diluted by empty months.
	f.Months = len(months)
	if f.Months > 0 {
		n := int64(f.Months)
		f.AvgIncome.Cents = incomeCents / n
		f.AvgExpense.Cents = expenseCents / n
		f.CategoryAverages = make([]core.CategoryAmount, 0, len(byCategory))
		for name, cents := range byCategory {
			f.CategoryAverages = append(f.CategoryAverages,
				core.CategoryAmount{Name: name, Amount: core.Money{Cents: cents / n}})
		}
		sortCategories(f.CategoryAverages)
	}

	series, err := s.series.ListSeries(ctx, userID)
	if err != nil {
		return core.Forecast{}, fmt.Errorf("list recurring series: %w", err)
	}
	for _, sr := range series {
		if !sr.IsActive {
			continue
		}
		switch sr.Kind {
		case core.Income:
			f.RecurringIncome.Cents += sr.Amount.Cents
		case core.Expense:
			f.RecurringExpense.Cents += sr.Amount.Cents
		}
	}

	f.ExpectedIncome.Cents = f.AvgIncome.Cents + f.RecurringIncome.Cents
	f.ExpectedExpense.Cents = f.AvgExpense.Cents + f.RecurringExpense.Cents
	f.ExpectedBalance.Cents = f.ExpectedIncome.Cents - f.ExpectedExpense.Cents
	return f, nil
}

func summarize(transactions []core.Transaction) core.AnalyticsSummary {
	var sum core.AnalyticsSummary
	for _, t := range transactions {
		switch t.Kind {
		case core.Income:
			sum.TotalIncome.Cents += t.Amount.Cents
		case core.Expense:
			sum.TotalExpense.Cents += t.Amount.Cents
		}
	}
	sum.Balance.Cents = sum.TotalIncome.Cents - sum.TotalExpense.Cents
	sum.TransactionCount = len(transactions)
	return sum
}

// expensesByCategory returns expense totals per category, largest first.
func expensesByCategory(transactions []core.Transaction) []core.CategoryAmount {
	totals := make(map[string]int64)
	for _, t := range transactions {
		if t.Kind == core.Expense {
			totals[t.Category] += t.Amount.Cents
		}
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for name, cents := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	sortCategories(out)
	return out
}

// sortCategories orders largest first; ties break alphabetically so the
// order is stable.
func sortCategories(cats []core.CategoryAmount) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Amount.Cents != cats[j].Amount.Cents {
			return cats[i].Amount.Cents > cats[j].Amount.Cents
		}
		return cats[i].Name < cats[j].Name
	})
}

// monthlyFlows returns income/expense pairs for the last six calendar
// months, oldest first, with empty months present as zeros.
func monthlyFlows(transactions []core.Transaction, now time.Time) []core.MonthFlow {
	byMonth := make(map[string]*core.MonthFlow, monthlyWindow)
	flows := make([]core.MonthFlow, 0, monthlyWindow)

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := monthlyWindow - 1; i >= 0; i-- {
		key := first.AddDate(0, -i, 0).Format("2006-01")
		flows = append(flows, core.MonthFlow{Month: key})
	}
	for i := range flows {
		byMonth[flows[i].Month] = &flows[i]
	}

	for _, t := range transactions {
		flow, ok := byMonth[t.Date.Format("2006-01")]
		if !ok {
			continue
		}
		switch t.Kind {
		case core.Income:
			flow.Income.Cents += t.Amount.Cents
		case core.Expense:
			flow.Expense.Cents += t.Amount.Cents
		}
	}

	return flows
}

// topExpenses returns the five largest expenses, largest first.
func topExpenses(transactions []core.Transaction) []core.Transaction {
	expenses := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.Kind == core.Expense {
			expenses = append(expenses, t)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Amount.Cents > expenses[j].Amount.Cents
	})
	if len(expenses) > topExpenseN {
		expenses = expenses[:topExpenseN]
	}
	return expenses
}

// compareMonths contrasts this month's spending with last month's. The
// change is a whole percentage; with no spending last month it is 100
// when anything was spent this month and 0 otherwise.
func compareMonths(transactions []core.Transaction, now time.Time) core.MonthComparison {
	current := now.Format("2006-01")
	previous := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -1, 0).Format("2006-01")

	var cmp core.MonthComparison
	for _, t := range transactions {
		if t.Kind != core.Expense {
			continue
		}
		switch t.Date.Format("2006-01") {
		case current:
			cmp.CurrentMonth.Cents += t.Amount.Cents
		case previous:
			cmp.PreviousMonth.Cents += t.Amount.Cents
		}
	}

	switch {
	case cmp.PreviousMonth.Cents > 0:
		cmp.ChangePercent = int((cmp.CurrentMonth.Cents - cmp.PreviousMonth.Cents) * 100 / cmp.PreviousMonth.Cents)
	case cmp.CurrentMonth.Cents > 0:
		cmp.ChangePercent = 100
	}
	return cmp
}
