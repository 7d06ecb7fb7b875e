package core

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthFlow is the income/expense pair for one calendar month.
type MonthFlow struct {
	Month   string // "2006-01"
	Income  Money
	Expense Money
}

// AnalyticsSummary holds headline totals over a user's transactions.
type AnalyticsSummary struct {
	TotalIncome      Money
	TotalExpense     Money
	Balance          Money
	TransactionCount int
}

// MonthComparison contrasts the current month's spending with the
// previous month's.
type MonthComparison struct {
	CurrentMonth  Money
	PreviousMonth Money
	ChangePercent int
}

// Forecast projects next month's cash flow from recent history plus
// the user's active recurring series.
type Forecast struct {
	Months           int // months with data in the sample window
	SampleSize       int // transactions in the sample window
	AvgIncome        Money
	AvgExpense       Money
	CategoryAverages []CategoryAmount
	RecurringIncome  Money
	RecurringExpense Money
	ExpectedIncome   Money
	ExpectedExpense  Money
	ExpectedBalance  Money
}

// AnalyticsReport is the full dashboard payload for one user.
type AnalyticsReport struct {
	Summary      AnalyticsSummary
	CategoryData []CategoryAmount
	MonthlyData  []MonthFlow
	TopExpenses  []Transaction
	Comparison   MonthComparison
}
