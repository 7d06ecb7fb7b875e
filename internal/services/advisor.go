package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// ErrAdvisorDisabled is returned when no Gemini API key is configured.
var ErrAdvisorDisabled = errors.New("AI advisor is not configured")

// Generator produces advice text from a prompt. The Gemini client
// satisfies it; tests swap in a canned one.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reporter is the slice of the analytics service the advisor needs.
type Reporter interface {
	Report(ctx context.Context, userID string, now time.Time) (core.AnalyticsReport, error)
	Forecast(ctx context.Context, userID string, now time.Time) (core.Forecast, error)
}

// Prediction pairs the model's narrative forecast with the figures it
// was computed from. Forecast is nil when there is too little history.
type Prediction struct {
	Message  string
	Forecast *core.Forecast
}

// Advisor turns a user's analytics report into spending advice via
// Gemini. Responses are cached per user so repeated requests within the
// TTL do not burn model quota.
type Advisor struct {
	reporter  Reporter
	generator Generator
	cache     *cache.LRU[string]
}

const (
	adviceCacheSize = 256
	// minForecastSample is the fewest transactions in the window that
	// still give a usable forecast.
	minForecastSample = 10
)

func NewAdvisor(reporter Reporter, generator Generator, ttl time.Duration) *Advisor {
	return &Advisor{
		reporter:  reporter,
		generator: generator,
		cache:     cache.NewLRU[string](adviceCacheSize, ttl),
	}
}

// Advise returns spending advice for the user, serving a cached answer
// when one is fresh.
func (a *Advisor) Advise(ctx context.Context, userID string, now time.Time) (string, error) {
	if a.generator == nil {
		return "", ErrAdvisorDisabled
	}

	if advice, ok := a.cache.Get(userID); ok {
		slog.DebugContext(ctx, "Serving cached advice", "user_id", userID)
		return advice, nil
	}

	report, err := a.reporter.Report(ctx, userID, now)
	if err != nil {
		return "", fmt.Errorf("build analytics report: %w", err)
	}

	if report.Summary.TransactionCount == 0 {
		return "Add some transactions first, then I can give you tailored advice on your spending.", nil
	}

	advice, err := a.generator.Generate(ctx, advicePrompt(report))
	if err != nil {
		return "", fmt.Errorf("generate advice: %w", err)
	}

	advice = cleanModelText(advice)
	a.cache.Set(userID, advice)
	return advice, nil
}

// Predict projects the user's budget for next month. Predictions are
// not cached: unlike advice they change with every recorded transaction
// and the endpoint is called far less often.
func (a *Advisor) Predict(ctx context.Context, userID string, now time.Time) (Prediction, error) {
	if a.generator == nil {
		return Prediction{}, ErrAdvisorDisabled
	}

	forecast, err := a.reporter.Forecast(ctx, userID, now)
	if err != nil {
		return Prediction{}, fmt.Errorf("build forecast: %w", err)
	}

	if forecast.SampleSize < minForecastSample {
		return Prediction{
			Message: "Not enough history for a reliable forecast yet. Add at least ten transactions over the last three months.",
		}, nil
	}

	text, err := a.generator.Generate(ctx, predictPrompt(forecast))
	if err != nil {
		return Prediction{}, fmt.Errorf("generate forecast: %w", err)
	}

	return Prediction{Message: cleanModelText(text), Forecast: &forecast}, nil
}

// Invalidate drops the cached advice for one user, used after writes
// that change their financial picture.
func (a *Advisor) Invalidate(userID string) {
	a.cache.Delete(userID)
}

func advicePrompt(r core.AnalyticsReport) string {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant. Based on the figures below, " +
		"give 3-5 short, concrete, actionable pieces of advice. " +
		"Respond in plain text without Markdown formatting.\n\n")

	fmt.Fprintf(&b, "Total income: %s\n", r.Summary.TotalIncome)
	fmt.Fprintf(&b, "Total expenses: %s\n", r.Summary.TotalExpense)
	fmt.Fprintf(&b, "Balance: %s\n", r.Summary.Balance)

	if len(r.CategoryData) > 0 {
		b.WriteString("\nSpending by category:\n")
		for _, c := range r.CategoryData {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Amount)
		}
	}

	if len(r.MonthlyData) > 0 {
		b.WriteString("\nMonthly income/expenses:\n")
		for _, m := range r.MonthlyData {
			fmt.Fprintf(&b, "- %s: income %s, expenses %s\n", m.Month, m.Income, m.Expense)
		}
	}

	fmt.Fprintf(&b, "\nSpending this month: %s (previous month: %s, change: %d%%)\n",
		r.Comparison.CurrentMonth, r.Comparison.PreviousMonth, r.Comparison.ChangePercent)

	return b.String()
}

func predictPrompt(f core.Forecast) string {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant. Using the historical figures below, " +
		"forecast the user's budget for next month. Give concrete numbers and 2-3 short " +
		"planning tips. Respond in plain text without Markdown formatting.\n\n")

	fmt.Fprintf(&b, "History covers the last %d months.\n", f.Months)
	fmt.Fprintf(&b, "Average monthly income: %s\n", f.AvgIncome)
	fmt.Fprintf(&b, "Average monthly expenses: %s\n", f.AvgExpense)

	if len(f.CategoryAverages) > 0 {
		b.WriteString("\nAverage monthly expenses by category:\n")
		for _, c := range f.CategoryAverages {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Amount)
		}
	}

	fmt.Fprintf(&b, "\nRecurring payments due next month: expenses %s, income %s\n",
		f.RecurringExpense, f.RecurringIncome)

	return b.String()
}

// cleanModelText strips Markdown code fences the model sometimes wraps
// its answer in despite instructions.
func cleanModelText(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// GeminiGenerator backs Generator with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}
