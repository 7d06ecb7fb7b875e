package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type categoryAmountResponse struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

type monthFlowResponse struct {
	Month   string     `json:"month"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

type analyticsResponse struct {
	Summary struct {
		TotalIncome      core.Money `json:"total_income"`
		TotalExpense     core.Money `json:"total_expense"`
		Balance          core.Money `json:"balance"`
		TransactionCount int        `json:"transaction_count"`
	} `json:"summary"`
	Categories  []categoryAmountResponse `json:"categories"`
	Monthly     []monthFlowResponse      `json:"monthly"`
	TopExpenses []transactionResponse    `json:"top_expenses"`
	Comparison  struct {
		CurrentMonth  core.Money `json:"current_month"`
		PreviousMonth core.Money `json:"previous_month"`
		ChangePercent int        `json:"change_percent"`
	} `json:"comparison"`
}

func toAnalyticsResponse(r core.AnalyticsReport) analyticsResponse {
	var resp analyticsResponse
	resp.Summary.TotalIncome = r.Summary.TotalIncome
	resp.Summary.TotalExpense = r.Summary.TotalExpense
	resp.Summary.Balance = r.Summary.Balance
	resp.Summary.TransactionCount = r.Summary.TransactionCount

	resp.Categories = make([]categoryAmountResponse, 0, len(r.CategoryData))
	for _, c := range r.CategoryData {
		resp.Categories = append(resp.Categories, categoryAmountResponse{Name: c.Name, Amount: c.Amount})
	}
	resp.Monthly = make([]monthFlowResponse, 0, len(r.MonthlyData))
	for _, m := range r.MonthlyData {
		resp.Monthly = append(resp.Monthly, monthFlowResponse{Month: m.Month, Income: m.Income, Expense: m.Expense})
	}
	resp.TopExpenses = toTransactionResponses(r.TopExpenses)

	resp.Comparison.CurrentMonth = r.Comparison.CurrentMonth
	resp.Comparison.PreviousMonth = r.Comparison.PreviousMonth
	resp.Comparison.ChangePercent = r.Comparison.ChangePercent
	return resp
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Analytics.Report(r.Context(), identity(r).UserID, time.Now().UTC())
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyticsResponse(report))
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if s.deps.Advisor == nil {
		writeError(w, http.StatusServiceUnavailable, services.ErrAdvisorDisabled.Error())
		return
	}

	advice, err := s.deps.Advisor.Advise(r.Context(), identity(r).UserID, time.Now().UTC())
	if errors.Is(err, services.ErrAdvisorDisabled) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Advice generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not generate advice")
		return
	}
	writeJSON(w, http.StatusOK, adviceResponse{Advice: advice})
}

type forecastResponse struct {
	ExpectedIncome   core.Money               `json:"expected_income"`
	ExpectedExpense  core.Money               `json:"expected_expense"`
	ExpectedBalance  core.Money               `json:"expected_balance"`
	Categories       []categoryAmountResponse `json:"categories"`
	RecurringIncome  core.Money               `json:"recurring_income"`
	RecurringExpense core.Money               `json:"recurring_expense"`
}

type predictionResponse struct {
	Prediction string            `json:"prediction"`
	Forecast   *forecastResponse `json:"forecast"`
}

func toPredictionResponse(p services.Prediction) predictionResponse {
	resp := predictionResponse{Prediction: p.Message}
	if p.Forecast == nil {
		return resp
	}

	f := &forecastResponse{
		ExpectedIncome:   p.Forecast.ExpectedIncome,
		ExpectedExpense:  p.Forecast.ExpectedExpense,
		ExpectedBalance:  p.Forecast.ExpectedBalance,
		RecurringIncome:  p.Forecast.RecurringIncome,
		RecurringExpense: p.Forecast.RecurringExpense,
	}
	f.Categories = make([]categoryAmountResponse, 0, len(p.Forecast.CategoryAverages))
	for _, c := range p.Forecast.CategoryAverages {
		f.Categories = append(f.Categories, categoryAmountResponse{Name: c.Name, Amount: c.Amount})
	}
	resp.Forecast = f
	return resp
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if s.deps.Advisor == nil {
		writeError(w, http.StatusServiceUnavailable, services.ErrAdvisorDisabled.Error())
		return
	}

	prediction, err := s.deps.Advisor.Predict(r.Context(), identity(r).UserID, time.Now().UTC())
	if errors.Is(err, services.ErrAdvisorDisabled) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Forecast generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not generate forecast")
		return
	}
	writeJSON(w, http.StatusOK, toPredictionResponse(prediction))
}
