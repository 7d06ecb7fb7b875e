package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type budgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
	Month    string `json:"month"` // YYYY-MM
}

type budgetResponse struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Limit     core.Money `json:"limit"`
	Month     string     `json:"month"`
	Spent     core.Money `json:"spent"`
	Remaining core.Money `json:"remaining"`
	Percent   int        `json:"percent"`
	CreatedAt time.Time  `json:"created_at"`
}

func toBudgetResponse(v services.BudgetView) budgetResponse {
	return budgetResponse{
		ID:        v.Budget.ID,
		Category:  v.Budget.Category,
		Limit:     v.Budget.Limit,
		Month:     v.Budget.Month,
		Spent:     v.Spent,
		Remaining: v.Remaining,
		Percent:   v.Percent,
		CreatedAt: v.Budget.CreatedAt,
	}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := core.ParseMoney(req.Limit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid limit")
		return
	}

	b := core.Budget{
		UserID:   identity(r).UserID,
		Category: sanitizeInput(req.Category),
		Limit:    limit,
		Month:    req.Month,
	}
	if err := b.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.deps.Budgets.CreateBudget(r.Context(), b)
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(services.BudgetView{
		Budget:    created,
		Remaining: created.Limit,
	}))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" && !core.ValidMonth(month) {
		writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidMonth.Error())
		return
	}

	views, err := s.deps.BudgetViews.Annotated(r.Context(), identity(r).UserID, month)
	if err != nil {
		storeError(w, r, err)
		return
	}

	out := make([]budgetResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toBudgetResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Budgets.GetBudget(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}

	// Annotate the single budget through its own month.
	views, err := s.deps.BudgetViews.Annotated(r.Context(), b.UserID, b.Month)
	if err != nil {
		storeError(w, r, err)
		return
	}
	for _, v := range views {
		if v.Budget.ID == b.ID {
			writeJSON(w, http.StatusOK, toBudgetResponse(v))
			return
		}
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(services.BudgetView{Budget: b}))
}

type budgetUpdateRequest struct {
	Limit string `json:"limit"`
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := core.ParseMoney(req.Limit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid limit")
		return
	}

	userID := identity(r).UserID
	id := r.PathValue("id")
	if err := s.deps.Budgets.UpdateBudgetLimit(r.Context(), userID, id, limit); err != nil {
		storeError(w, r, err)
		return
	}

	b, err := s.deps.Budgets.GetBudget(r.Context(), userID, id)
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(services.BudgetView{Budget: b}))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Budgets.DeleteBudget(r.Context(), identity(r).UserID, r.PathValue("id")); err != nil {
		storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type alertResponse struct {
	ID        string     `json:"id"`
	BudgetID  string     `json:"budget_id"`
	Category  string     `json:"category"`
	Month     string     `json:"month"`
	Spent     core.Money `json:"spent"`
	Limit     core.Money `json:"limit"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *Server) handleListBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.deps.Budgets.ListBudgetAlerts(r.Context(), identity(r).UserID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{
			ID:        a.ID,
			BudgetID:  a.BudgetID,
			Category:  a.Category,
			Month:     a.Month,
			Spent:     a.Spent,
			Limit:     a.Limit,
			CreatedAt: a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
