package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type transactionRequest struct {
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD
}

type transactionResponse struct {
	ID          string     `json:"id"`
	Amount      core.Money `json:"amount"`
	Kind        string     `json:"kind"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Kind:        string(t.Kind),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.Format("2006-01-02"),
		CreatedAt:   t.CreatedAt,
	}
}

func toTransactionResponses(ts []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

// parseTransaction converts a request payload to a domain transaction.
func parseTransaction(req transactionRequest, userID string) (core.Transaction, string) {
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		return core.Transaction{}, "invalid amount"
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, "invalid date, expected YYYY-MM-DD"
	}
	return core.Transaction{
		UserID:      userID,
		Amount:      amount,
		Kind:        core.TransactionKind(req.Kind),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        day,
	}, ""
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, msg := parseTransaction(req, identity(r).UserID)
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.deps.Transactions.Create(r.Context(), t)
	if err != nil {
		storeError(w, r, err)
		return
	}

	s.invalidateAdvice(created.UserID)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{
		Kind:     core.TransactionKind(q.Get("kind")),
		Category: q.Get("category"),
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "kind must be income or expense")
		return
	}
	if v := q.Get("from"); v != "" {
		day, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid from date")
			return
		}
		filter.From = day
	}
	if v := q.Get("to"); v != "" {
		day, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid to date")
			return
		}
		filter.To = day
	}

	transactions, err := s.deps.Transactions.List(r.Context(), identity(r).UserID, filter)
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(transactions))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Transactions.Get(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, msg := parseTransaction(req, identity(r).UserID)
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	t.ID = r.PathValue("id")
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.deps.Transactions.Update(r.Context(), t)
	if err != nil {
		storeError(w, r, err)
		return
	}

	s.invalidateAdvice(updated.UserID)
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	if err := s.deps.Transactions.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		storeError(w, r, err)
		return
	}
	s.invalidateAdvice(userID)
	w.WriteHeader(http.StatusNoContent)
}

// invalidateAdvice drops the cached AI advice after a write that
// changes the user's numbers.
func (s *Server) invalidateAdvice(userID string) {
	if s.deps.Advisor != nil {
		s.deps.Advisor.Invalidate(userID)
	}
}
