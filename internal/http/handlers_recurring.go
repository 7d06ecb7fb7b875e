package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type seriesRequest struct {
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"` // optional
}

type seriesResponse struct {
	ID            string     `json:"id"`
	Amount        core.Money `json:"amount"`
	Kind          string     `json:"kind"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	Frequency     string     `json:"frequency"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date,omitempty"`
	LastProcessed string     `json:"last_processed,omitempty"`
	Active        bool       `json:"active"`
	NextDue       string     `json:"next_due,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toSeriesResponse(s core.RecurringSeries) seriesResponse {
	resp := seriesResponse{
		ID:          s.ID,
		Amount:      s.Amount,
		Kind:        string(s.Kind),
		Category:    s.Category,
		Description: s.Description,
		Frequency:   string(s.Frequency),
		StartDate:   s.StartDate.Format("2006-01-02"),
		Active:      s.IsActive,
		CreatedAt:   s.CreatedAt,
	}
	if !s.EndDate.IsZero() {
		resp.EndDate = s.EndDate.Format("2006-01-02")
	}
	if !s.LastProcessed.IsZero() {
		resp.LastProcessed = s.LastProcessed.Format("2006-01-02")
	}
	if s.IsActive {
		next := core.Midnight(s.StartDate)
		if !s.LastProcessed.IsZero() {
			next = core.NextDate(s.LastProcessed, s.Frequency)
		}
		if s.EndDate.IsZero() || !next.After(core.Midnight(s.EndDate)) {
			resp.NextDue = next.Format("2006-01-02")
		}
	}
	return resp
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid start date, expected YYYY-MM-DD")
		return
	}

	series := core.RecurringSeries{
		UserID:      identity(r).UserID,
		Amount:      amount,
		Kind:        core.TransactionKind(req.Kind),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   start,
		IsActive:    true,
	}
	if req.EndDate != "" {
		end, err := parseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid end date, expected YYYY-MM-DD")
			return
		}
		series.EndDate = end
	}
	if err := series.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.deps.Series.CreateSeries(r.Context(), series)
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSeriesResponse(created))
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.deps.Series.ListSeries(r.Context(), identity(r).UserID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	out := make([]seriesResponse, 0, len(series))
	for _, item := range series {
		out = append(out, toSeriesResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.deps.Series.GetSeries(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeriesResponse(series))
}

// seriesUpdateRequest carries the mutable fields. Omitted fields keep
// their stored value; schedule fields are fixed at creation.
type seriesUpdateRequest struct {
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

func (s *Server) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := s.deps.Series.GetSeries(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}

	if req.Amount != nil {
		amount, err := core.ParseMoney(*req.Amount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		series.Amount = amount
	}
	if req.Description != nil {
		series.Description = sanitizeInput(*req.Description)
	}
	if req.Active != nil {
		series.IsActive = *req.Active
	}
	if err := series.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.deps.Series.UpdateSeries(r.Context(), series); err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeriesResponse(series))
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Series.DeleteSeries(r.Context(), identity(r).UserID, r.PathValue("id")); err != nil {
		storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleSeries flips a series between active and paused. The
// processing marker is kept, so reactivation resumes from where the
// series left off rather than backfilling the pause.
func (s *Server) handleToggleSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.deps.Series.GetSeries(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}

	series.IsActive = !series.IsActive
	if err := s.deps.Series.UpdateSeries(r.Context(), series); err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeriesResponse(series))
}
