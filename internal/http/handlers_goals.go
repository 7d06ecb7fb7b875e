package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type goalRequest struct {
	Title    string `json:"title"`
	Target   string `json:"target"`
	Current  string `json:"current"`
	Deadline string `json:"deadline"` // YYYY-MM-DD, optional
}

type goalResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Target    core.Money `json:"target"`
	Current   core.Money `json:"current"`
	Percent   int        `json:"percent"`
	Deadline  string     `json:"deadline,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toGoalResponse(g core.Goal) goalResponse {
	resp := goalResponse{
		ID:        g.ID,
		Title:     g.Title,
		Target:    g.Target,
		Current:   g.Current,
		CreatedAt: g.CreatedAt,
	}
	if g.Target.Cents > 0 {
		resp.Percent = int(g.Current.Cents * 100 / g.Target.Cents)
	}
	if !g.Deadline.IsZero() {
		resp.Deadline = g.Deadline.Format("2006-01-02")
	}
	return resp
}

// parseGoal converts a payload to a domain goal. The current amount is
// optional and defaults to zero.
func parseGoal(req goalRequest, userID string) (core.Goal, string) {
	target, err := core.ParseMoney(req.Target)
	if err != nil {
		return core.Goal{}, "invalid target amount"
	}

	g := core.Goal{
		UserID: userID,
		Title:  sanitizeInput(req.Title),
		Target: target,
	}
	if req.Current != "" {
		current, err := core.ParseMoney(req.Current)
		if err != nil {
			return core.Goal{}, "invalid current amount"
		}
		g.Current = current
	}
	if req.Deadline != "" {
		deadline, err := parseDate(req.Deadline)
		if err != nil {
			return core.Goal{}, "invalid deadline, expected YYYY-MM-DD"
		}
		g.Deadline = deadline
	}
	return g, ""
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, msg := parseGoal(req, identity(r).UserID)
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if err := g.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.deps.Goals.CreateGoal(r.Context(), g)
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(created))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.ListGoals(r.Context(), identity(r).UserID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Goals.GetGoal(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, msg := parseGoal(req, identity(r).UserID)
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	g.ID = r.PathValue("id")
	if err := g.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.deps.Goals.UpdateGoal(r.Context(), g); err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Goals.DeleteGoal(r.Context(), identity(r).UserID, r.PathValue("id")); err != nil {
		storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type goalProgressRequest struct {
	Amount string `json:"amount"` // added to the current saved amount
}

// handleGoalProgress adds a contribution to a goal's saved amount.
func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	var req goalProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	g, err := s.deps.Goals.GetGoal(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}

	g.Current.Cents += amount.Cents
	if err := s.deps.Goals.UpdateGoal(r.Context(), g); err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}
