package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = sanitizeInput(req.Name)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid email address")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := s.deps.Users.CreateUser(r.Context(), req.Email, hash, req.Name)
	if errors.Is(err, storage.ErrDuplicate) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		storeError(w, r, err)
		return
	}

	token, err := s.deps.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, hash, err := s.deps.Users.GetUserByEmail(r.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
		return
	}
	if err != nil {
		storeError(w, r, err)
		return
	}

	if err := auth.CheckPassword(hash, req.Password); err != nil {
		slog.WarnContext(r.Context(), "Failed login attempt", "user_id", user.ID)
		writeError(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
		return
	}

	token, err := s.deps.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		storeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	user, err := s.deps.Users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

const oauthStateCookie = "oauth_state"

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Google == nil {
		writeError(w, http.StatusNotFound, "Google login is not configured")
		return
	}

	state, err := auth.NewStateToken()
	if err != nil {
		storeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.deps.Google.AuthURL(state), http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.Google == nil {
		writeError(w, http.StatusNotFound, "Google login is not configured")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "OAuth state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	profile, err := s.deps.Google.Exchange(r.Context(), code)
	if err != nil {
		slog.ErrorContext(r.Context(), "Google code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "Google sign-in failed")
		return
	}

	user, err := s.deps.Users.UpsertGoogleUser(r.Context(), profile.ID, profile.Email, profile.Name)
	if err != nil {
		storeError(w, r, err)
		return
	}

	token, err := s.deps.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User signed in via Google", "user_id", user.ID)
	redirect := s.deps.FrontendURL + "/auth/callback?token=" + url.QueryEscape(token)
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}
