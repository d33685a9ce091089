package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hisob/internal/auth"
	"hisob/internal/core"
)

const minPasswordLength = 6

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Username == "" {
		writeError(w, http.StatusUnprocessableEntity, "username is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusUnprocessableEntity, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		slog.ErrorContext(r.Context(), "Password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	id, err := s.repo.CreateUser(r.Context(), req.Username, hash, req.FullName)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(id, req.Username)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token issuance failed", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", id, "username", req.Username)
	writeJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  userView{ID: id, Username: req.Username, FullName: req.FullName},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.repo.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeDomainError(w, r, err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		slog.WarnContext(r.Context(), "Login rejected", "username", user.Username)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token issuance failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  userView{ID: user.ID, Username: user.Username, FullName: user.FullName},
	})
}
