package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artup/artup-api/internal/middleware"
	"github.com/artup/artup-api/internal/model"
	"github.com/artup/artup-api/internal/service"
)

// AuthHandler handles HTTP requests for accounts and profiles.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleRegister handles POST /user/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid input"))
		return
	}

	_, err := h.service.Register(r.Context(), req, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case isUserValidationError(err):
			writeJSON(w, http.StatusBadRequest, messageResponse(err.Error()))
		case errors.Is(err, service.ErrUserTaken):
			writeJSON(w, http.StatusConflict, messageResponse("Username or e-mail is taken"))
		default:
			slog.Error("could not create user", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Could not create user"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse("User created"))
}

// HandleLogin handles POST /user/login requests. The issued token is
// returned in the body and echoed in the Authorization header.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid input"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid input"))
		return
	}

	token, err := h.service.Login(r.Context(), req, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotRegistered):
			writeJSON(w, http.StatusNotFound, messageResponse("User not registered"))
		case errors.Is(err, service.ErrInvalidPassword):
			writeJSON(w, http.StatusUnauthorized, messageResponse("Invalid password"))
		default:
			slog.Error("could not log user in", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Could not log in"))
		}
		return
	}

	w.Header().Set("Authorization", token)
	writeJSON(w, http.StatusOK, model.AuthResponse{Message: "Logged in", Token: token})
}

// HandleGetPublicProfile handles GET /user/data/{id} requests.
func (h *AuthHandler) HandleGetPublicProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 36 {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid id"))
		return
	}

	profile, err := h.service.GetPublicProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse("Could not find user"))
			return
		}
		slog.Error("could not fetch user", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Could not fetch user"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "User fetched",
		"userData": profile,
	})
}

// HandleGetProfile handles GET /user/data requests for the logged-in
// user, returning the complete record minus the password hash.
func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse("Unauthorized"))
		return
	}

	user, err := h.service.GetFullProfile(r.Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse("Could not find user"))
			return
		}
		slog.Error("could not fetch user", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Could not fetch user"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "User fetched",
		"userData": user,
	})
}

// HandleUpdateSettings handles PATCH /user/data requests.
func (h *AuthHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse("Unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid input"))
		return
	}

	if err := h.service.UpdateSettings(r.Context(), ident.UserID, req); err != nil {
		switch {
		case errors.Is(err, service.ErrNoSettings), isUserValidationError(err):
			writeJSON(w, http.StatusBadRequest, messageResponse("Invalid input"))
		case errors.Is(err, service.ErrUsernameTaken):
			writeJSON(w, http.StatusConflict, messageResponse("Username is taken"))
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUserTaken):
			writeJSON(w, http.StatusConflict, messageResponse("E-mail is taken"))
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse("Could not find user"))
		default:
			slog.Error("could not update settings", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Could not update settings"))
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("Settings updated"))
}

func isUserValidationError(err error) bool {
	return errors.Is(err, service.ErrUsernameTooShort) ||
		errors.Is(err, service.ErrUsernameTooLong) ||
		errors.Is(err, service.ErrNameTooShort) ||
		errors.Is(err, service.ErrNameTooLong) ||
		errors.Is(err, service.ErrInvalidEmail) ||
		errors.Is(err, service.ErrPasswordTooShort) ||
		errors.Is(err, service.ErrBioTooLong) ||
		errors.Is(err, service.ErrTagsTooLong)
}
