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

// PostHandler handles HTTP requests for the post catalog.
type PostHandler struct {
	service *service.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{service: svc}
}

// HandleList handles GET /posts/all requests.
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	result, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		if errors.Is(err, service.ErrNoPosts) {
			writeJSON(w, http.StatusNotFound, messageResponse("Could not find any posts"))
			return
		}
		slog.Error("could not list posts", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Could not fetch posts"))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleMatching handles GET /posts/matching requests, returning posts
// whose tags intersect the logged-in user's tags.
func (h *PostHandler) HandleMatching(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse("Unauthorized"))
		return
	}

	page, limit := pagination(r)

	result, err := h.service.MatchingTags(r.Context(), ident.UserID, page, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoUserTags):
			writeJSON(w, http.StatusBadRequest, messageResponse("No tags configured"))
		case errors.Is(err, service.ErrNoPosts):
			writeJSON(w, http.StatusNotFound, messageResponse("Could not find any posts"))
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse("Could not find user"))
		default:
			slog.Error("could not list matching posts", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Could not fetch posts"))
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleSearchTitle handles GET /posts/search/title/{title} requests.
func (h *PostHandler) HandleSearchTitle(w http.ResponseWriter, r *http.Request) {
	fragment := chi.URLParam(r, "title")
	if fragment == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid input"))
		return
	}

	page, limit := pagination(r)

	result, err := h.service.SearchTitle(r.Context(), fragment, page, limit)
	if err != nil {
		if errors.Is(err, service.ErrNoPosts) {
			writeJSON(w, http.StatusNotFound, messageResponse("Could not find any posts"))
			return
		}
		slog.Error("could not search posts", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Could not fetch posts"))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleCreate handles POST /posts/create requests. Owner identity is
// stamped from the token, never from the payload.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse("Unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid input"))
		return
	}

	_, err := h.service.Create(r.Context(), ident.UserID, ident.Username, req)
	if err != nil {
		if isPostValidationError(err) {
			writeJSON(w, http.StatusBadRequest, messageResponse(err.Error()))
			return
		}
		slog.Error("could not create post", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Could not create post"))
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse("Post created"))
}

// HandleUpdate handles PATCH /posts/update/{id} requests.
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse("Unauthorized"))
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 36 {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid id"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid input"))
		return
	}

	if err := h.service.Update(r.Context(), id, ident.UserID, req); err != nil {
		switch {
		case isPostValidationError(err):
			writeJSON(w, http.StatusBadRequest, messageResponse(err.Error()))
		case errors.Is(err, service.ErrPostNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse("Post not found"))
		default:
			slog.Error("could not update post", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Could not update post"))
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("Post updated"))
}

// HandleDelete handles DELETE /posts/delete/{id} requests.
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse("Unauthorized"))
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 36 {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid id"))
		return
	}

	if err := h.service.Delete(r.Context(), id, ident.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse("Post not found"))
		default:
			slog.Error("could not delete post", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Could not delete post"))
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("Post deleted"))
}

func isPostValidationError(err error) bool {
	return errors.Is(err, service.ErrTitleRequired) ||
		errors.Is(err, service.ErrTitleTooLong) ||
		errors.Is(err, service.ErrDescriptionShort) ||
		errors.Is(err, service.ErrDescriptionLong) ||
		errors.Is(err, service.ErrPriceRequired) ||
		errors.Is(err, service.ErrTagsRequired) ||
		errors.Is(err, service.ErrTagsTooLong)
}
