package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/service"
)

// UserHandler serves profiles and statistics.
type UserHandler struct {
	responder
	profiles *service.ProfileService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(profiles *service.ProfileService, logger *slog.Logger, exposeDetails bool) *UserHandler {
	return &UserHandler{
		responder: newResponder(logger, exposeDetails),
		profiles:  profiles,
	}
}

type userEnvelope struct {
	User *model.User `json:"user"`
}

// HandleProfile returns a user's public profile page.
//
// HTTP: GET /api/users/{username}
// Auth: Optional. The owner also sees their email and private travel counts.
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.PublicProfile(r.Context(), chi.URLParam(r, "username"), requesterID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleStats returns detailed statistics.
//
// HTTP: GET /api/users/{userId}/stats   ("me" for the caller)
func (h *UserHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profiles.Stats(r.Context(), chi.URLParam(r, "userId"), requesterID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleUpdateProfile updates the caller's own profile.
//
// HTTP: PUT /api/users/profile
// REQUEST BODY: {"name"?, "bio"?, "country"?, "avatar_url"?}
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), userID, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope{User: user})
}
