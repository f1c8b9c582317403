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

// TravelHandler exposes the travel aggregate over HTTP.
//
// HTTP:
//
//	POST   /api/travels              → create        201 {"travel": ...}
//	GET    /api/travels/my           → own travels   200 [...]
//	GET    /api/travels/user/{userId}→ user travels  200 [...]
//	GET    /api/travels/{id}         → one travel    200 {...}
//	PUT    /api/travels/{id}         → update        200 {"travel": ...}
//	DELETE /api/travels/{id}         → delete        200 {"deletedId": ...}
//
// The feed's GET /api/feed/travel/{id} also lands on HandleGet, behind
// OptionalAuth instead of RequireAuth.
type TravelHandler struct {
	responder
	travels *service.TravelService
}

// NewTravelHandler creates a TravelHandler.
func NewTravelHandler(travels *service.TravelService, logger *slog.Logger, exposeDetails bool) *TravelHandler {
	return &TravelHandler{
		responder: newResponder(logger, exposeDetails),
		travels:   travels,
	}
}

type travelEnvelope struct {
	Travel *model.Travel `json:"travel"`
}

type deletedEnvelope struct {
	DeletedID string `json:"deletedId"`
}

// requesterID returns the caller's user id, or "" when anonymous.
func requesterID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// HandleCreate creates a travel owned by the caller.
func (h *TravelHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTravelRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	travel, err := h.travels.Create(r.Context(), requesterID(r), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, travelEnvelope{Travel: travel})
}

// HandleListMine returns every travel of the caller, newest first.
func (h *TravelHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	travels, err := h.travels.ListMine(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(travels))
}

// HandleListForUser returns another user's travels as the caller may see them.
func (h *TravelHandler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	travels, err := h.travels.ListForUser(r.Context(), chi.URLParam(r, "userId"), requesterID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(travels))
}

// HandleGet returns one travel; private travels only to their owner.
func (h *TravelHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	travel, err := h.travels.Get(r.Context(), chi.URLParam(r, "id"), requesterID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, travel)
}

// HandleUpdate applies a partial update. Keys absent from the body are left
// alone; explicit nulls clear nullable fields.
func (h *TravelHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateTravelRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	travel, err := h.travels.Update(r.Context(), chi.URLParam(r, "id"), requesterID(r), req.patch())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, travelEnvelope{Travel: travel})
}

// HandleDelete removes a travel with its route and photos.
func (h *TravelHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.travels.Delete(r.Context(), chi.URLParam(r, "id"), requesterID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedEnvelope{DeletedID: id})
}

// nonNil makes an empty listing encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
