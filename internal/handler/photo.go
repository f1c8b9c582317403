package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/service"
)

// multipartOverhead is the room left on top of the file size limit for the
// multipart boundaries and the text fields.
const multipartOverhead = 1 << 20

// PhotoHandler handles photo uploads and removal.
type PhotoHandler struct {
	responder
	photos   *service.PhotoService
	maxBytes int64
}

// NewPhotoHandler creates a PhotoHandler. maxBytes is the largest accepted
// file; the storage layer enforces it exactly, the handler only bounds the
// request body.
func NewPhotoHandler(photos *service.PhotoService, maxBytes int64, logger *slog.Logger, exposeDetails bool) *PhotoHandler {
	return &PhotoHandler{
		responder: newResponder(logger, exposeDetails),
		photos:    photos,
		maxBytes:  maxBytes,
	}
}

type photoEnvelope struct {
	Photo *model.Photo `json:"photo"`
}

// HandleUpload stores a photo for a travel.
//
// HTTP: POST /api/travels/{id}/photos
// BODY: multipart/form-data with "file", and optional "description" and
// "route_point_id" fields.
func (h *PhotoHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	// Parts beyond 8 MiB spill to temp files, which RemoveAll cleans up.
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, apperror.TooLarge(fmt.Sprintf("file must be at most %d bytes", h.maxBytes)))
			return
		}
		h.writeError(w, r, apperror.ValidationFailed("file", "expected a multipart/form-data upload"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, apperror.ValidationFailed("file", "file is required"))
		return
	}
	defer file.Close()

	in := service.UploadInput{File: file}
	if v := r.FormValue("description"); v != "" {
		in.Description = &v
	}
	if v := r.FormValue("route_point_id"); v != "" {
		in.RoutePointID = &v
	}

	photo, err := h.photos.Upload(r.Context(), chi.URLParam(r, "id"), requesterID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, photoEnvelope{Photo: photo})
}

// HandleDelete removes one photo of a travel.
//
// HTTP: DELETE /api/travels/{id}/photos/{photoId}
func (h *PhotoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.photos.Delete(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "photoId"), requesterID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedEnvelope{DeletedID: id})
}
