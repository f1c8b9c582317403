package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/travel-journal/internal/service"
)

// FeedHandler serves the public feed.
type FeedHandler struct {
	responder
	feed *service.FeedService
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(feed *service.FeedService, logger *slog.Logger, exposeDetails bool) *FeedHandler {
	return &FeedHandler{
		responder: newResponder(logger, exposeDetails),
		feed:      feed,
	}
}

// HandleList returns one page of public travels.
//
// HTTP: GET /api/feed?country=&city=&type=&page=&limit=
//
// RESPONSE FORMAT:
//
//	{"travels": [...], "pagination": {"page": 1, "limit": 10, "total": 42, "pages": 5}}
func (h *FeedHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	res, err := h.feed.List(r.Context(), service.FeedQuery{
		Country: q.Get("country"),
		City:    q.Get("city"),
		Type:    q.Get("type"),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCountries lists the countries that have public travels.
//
// HTTP: GET /api/feed/countries
func (h *FeedHandler) HandleCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.feed.Countries(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countries)
}
