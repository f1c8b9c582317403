package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// Feed pagination limits.
const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 100
)

// FeedService lists other people's public travels.
type FeedService struct {
	travels repository.TravelRepository
	logger  *slog.Logger
}

// NewFeedService creates a FeedService.
func NewFeedService(travels repository.TravelRepository, logger *slog.Logger) *FeedService {
	return &FeedService{travels: travels, logger: logger}
}

// FeedQuery holds the raw filter and page parameters of a feed request.
type FeedQuery struct {
	Country string
	City    string
	Type    string
	Page    int
	Limit   int
}

// Pagination describes where a page sits in the full result.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// FeedPage is one page of the feed.
type FeedPage struct {
	Travels    []model.Travel `json:"travels"`
	Pagination Pagination     `json:"pagination"`
}

// normalizePage clamps page/limit: page starts at 1, limit defaults to 10
// and is capped at 100.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	return page, limit
}

// pageCount is ceil(total/limit).
func pageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// pageOffset is the row offset of page. It saturates at math.MaxInt
// instead of wrapping, so an absurd page number lands past the end.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// List returns one page of public travels matching q, newest first.
// A page past the end is empty but still reports the real total.
func (s *FeedService) List(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	filter := repository.FeedFilter{
		Country: strings.TrimSpace(q.Country),
		City:    strings.TrimSpace(q.City),
		Type:    model.TravelType(strings.TrimSpace(q.Type)),
	}
	if filter.Type != "" {
		if err := validateTravelType(filter.Type); err != nil {
			return nil, err
		}
	}

	travels, total, err := s.travels.ListFeed(ctx, filter, repository.ListOptions{
		Limit:  limit,
		Offset: pageOffset(page, limit),
	})
	if err != nil {
		s.logger.Error("failed to list feed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/feed: listing feed: %w", err)
	}
	if travels == nil {
		travels = []model.Travel{}
	}

	return &FeedPage{
		Travels: travels,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pageCount(total, limit),
		},
	}, nil
}

// Countries returns the distinct countries of public travels, ascending.
func (s *FeedService) Countries(ctx context.Context) ([]string, error) {
	countries, err := s.travels.ListCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/feed: listing countries: %w", err)
	}
	if countries == nil {
		countries = []string{}
	}
	return countries, nil
}
