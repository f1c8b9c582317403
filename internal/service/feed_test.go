package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultFeedLimit},
		{-3, 5, 1, 5},
		{2, 20, 2, 20},
		{1, 1000, 1, MaxFeedLimit},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d,limit=%d", tt.page, tt.limit), func(t *testing.T) {
			page, limit := normalizePage(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, pageCount(0, 10))
	assert.Equal(t, 1, pageCount(1, 10))
	assert.Equal(t, 1, pageCount(10, 10))
	assert.Equal(t, 2, pageCount(11, 10))
	assert.Equal(t, 3, pageCount(7, 3))
}

// The scenario a new user walks through: one public trip with a two-stop
// route, found by the plain and the country-filtered feed only.
func TestFeed_AliceScenario(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	travel := env.newTravel(t, alice, "Japan Spring", "Japan", true, "Tokyo", "Kyoto")

	all, err := env.feed.List(context.Background(), FeedQuery{})
	require.NoError(t, err)
	require.Len(t, all.Travels, 1)
	assert.Equal(t, travel.ID, all.Travels[0].ID)
	require.Len(t, all.Travels[0].RoutePoints, 2)
	assert.Equal(t, 1, all.Travels[0].RoutePoints[0].Order)
	assert.Equal(t, 2, all.Travels[0].RoutePoints[1].Order)

	japan, err := env.feed.List(context.Background(), FeedQuery{Country: "Japan"})
	require.NoError(t, err)
	require.Len(t, japan.Travels, 1)
	assert.Equal(t, travel.ID, japan.Travels[0].ID)

	peru, err := env.feed.List(context.Background(), FeedQuery{Country: "Peru"})
	require.NoError(t, err)
	assert.Empty(t, peru.Travels)
	assert.Equal(t, 0, peru.Pagination.Total)
}

func TestFeed_ExcludesPrivateTravels(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.newTravel(t, alice, "Hidden", "Japan", false)

	page, err := env.feed.List(context.Background(), FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Travels)
	assert.NotNil(t, page.Travels, "an empty page is [] in JSON, not null")
}

func TestFeed_Pagination(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	for i := 0; i < 7; i++ {
		env.newTravel(t, alice, fmt.Sprintf("Trip %d", i), "Italy", true)
	}

	first, err := env.feed.List(context.Background(), FeedQuery{Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, first.Travels, 3)
	assert.Equal(t, Pagination{Page: 1, Limit: 3, Total: 7, Pages: 3}, first.Pagination)
	assert.Equal(t, "Trip 6", first.Travels[0].Title, "newest first")

	last, err := env.feed.List(context.Background(), FeedQuery{Page: 3, Limit: 3})
	require.NoError(t, err)
	require.Len(t, last.Travels, 1)
	assert.Equal(t, "Trip 0", last.Travels[0].Title)

	beyond, err := env.feed.List(context.Background(), FeedQuery{Page: 9, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, beyond.Travels)
	assert.Equal(t, 7, beyond.Pagination.Total)
	assert.Equal(t, 3, beyond.Pagination.Pages)

	huge, err := env.feed.List(context.Background(), FeedQuery{Page: math.MaxInt, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, huge.Travels)
	assert.Equal(t, math.MaxInt, huge.Pagination.Page)
	assert.Equal(t, 7, huge.Pagination.Total)
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, pageOffset(1, 10))
	assert.Equal(t, 20, pageOffset(3, 10))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt, 10))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt/2, MaxFeedLimit))
}

func TestFeed_CityAndTypeFilters(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.newTravel(t, alice, "Rail", "Japan", true, "Tokyo", "Osaka")
	env.newTravel(t, alice, "Beach", "Japan", true, "Okinawa")

	osaka, err := env.feed.List(context.Background(), FeedQuery{City: "Osaka"})
	require.NoError(t, err)
	require.Len(t, osaka.Travels, 1)
	assert.Equal(t, "Rail", osaka.Travels[0].Title)
	assert.Len(t, osaka.Travels[0].RoutePoints, 2, "the whole route comes back, not just the match")

	completed, err := env.feed.List(context.Background(), FeedQuery{Type: string(model.TravelCompleted)})
	require.NoError(t, err)
	assert.Empty(t, completed.Travels)

	_, err = env.feed.List(context.Background(), FeedQuery{Type: "someday"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestFeed_Countries(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.newTravel(t, alice, "A", "Peru", true)
	env.newTravel(t, alice, "B", "Japan", true)
	env.newTravel(t, alice, "C", "Japan", true)
	env.newTravel(t, alice, "D", "Chile", false)

	countries, err := env.feed.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Japan", "Peru"}, countries)
}

func TestFeed_CountriesEmpty(t *testing.T) {
	env := newTestEnv(t)

	countries, err := env.feed.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, countries)
}
