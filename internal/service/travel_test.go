package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
)

// =========================================================================
// CREATE
// =========================================================================

func TestCreateTravel_DefaultsAndRoute(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	one, two := 1, 2
	travel, err := env.travels.Create(context.Background(), alice, TravelInput{
		Title:   "  Japan Spring  ",
		Country: "Japan",
		RoutePoints: []RoutePointInput{
			{City: "Kyoto", Order: &two},
			{City: "Tokyo", Order: &one},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Japan Spring", travel.Title)
	assert.Equal(t, model.TravelPlanned, travel.Type)
	assert.True(t, travel.IsPublic, "travels are public unless asked otherwise")
	assert.Equal(t, alice, travel.UserID)
	assert.Equal(t, "alice", travel.Author.Login)

	require.Len(t, travel.RoutePoints, 2)
	assert.Equal(t, "Tokyo", travel.RoutePoints[0].City)
	assert.Equal(t, "Kyoto", travel.RoutePoints[1].City)
}

func TestCreateTravel_Validation(t *testing.T) {
	neg := int64(-1)
	tests := []struct {
		name  string
		in    TravelInput
		field string
	}{
		{"missing title", TravelInput{Country: "Japan"}, "title"},
		{"blank title", TravelInput{Title: "   ", Country: "Japan"}, "title"},
		{"missing country", TravelInput{Title: "Trip"}, "country"},
		{"bad type", TravelInput{Title: "Trip", Country: "Japan", Type: "someday"}, "type"},
		{"negative budget", TravelInput{Title: "Trip", Country: "Japan", Budget: &neg}, "budget"},
		{"end before start", TravelInput{
			Title: "Trip", Country: "Japan",
			StartDate: date(2024, time.May, 10), EndDate: date(2024, time.May, 1),
		}, "end_date"},
		{"route point without city", TravelInput{
			Title: "Trip", Country: "Japan",
			RoutePoints: []RoutePointInput{{City: "Tokyo"}, {City: " "}},
		}, "route_points[1].city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			alice := env.register(t, "alice")

			_, err := env.travels.Create(context.Background(), alice, tt.in)
			require.Error(t, err)

			appErr, ok := err.(*apperror.AppError)
			require.True(t, ok, "want *AppError, got %T", err)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Empty(t, env.store.travels)
		})
	}
}

func TestCreateTravel_RequiresOwner(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.travels.Create(context.Background(), "", TravelInput{Title: "Trip", Country: "Japan"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

// =========================================================================
// GET / LIST
// =========================================================================

func TestGetTravel_PrivateVisibility(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	secret := env.newTravel(t, alice, "Secret", "France", false)

	got, err := env.travels.Get(context.Background(), secret.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "Secret", got.Title)

	_, err = env.travels.Get(context.Background(), secret.ID, bob)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.travels.Get(context.Background(), secret.ID, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGetTravel_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.travels.Get(context.Background(), "missing", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.travels.Get(context.Background(), " ", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestListForUser_HidesPrivateFromOthers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	env.newTravel(t, alice, "Public", "Italy", true)
	env.newTravel(t, alice, "Private", "Spain", false)

	mine, err := env.travels.ListForUser(context.Background(), alice, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.Equal(t, "Private", mine[0].Title, "newest first")

	theirs, err := env.travels.ListForUser(context.Background(), alice, bob)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "Public", theirs[0].Title)

	_, err = env.travels.ListForUser(context.Background(), "ghost", bob)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListMine(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	env.newTravel(t, alice, "A", "Italy", false)
	env.newTravel(t, bob, "B", "Italy", true)

	mine, err := env.travels.ListMine(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "A", mine[0].Title)
}

// =========================================================================
// UPDATE
// =========================================================================

func TestUpdateTravel_PartialPatch(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	travel := env.newTravel(t, alice, "Original", "Japan", true, "Tokyo")

	updated, err := env.travels.Update(context.Background(), travel.ID, alice, TravelPatch{
		Title:  model.Some("Renamed"),
		Budget: model.Some(int64(1500)),
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Japan", updated.Country, "unset fields are kept")
	require.NotNil(t, updated.Budget)
	assert.Equal(t, int64(1500), *updated.Budget)
	require.Len(t, updated.RoutePoints, 1, "route is untouched when not sent")
	assert.Equal(t, "Tokyo", updated.RoutePoints[0].City)
}

func TestUpdateTravel_NullClearsOptionalFields(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	budget := int64(900)
	travel, err := env.travels.Create(context.Background(), alice, TravelInput{
		Title: "Trip", Country: "Peru", Budget: &budget, Description: strPtr("llamas"),
	})
	require.NoError(t, err)

	updated, err := env.travels.Update(context.Background(), travel.ID, alice, TravelPatch{
		Budget:      model.Null[int64](),
		Description: model.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Budget)
	assert.Nil(t, updated.Description)
}

func TestUpdateTravel_NullRequiredFieldRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	travel := env.newTravel(t, alice, "Trip", "Peru", true)

	_, err := env.travels.Update(context.Background(), travel.ID, alice, TravelPatch{Title: model.Null[string]()})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateTravel_ReplacesRoute(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	travel := env.newTravel(t, alice, "Trip", "Japan", true, "Tokyo", "Kyoto")

	updated, err := env.travels.Update(context.Background(), travel.ID, alice, TravelPatch{
		RoutePoints: model.Some([]RoutePointInput{{City: "Osaka"}}),
	})
	require.NoError(t, err)
	require.Len(t, updated.RoutePoints, 1)
	assert.Equal(t, "Osaka", updated.RoutePoints[0].City)

	cleared, err := env.travels.Update(context.Background(), travel.ID, alice, TravelPatch{
		RoutePoints: model.Some([]RoutePointInput{}),
	})
	require.NoError(t, err)
	assert.Empty(t, cleared.RoutePoints)
}

func TestUpdateTravel_ChecksMergedDates(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	travel, err := env.travels.Create(context.Background(), alice, TravelInput{
		Title: "Trip", Country: "Japan", StartDate: date(2024, time.June, 10),
	})
	require.NoError(t, err)

	_, err = env.travels.Update(context.Background(), travel.ID, alice, TravelPatch{
		EndDate: model.Some(model.NewDate(2024, time.June, 1)),
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateTravel_NonOwnerForbidden(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	travel := env.newTravel(t, alice, "Mine", "Japan", true, "Tokyo")

	_, err := env.travels.Update(context.Background(), travel.ID, bob, TravelPatch{
		Title:       model.Some("Hacked"),
		RoutePoints: model.Some([]RoutePointInput{}),
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	after, err := env.travels.Get(context.Background(), travel.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "Mine", after.Title)
	assert.Len(t, after.RoutePoints, 1)
}

// =========================================================================
// DELETE
// =========================================================================

func TestDeleteTravel_RemovesAggregateAndFiles(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	travel := env.newTravel(t, alice, "Trip", "Japan", true, "Tokyo")

	photo, err := env.photos.Upload(context.Background(), travel.ID, alice, UploadInput{File: jpeg()})
	require.NoError(t, err)

	id, err := env.travels.Delete(context.Background(), travel.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, travel.ID, id)

	_, err = env.travels.Get(context.Background(), travel.ID, alice)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, env.store.photos)
	assert.Equal(t, []string{photo.URL}, env.files.removed)
}

func TestDeleteTravel_NonOwnerForbidden(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	travel := env.newTravel(t, alice, "Trip", "Japan", true)

	_, err := env.travels.Delete(context.Background(), travel.ID, bob)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.travels.Get(context.Background(), travel.ID, alice)
	assert.NoError(t, err)
}

func TestDeleteTravel_NotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	_, err := env.travels.Delete(context.Background(), "missing", alice)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
