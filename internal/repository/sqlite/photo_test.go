package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
)

func TestPhotoLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	tr := createTestTravel(t, db, alice, "Snaps", "Iceland", true)

	p := &model.Photo{TravelID: tr.ID, URL: "/uploads/x.png", Description: strPtr("Glacier")}
	require.NoError(t, db.CreatePhoto(ctx, p))
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.UploadedAt.IsZero())

	got, err := db.GetPhoto(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.png", got.URL)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Glacier", *got.Description)
	assert.Nil(t, got.RoutePointID)

	require.NoError(t, db.DeletePhoto(ctx, p.ID))
	assert.ErrorIs(t, db.DeletePhoto(ctx, p.ID), apperror.ErrNotFound)
}

func TestCreatePhoto_UnknownTravelIsConflict(t *testing.T) {
	db := newTestDB(t)

	err := db.CreatePhoto(context.Background(), &model.Photo{TravelID: "missing", URL: "/uploads/x.png"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
