package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

var _ repository.PhotoRepository = (*DB)(nil)

const photoColumns = `id, travel_id, route_point_id, url, description, uploaded_at`

// CreatePhoto inserts a photo row for an already stored file.
func (db *DB) CreatePhoto(ctx context.Context, photo *model.Photo) error {
	photo.ID = xid.New().String()
	photo.UploadedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		photo.ID,
		photo.TravelID,
		nullString(photo.RoutePointID),
		photo.URL,
		nullString(photo.Description),
		photo.UploadedAt,
	)
	if err != nil {
		if appErr := conflictError(err, "photo", photo.ID); appErr != nil {
			return appErr
		}
		return fmt.Errorf("sqlite: inserting photo for travel %s: %w", photo.TravelID, err)
	}
	return nil
}

// GetPhoto retrieves a photo row by id.
func (db *DB) GetPhoto(ctx context.Context, id string) (*model.Photo, error) {
	var p model.Photo
	err := db.conn.GetContext(ctx, &p, `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("photo", id)
		}
		return nil, fmt.Errorf("sqlite: getting photo %s: %w", id, err)
	}
	return &p, nil
}

// DeletePhoto removes a photo row. The file is the caller's concern.
func (db *DB) DeletePhoto(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting photo %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("photo", id)
	}
	return nil
}
