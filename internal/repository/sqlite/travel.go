package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

var _ repository.TravelRepository = (*DB)(nil)

// travelSelect joins each travel with its author. The "author.x" aliases let
// sqlx scan the author columns into the nested model.Travel.Author struct.
const travelSelect = `SELECT
	t.id, t.user_id, t.title, t.description, t.country, t.type, t.is_public,
	t.start_date, t.end_date, t.budget, t.created_at, t.updated_at,
	u.id         AS "author.id",
	u.login      AS "author.login",
	u.name       AS "author.name",
	u.avatar_url AS "author.avatar_url"
FROM travels t
JOIN users u ON u.id = t.user_id`

// newestFirst is the display order of every travel listing. id breaks ties
// between travels created within the same clock tick.
const newestFirst = ` ORDER BY t.created_at DESC, t.id DESC`

// CreateTravel inserts the travel row and each of its route points in one
// transaction. Route point order is stored exactly as supplied.
func (db *DB) CreateTravel(ctx context.Context, travel *model.Travel) error {
	now := time.Now().UTC()
	travel.ID = xid.New().String()
	travel.CreatedAt = now
	travel.UpdatedAt = now

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO travels (id, user_id, title, description, country, type, is_public,
				start_date, end_date, budget, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			travel.ID,
			travel.UserID,
			travel.Title,
			nullString(travel.Description),
			travel.Country,
			string(travel.Type),
			travel.IsPublic,
			travel.StartDate,
			travel.EndDate,
			travel.Budget,
			travel.CreatedAt,
			travel.UpdatedAt,
		)
		if err != nil {
			if appErr := conflictError(err, "travel", travel.ID); appErr != nil {
				return appErr
			}
			return fmt.Errorf("sqlite: inserting travel: %w", err)
		}

		return insertRoutePoints(ctx, tx, travel.ID, travel.RoutePoints, now)
	})
	if err != nil {
		return err
	}

	if travel.Photos == nil {
		travel.Photos = []model.Photo{}
	}
	return nil
}

// insertRoutePoints writes points for travelID, filling in their ids.
func insertRoutePoints(ctx context.Context, tx *sqlx.Tx, travelID string, points []model.RoutePoint, now time.Time) error {
	for i := range points {
		rp := &points[i]
		rp.ID = xid.New().String()
		rp.TravelID = travelID
		rp.CreatedAt = now
		rp.UpdatedAt = now

		_, err := tx.ExecContext(ctx,
			`INSERT INTO route_points (id, travel_id, city, sort_order, visit_date, description,
				created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rp.ID,
			rp.TravelID,
			rp.City,
			rp.Order,
			rp.VisitDate,
			nullString(rp.Description),
			rp.CreatedAt,
			rp.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting route point %d of travel %s: %w", i, travelID, err)
		}
	}
	return nil
}

// GetTravel loads one travel aggregate.
func (db *DB) GetTravel(ctx context.Context, id string) (*model.Travel, error) {
	var travel model.Travel
	err := db.conn.GetContext(ctx, &travel, travelSelect+` WHERE t.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("travel", id)
		}
		return nil, fmt.Errorf("sqlite: getting travel %s: %w", id, err)
	}

	travels := []model.Travel{travel}
	if err := loadChildren(ctx, db.conn, travels); err != nil {
		return nil, err
	}
	return &travels[0], nil
}

// ListTravelsByUser returns the user's travels, newest first.
func (db *DB) ListTravelsByUser(ctx context.Context, userID string, publicOnly bool) ([]model.Travel, error) {
	query := travelSelect + ` WHERE t.user_id = ?`
	if publicOnly {
		query += ` AND t.is_public = 1`
	}

	travels := []model.Travel{}
	if err := db.conn.SelectContext(ctx, &travels, query+newestFirst, userID); err != nil {
		return nil, fmt.Errorf("sqlite: listing travels of user %s: %w", userID, err)
	}

	if err := loadChildren(ctx, db.conn, travels); err != nil {
		return nil, err
	}
	return travels, nil
}

// UpdateTravel writes the travel's columns and, when replaceRoute is set,
// swaps the whole route for travel.RoutePoints. Both happen in one
// transaction, so a failed insert leaves the old route in place.
//
// Photos pinned to a replaced route point keep belonging to the travel; the
// FK's ON DELETE SET NULL clears their route_point_id.
func (db *DB) UpdateTravel(ctx context.Context, travel *model.Travel, replaceRoute bool) error {
	now := time.Now().UTC()
	travel.UpdatedAt = now

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE travels
			 SET title = ?, description = ?, country = ?, type = ?, is_public = ?,
			     start_date = ?, end_date = ?, budget = ?, updated_at = ?
			 WHERE id = ?`,
			travel.Title,
			nullString(travel.Description),
			travel.Country,
			string(travel.Type),
			travel.IsPublic,
			travel.StartDate,
			travel.EndDate,
			travel.Budget,
			travel.UpdatedAt,
			travel.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating travel %s: %w", travel.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("travel", travel.ID)
		}

		if !replaceRoute {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM route_points WHERE travel_id = ?`, travel.ID,
		); err != nil {
			return fmt.Errorf("sqlite: clearing route of travel %s: %w", travel.ID, err)
		}

		return insertRoutePoints(ctx, tx, travel.ID, travel.RoutePoints, now)
	})
}

// DeleteTravel removes the aggregate: photos first, then route points, then
// the travel itself, all in one transaction. It returns the removed photo
// rows so the caller can delete their files once the data is gone.
//
// A photo is part of the aggregate if it points at the travel directly or
// at one of the travel's route points.
func (db *DB) DeleteTravel(ctx context.Context, id string) ([]model.Photo, error) {
	var photos []model.Photo

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, `SELECT 1 FROM travels WHERE id = ?`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("travel", id)
			}
			return fmt.Errorf("sqlite: looking up travel %s: %w", id, err)
		}

		const photoScope = `travel_id = ?
			OR route_point_id IN (SELECT id FROM route_points WHERE travel_id = ?)`

		photos = []model.Photo{}
		if err := tx.SelectContext(ctx, &photos,
			`SELECT `+photoColumns+` FROM photos WHERE `+photoScope, id, id,
		); err != nil {
			return fmt.Errorf("sqlite: collecting photos of travel %s: %w", id, err)
		}

		steps := []struct {
			what  string
			query string
			args  []any
		}{
			{"photos", `DELETE FROM photos WHERE ` + photoScope, []any{id, id}},
			{"route points", `DELETE FROM route_points WHERE travel_id = ?`, []any{id}},
			{"travel", `DELETE FROM travels WHERE id = ?`, []any{id}},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, step.args...); err != nil {
				if appErr := conflictError(err, "travel", id); appErr != nil {
					return appErr
				}
				return fmt.Errorf("sqlite: deleting %s of travel %s: %w", step.what, id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return photos, nil
}

// loadChildren fills RoutePoints and Photos for every travel in travels.
//
// LOADING STRATEGY:
// One query per child table for the whole batch (`WHERE travel_id IN (...)`),
// never one query per travel. A feed page of N travels costs three queries,
// not 2N+1.
func loadChildren(ctx context.Context, q sqlx.QueryerContext, travels []model.Travel) error {
	if len(travels) == 0 {
		return nil
	}

	ids := make([]string, len(travels))
	index := make(map[string]int, len(travels))
	for i := range travels {
		ids[i] = travels[i].ID
		index[travels[i].ID] = i
		travels[i].RoutePoints = []model.RoutePoint{}
		travels[i].Photos = []model.Photo{}
	}

	query, args, err := sqlx.In(
		`SELECT id, travel_id, city, sort_order, visit_date, description, created_at, updated_at
		 FROM route_points
		 WHERE travel_id IN (?)
		 ORDER BY sort_order ASC, rowid ASC`, ids)
	if err != nil {
		return fmt.Errorf("sqlite: building route point query: %w", err)
	}
	var points []model.RoutePoint
	if err := sqlx.SelectContext(ctx, q, &points, query, args...); err != nil {
		return fmt.Errorf("sqlite: loading route points: %w", err)
	}
	for _, rp := range points {
		i := index[rp.TravelID]
		travels[i].RoutePoints = append(travels[i].RoutePoints, rp)
	}

	query, args, err = sqlx.In(
		`SELECT `+photoColumns+`
		 FROM photos
		 WHERE travel_id IN (?)
		 ORDER BY uploaded_at ASC, rowid ASC`, ids)
	if err != nil {
		return fmt.Errorf("sqlite: building photo query: %w", err)
	}
	var photos []model.Photo
	if err := sqlx.SelectContext(ctx, q, &photos, query, args...); err != nil {
		return fmt.Errorf("sqlite: loading photos: %w", err)
	}
	for _, p := range photos {
		i := index[p.TravelID]
		travels[i].Photos = append(travels[i].Photos, p)
	}

	return nil
}
