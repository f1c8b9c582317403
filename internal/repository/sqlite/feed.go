package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// feedWhere builds the WHERE clause shared by the feed page query and its
// count, so `total` always counts exactly what the pages walk through.
//
// City uses EXISTS rather than a JOIN: a travel visiting the city twice
// still appears once, and its full route is loaded afterwards.
func feedWhere(filter repository.FeedFilter) (string, []any) {
	conds := []string{"t.is_public = 1"}
	args := []any{}

	if filter.Country != "" {
		conds = append(conds, "t.country = ?")
		args = append(args, filter.Country)
	}
	if filter.Type != "" {
		conds = append(conds, "t.type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.City != "" {
		conds = append(conds,
			"EXISTS (SELECT 1 FROM route_points rp WHERE rp.travel_id = t.id AND rp.city = ?)")
		args = append(args, filter.City)
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListFeed returns one page of public travels, newest first, plus the total
// number of matches.
func (db *DB) ListFeed(ctx context.Context, filter repository.FeedFilter, opts repository.ListOptions) ([]model.Travel, int, error) {
	where, args := feedWhere(filter)

	var total int
	if err := db.conn.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM travels t`+where, args...,
	); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting feed: %w", err)
	}

	travels := []model.Travel{}
	if total == 0 || opts.Offset < 0 || opts.Offset >= total {
		return travels, total, nil
	}

	pageArgs := append(append([]any{}, args...), opts.Limit, opts.Offset)
	if err := db.conn.SelectContext(ctx, &travels,
		travelSelect+where+newestFirst+` LIMIT ? OFFSET ?`, pageArgs...,
	); err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing feed: %w", err)
	}

	if err := loadChildren(ctx, db.conn, travels); err != nil {
		return nil, 0, err
	}
	return travels, total, nil
}

// ListCountries returns the distinct countries of public travels, ascending.
func (db *DB) ListCountries(ctx context.Context) ([]string, error) {
	countries := []string{}
	if err := db.conn.SelectContext(ctx, &countries,
		`SELECT DISTINCT country FROM travels WHERE is_public = 1 ORDER BY country ASC`,
	); err != nil {
		return nil, fmt.Errorf("sqlite: listing countries: %w", err)
	}
	return countries, nil
}
