// Package repository declares the storage contracts the service layer depends on.
//
// Services only ever see these interfaces; internal/repository/sqlite is the
// production implementation and the service tests use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/travel-journal/internal/model"
)

// ListOptions is LIMIT/OFFSET pagination.
type ListOptions struct {
	Limit  int
	Offset int
}

// FeedFilter narrows the public feed. Empty fields do not filter.
// City matches when any route point of the travel is in that city.
type FeedFilter struct {
	Country string
	City    string
	Type    model.TravelType
}

// UserRepository stores accounts.
//
// Create returns an error wrapping apperror.ErrConflict (with Field set to
// "login", "email" or "github_id") when a unique column collides.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.User, error)
}

// TravelRepository stores travel aggregates: the travel row, its route
// points and its photos. Every method that returns a Travel returns it fully
// loaded (author, ordered route points, photos).
type TravelRepository interface {
	// CreateTravel inserts the travel and its RoutePoints atomically and
	// fills in the generated ids and timestamps.
	CreateTravel(ctx context.Context, travel *model.Travel) error

	GetTravel(ctx context.Context, id string) (*model.Travel, error)

	// ListTravelsByUser returns the user's travels newest first.
	ListTravelsByUser(ctx context.Context, userID string, publicOnly bool) ([]model.Travel, error)

	// UpdateTravel writes the travel's own columns. When replaceRoute is
	// true the stored route is replaced by travel.RoutePoints in the same
	// transaction.
	UpdateTravel(ctx context.Context, travel *model.Travel, replaceRoute bool) error

	// DeleteTravel removes photos, route points and the travel atomically and
	// returns the photo rows that were removed so their files can be cleaned up.
	DeleteTravel(ctx context.Context, id string) ([]model.Photo, error)

	// ListFeed returns one page of public travels and the total match count.
	ListFeed(ctx context.Context, filter FeedFilter, opts ListOptions) ([]model.Travel, int, error)

	// ListCountries returns the distinct countries of public travels, ascending.
	ListCountries(ctx context.Context) ([]string, error)
}

// PhotoRepository stores photo rows. Files live in internal/storage.
type PhotoRepository interface {
	CreatePhoto(ctx context.Context, photo *model.Photo) error
	GetPhoto(ctx context.Context, id string) (*model.Photo, error)
	DeletePhoto(ctx context.Context, id string) error
}
