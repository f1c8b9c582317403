package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// FileRemover deletes the stored file behind a photo URL.
type FileRemover interface {
	Remove(url string) error
}

// TravelService owns the travel aggregate: a travel with its ordered route
// points and its photos.
//
// OWNERSHIP:
// Every mutation goes through load → check owner → write. The owner check is
// a plain id comparison (model.Travel.OwnedBy); there is no admin bypass.
type TravelService struct {
	travels repository.TravelRepository
	users   repository.UserRepository
	files   FileRemover
	logger  *slog.Logger
}

// NewTravelService creates a TravelService.
func NewTravelService(
	travels repository.TravelRepository,
	users repository.UserRepository,
	files FileRemover,
	logger *slog.Logger,
) *TravelService {
	return &TravelService{
		travels: travels,
		users:   users,
		files:   files,
		logger:  logger,
	}
}

// RoutePointInput is one route point as supplied by the client.
type RoutePointInput struct {
	City        string
	Order       *int
	VisitDate   *model.Date
	Description *string
}

// TravelInput is the body of a create request. Nil pointers take defaults:
// type "planned", public true.
type TravelInput struct {
	Title       string
	Description *string
	Country     string
	Type        model.TravelType
	IsPublic    *bool
	StartDate   *model.Date
	EndDate     *model.Date
	Budget      *int64
	RoutePoints []RoutePointInput
}

// TravelPatch is a partial update. Unset fields keep their stored value;
// fields set to null are cleared, which is an error for required ones.
// A set RoutePoints (even an empty list) replaces the whole route.
type TravelPatch struct {
	Title       model.Optional[string]
	Description model.Optional[string]
	Country     model.Optional[string]
	Type        model.Optional[model.TravelType]
	IsPublic    model.Optional[bool]
	StartDate   model.Optional[model.Date]
	EndDate     model.Optional[model.Date]
	Budget      model.Optional[int64]
	RoutePoints model.Optional[[]RoutePointInput]
}

// Create validates and stores a new travel owned by ownerID.
func (s *TravelService) Create(ctx context.Context, ownerID string, in TravelInput) (*model.Travel, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}

	title, err := requireText("title", "title", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	country, err := requireText("country", "country", in.Country, MaxCountryLength)
	if err != nil {
		return nil, err
	}
	description, err := optionalText("description", "description", in.Description, MaxDescriptionLength)
	if err != nil {
		return nil, err
	}

	travelType := in.Type
	if travelType == "" {
		travelType = model.TravelPlanned
	}
	if err := validateTravelType(travelType); err != nil {
		return nil, err
	}
	if err := validateBudget(in.Budget); err != nil {
		return nil, err
	}
	if err := validateDateRange(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	points, err := buildRoutePoints(in.RoutePoints)
	if err != nil {
		return nil, err
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	travel := &model.Travel{
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Country:     country,
		Type:        travelType,
		IsPublic:    isPublic,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Budget:      in.Budget,
		RoutePoints: points,
	}

	if err := s.travels.CreateTravel(ctx, travel); err != nil {
		s.logger.Error("failed to create travel",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/travel: creating travel: %w", err)
	}

	s.logger.Info("travel created",
		slog.String("id", travel.ID),
		slog.String("userID", ownerID),
		slog.Int("routePoints", len(points)),
	)

	// Reload so the response carries the author and stored ordering.
	return s.travels.GetTravel(ctx, travel.ID)
}

// buildRoutePoints validates route point input. Order is kept as given,
// defaulting to 0; duplicates and gaps are allowed.
func buildRoutePoints(in []RoutePointInput) ([]model.RoutePoint, error) {
	points := make([]model.RoutePoint, 0, len(in))
	for i, rp := range in {
		field := fmt.Sprintf("route_points[%d].city", i)
		city, err := requireText(field, "city", rp.City, MaxCityLength)
		if err != nil {
			return nil, err
		}
		description, err := optionalText(fmt.Sprintf("route_points[%d].description", i),
			"description", rp.Description, MaxDescriptionLength)
		if err != nil {
			return nil, err
		}

		order := 0
		if rp.Order != nil {
			order = *rp.Order
		}
		points = append(points, model.RoutePoint{
			City:        city,
			Order:       order,
			VisitDate:   rp.VisitDate,
			Description: description,
		})
	}
	return points, nil
}

// Get returns one travel. requesterID is "" for anonymous callers.
// A private travel is Forbidden to everyone but its owner.
func (s *TravelService) Get(ctx context.Context, id, requesterID string) (*model.Travel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "travel ID is required")
	}

	travel, err := s.travels.GetTravel(ctx, id)
	if err != nil {
		return nil, err
	}
	if !travel.VisibleTo(requesterID) {
		return nil, apperror.Forbidden("this travel is private")
	}
	return travel, nil
}

// ListMine returns every travel of ownerID, newest first.
func (s *TravelService) ListMine(ctx context.Context, ownerID string) ([]model.Travel, error) {
	travels, err := s.travels.ListTravelsByUser(ctx, ownerID, false)
	if err != nil {
		s.logger.Error("failed to list travels",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/travel: listing travels: %w", err)
	}
	return travels, nil
}

// ListForUser returns targetID's travels as seen by requesterID: all of them
// for the owner, only public ones for anybody else.
func (s *TravelService) ListForUser(ctx context.Context, targetID, requesterID string) ([]model.Travel, error) {
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return nil, err
	}

	travels, err := s.travels.ListTravelsByUser(ctx, targetID, targetID != requesterID)
	if err != nil {
		return nil, fmt.Errorf("service/travel: listing travels of %s: %w", targetID, err)
	}
	return travels, nil
}

// Update applies patch to a travel owned by requesterID and returns the
// refreshed aggregate. Nothing is written when validation fails.
func (s *TravelService) Update(ctx context.Context, id, requesterID string, patch TravelPatch) (*model.Travel, error) {
	travel, err := s.loadOwned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	if err := applyPatch(travel, patch); err != nil {
		return nil, err
	}

	replaceRoute := patch.RoutePoints.Set
	if replaceRoute {
		points, err := buildRoutePoints(patch.RoutePoints.Value)
		if err != nil {
			return nil, err
		}
		travel.RoutePoints = points
	}

	if err := s.travels.UpdateTravel(ctx, travel, replaceRoute); err != nil {
		s.logger.Error("failed to update travel",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/travel: updating travel %s: %w", id, err)
	}

	s.logger.Info("travel updated",
		slog.String("id", id),
		slog.Bool("routeReplaced", replaceRoute),
	)

	return s.travels.GetTravel(ctx, id)
}

// applyPatch merges patch into travel and validates the merged result, so a
// lone end_date is still checked against the stored start_date.
func applyPatch(travel *model.Travel, patch TravelPatch) error {
	if patch.Title.Set {
		if patch.Title.Null {
			return apperror.ValidationFailed("title", "title is required")
		}
		title, err := requireText("title", "title", patch.Title.Value, MaxTitleLength)
		if err != nil {
			return err
		}
		travel.Title = title
	}

	if patch.Country.Set {
		if patch.Country.Null {
			return apperror.ValidationFailed("country", "country is required")
		}
		country, err := requireText("country", "country", patch.Country.Value, MaxCountryLength)
		if err != nil {
			return err
		}
		travel.Country = country
	}

	if patch.Description.Set {
		description, err := optionalText("description", "description", patch.Description.Ptr(), MaxDescriptionLength)
		if err != nil {
			return err
		}
		travel.Description = description
	}

	if patch.Type.Set {
		if patch.Type.Null {
			return apperror.ValidationFailed("type", "type must be 'planned' or 'completed'")
		}
		if err := validateTravelType(patch.Type.Value); err != nil {
			return err
		}
		travel.Type = patch.Type.Value
	}

	if patch.IsPublic.Set {
		if patch.IsPublic.Null {
			return apperror.ValidationFailed("is_public", "is_public must be true or false")
		}
		travel.IsPublic = patch.IsPublic.Value
	}

	if patch.StartDate.Set {
		travel.StartDate = patch.StartDate.Ptr()
	}
	if patch.EndDate.Set {
		travel.EndDate = patch.EndDate.Ptr()
	}
	if patch.Budget.Set {
		travel.Budget = patch.Budget.Ptr()
	}

	if err := validateBudget(travel.Budget); err != nil {
		return err
	}
	return validateDateRange(travel.StartDate, travel.EndDate)
}

// Delete removes a travel owned by requesterID with its route points and
// photos, then deletes the photo files. File removal is best-effort: a
// failure is logged and the delete still succeeds.
func (s *TravelService) Delete(ctx context.Context, id, requesterID string) (string, error) {
	if _, err := s.loadOwned(ctx, id, requesterID); err != nil {
		return "", err
	}

	photos, err := s.travels.DeleteTravel(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
			return "", err
		}
		s.logger.Error("failed to delete travel",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("service/travel: deleting travel %s: %w", id, err)
	}

	for _, p := range photos {
		if err := s.files.Remove(p.URL); err != nil {
			s.logger.Warn("failed to remove photo file",
				slog.String("travelID", id),
				slog.String("url", p.URL),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("travel deleted",
		slog.String("id", id),
		slog.Int("photos", len(photos)),
	)
	return id, nil
}

// loadOwned fetches a travel and checks requesterID owns it.
func (s *TravelService) loadOwned(ctx context.Context, id, requesterID string) (*model.Travel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "travel ID is required")
	}

	travel, err := s.travels.GetTravel(ctx, id)
	if err != nil {
		return nil, err
	}
	if !travel.OwnedBy(requesterID) {
		return nil, apperror.Forbidden("only the owner can modify this travel")
	}
	return travel, nil
}
