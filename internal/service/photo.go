package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
	"github.com/sakif/travel-journal/internal/storage"
)

// PhotoStore saves and removes photo files.
type PhotoStore interface {
	FileRemover
	Save(ctx context.Context, r io.Reader) (storage.StoredFile, error)
}

// PhotoService attaches photos to travels.
type PhotoService struct {
	travels repository.TravelRepository
	photos  repository.PhotoRepository
	store   PhotoStore
	logger  *slog.Logger
}

// NewPhotoService creates a PhotoService.
func NewPhotoService(
	travels repository.TravelRepository,
	photos repository.PhotoRepository,
	store PhotoStore,
	logger *slog.Logger,
) *PhotoService {
	return &PhotoService{travels: travels, photos: photos, store: store, logger: logger}
}

// UploadInput is a photo upload. RoutePointID, when set, must name a route
// point of the same travel.
type UploadInput struct {
	File         io.Reader
	Description  *string
	RoutePointID *string
}

// Upload stores a photo file and its row for a travel owned by requesterID.
// If the row cannot be written the file is removed again.
func (s *PhotoService) Upload(ctx context.Context, travelID, requesterID string, in UploadInput) (*model.Photo, error) {
	travel, err := s.travels.GetTravel(ctx, travelID)
	if err != nil {
		return nil, err
	}
	if !travel.OwnedBy(requesterID) {
		return nil, apperror.Forbidden("only the owner can add photos to this travel")
	}
	if in.File == nil {
		return nil, apperror.ValidationFailed("file", "file is required")
	}

	description, err := optionalText("description", "description", in.Description, MaxDescriptionLength)
	if err != nil {
		return nil, err
	}

	var routePointID *string
	if in.RoutePointID != nil && *in.RoutePointID != "" {
		if !hasRoutePoint(travel, *in.RoutePointID) {
			return nil, apperror.ValidationFailed("route_point_id", "route point does not belong to this travel")
		}
		routePointID = in.RoutePointID
	}

	stored, err := s.store.Save(ctx, in.File)
	if err != nil {
		return nil, err
	}

	photo := &model.Photo{
		TravelID:     travel.ID,
		RoutePointID: routePointID,
		URL:          stored.URL,
		Description:  description,
	}
	if err := s.photos.CreatePhoto(ctx, photo); err != nil {
		if rmErr := s.store.Remove(stored.URL); rmErr != nil {
			s.logger.Warn("failed to remove orphaned upload",
				slog.String("url", stored.URL),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, fmt.Errorf("service/photo: saving photo row: %w", err)
	}

	s.logger.Info("photo uploaded",
		slog.String("id", photo.ID),
		slog.String("travelID", travel.ID),
		slog.Int64("bytes", stored.Size),
	)
	return photo, nil
}

// Delete removes a photo of a travel owned by requesterID, then its file
// (best-effort).
func (s *PhotoService) Delete(ctx context.Context, travelID, photoID, requesterID string) (string, error) {
	travel, err := s.travels.GetTravel(ctx, travelID)
	if err != nil {
		return "", err
	}
	if !travel.OwnedBy(requesterID) {
		return "", apperror.Forbidden("only the owner can remove photos from this travel")
	}

	photo, err := s.photos.GetPhoto(ctx, photoID)
	if err != nil {
		return "", err
	}
	if photo.TravelID != travel.ID {
		return "", apperror.NotFound("photo", photoID)
	}

	if err := s.photos.DeletePhoto(ctx, photoID); err != nil {
		return "", fmt.Errorf("service/photo: deleting photo %s: %w", photoID, err)
	}

	if err := s.store.Remove(photo.URL); err != nil {
		s.logger.Warn("failed to remove photo file",
			slog.String("url", photo.URL),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("photo deleted", slog.String("id", photoID), slog.String("travelID", travelID))
	return photoID, nil
}

func hasRoutePoint(travel *model.Travel, id string) bool {
	for _, rp := range travel.RoutePoints {
		if rp.ID == id {
			return true
		}
	}
	return false
}
