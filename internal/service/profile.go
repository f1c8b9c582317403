package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// ProfileService builds profile pages and statistics and updates profiles.
type ProfileService struct {
	users   repository.UserRepository
	travels repository.TravelRepository
	logger  *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(users repository.UserRepository, travels repository.TravelRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{users: users, travels: travels, logger: logger}
}

// Profile is the public profile page of a user.
type Profile struct {
	User          model.User            `json:"user"`
	Stats         model.Stats           `json:"stats"`
	RecentTravels []model.TravelSummary `json:"recentTravels"`
}

// UserStats is the detailed statistics view of a user.
type UserStats struct {
	User  model.User          `json:"user"`
	Stats model.DetailedStats `json:"stats"`
}

// ProfileInput is a partial profile update; nil fields are left alone.
type ProfileInput struct {
	Name      *string
	Bio       *string
	Country   *string
	AvatarURL *string
}

// PublicProfile returns the profile of login as seen by requesterID ("" when
// anonymous). The owner sees their email and counts over all travels;
// everyone else gets counts over public travels only. Recent travels are
// always public ones.
func (s *ProfileService) PublicProfile(ctx context.Context, login, requesterID string) (*Profile, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	isOwner := requesterID != "" && requesterID == user.ID

	visible, err := s.travels.ListTravelsByUser(ctx, user.ID, !isOwner)
	if err != nil {
		return nil, fmt.Errorf("service/profile: listing travels of %s: %w", user.ID, err)
	}

	recent := make([]model.TravelSummary, 0, RecentTravelCount)
	for i := range visible {
		if len(recent) == RecentTravelCount {
			break
		}
		if visible[i].IsPublic {
			recent = append(recent, visible[i].Summarize())
		}
	}

	shown := *user
	if !isOwner {
		shown = user.Public()
	}

	return &Profile{
		User:          shown,
		Stats:         computeStats(visible),
		RecentTravels: recent,
	}, nil
}

// Stats returns the detailed statistics of userID over all their travels.
// userID may be "me" for the requester's own stats.
func (s *ProfileService) Stats(ctx context.Context, userID, requesterID string) (*UserStats, error) {
	if userID == "me" {
		userID = requesterID
	}
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	travels, err := s.travels.ListTravelsByUser(ctx, user.ID, false)
	if err != nil {
		return nil, fmt.Errorf("service/profile: listing travels of %s: %w", user.ID, err)
	}

	shown := *user
	if requesterID != user.ID {
		shown = user.Public()
	}

	return &UserStats{
		User:  shown,
		Stats: computeDetailedStats(travels),
	}, nil
}

// UpdateProfile validates and applies a partial profile update for userID.
//
// Rules: a non-empty name has 2-100 characters; bio at most 500; country at
// most 100. Empty strings clear a field.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}

	patch := model.ProfilePatch{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		n := utf8.RuneCountInString(name)
		if name != "" && n < MinNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be at least %d characters", MinNameLength))
		}
		if n > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		patch.Name = &name
	}

	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > MaxBioLength {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
		}
		patch.Bio = &bio
	}

	if in.Country != nil {
		country := strings.TrimSpace(*in.Country)
		if utf8.RuneCountInString(country) > MaxCountryLength {
			return nil, apperror.ValidationFailed("country",
				fmt.Sprintf("country must be %d characters or less", MaxCountryLength))
		}
		patch.Country = &country
	}

	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		patch.AvatarURL = &avatar
	}

	user, err := s.users.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("service/profile: updating %s: %w", userID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}
