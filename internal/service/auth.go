// Package service contains the business rules of the travel journal.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)     → decodes requests, writes JSON, maps errors to status codes
//	Service (business) → validates, enforces ownership, orchestrates
//	Repository (data)  → SQL and transactions
//
// Services take repository INTERFACES, never *sqlite.DB, so every rule here
// is tested against in-memory fakes (see fakes_test.go) without a database.
// Services return apperror values; they never know about HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// invalidCredentials is deliberately the same for an unknown login and a
// wrong password, so the response does not reveal which logins exist.
const invalidCredentials = "invalid login or password"

// AuthService handles registration, login and session lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session token.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// RegisterInput is the data a new account is created from.
type RegisterInput struct {
	Login    string
	Email    string
	Password string
	Name     string
	Country  string
}

// Register validates the input, creates the account and signs the user in.
//
// A login or email that is already taken is a validation error (400), not a
// conflict: from the client's point of view the form input is what's wrong.
// The pre-check gives a friendly message; the UNIQUE constraint still
// catches two registrations racing for the same login.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	login := strings.TrimSpace(in.Login)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validateLogin(login); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = login
	}
	if len([]rune(name)) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	country := strings.TrimSpace(in.Country)
	if len([]rune(country)) > MaxCountryLength {
		return nil, apperror.ValidationFailed("country",
			fmt.Sprintf("country must be %d characters or less", MaxCountryLength))
	}

	if err := s.ensureAvailable(ctx, login, email); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Country:      country,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, takenError(err)
		}
		s.logger.Error("failed to create user",
			slog.String("login", login),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	return s.issue(user)
}

// ensureAvailable returns a validation error when login or email is taken.
func (s *AuthService) ensureAvailable(ctx context.Context, login, email string) error {
	if _, err := s.users.GetUserByLogin(ctx, login); err == nil {
		return apperror.ValidationFailed("login", "a user with this login already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: checking login: %w", err)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return apperror.ValidationFailed("email", "a user with this email already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: checking email: %w", err)
	}
	return nil
}

// takenError converts a repository unique-constraint conflict into the
// validation error Register reports.
func takenError(err error) error {
	field := "login"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		field = appErr.Field
	}
	return apperror.ValidationFailed(field, "a user with this "+field+" already exists")
}

// Login checks the credentials and issues a new session token.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperror.ValidationFailed("login", "login is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", login, err)
	}

	// GitHub-only accounts have no password and can't use this flow.
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("login", login))
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// Me returns the account of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// LoginWithGitHub signs in the account linked to a GitHub profile, creating
// it on first use. The new account gets the GitHub login, or the first free
// variant of it ("octocat-2", "octocat-3"...) when that login is taken.
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.ID == 0 {
		return nil, apperror.ValidationFailed("github", "GitHub profile is missing")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		s.logger.Info("user authenticated via GitHub", slog.String("userID", user.ID))
		return s.issue(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up github id %d: %w", gh.ID, err)
	}

	login, err := s.freeLogin(ctx, gh.Login)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(gh.Email))
	if validateEmail(email) != nil {
		// GitHub hides private emails. The column is UNIQUE and NOT NULL, so
		// fall back to the GitHub noreply address, which is unique per id.
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", gh.ID, strings.ToLower(gh.Login))
	} else if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", gh.ID, strings.ToLower(gh.Login))
	}

	name := strings.TrimSpace(gh.Name)
	if name == "" {
		name = login
	}
	githubID := gh.ID
	user = &model.User{
		Login:     login,
		Email:     email,
		Name:      truncate(name, MaxNameLength),
		AvatarURL: gh.AvatarURL,
		Country:   truncate(strings.TrimSpace(gh.Location), MaxCountryLength),
		Bio:       truncate(strings.TrimSpace(gh.Bio), MaxBioLength),
		GitHubID:  &githubID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
	}

	s.logger.Info("user registered via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)
	return s.issue(user)
}

// freeLogin returns base, or base with the lowest numeric suffix that is not
// taken yet.
func (s *AuthService) freeLogin(ctx context.Context, base string) (string, error) {
	base = invalidLoginChars.ReplaceAllString(strings.TrimSpace(base), "")
	if validateLogin(base) != nil {
		base = "traveler"
	}
	base = truncate(base, MaxLoginLength-4)

	candidate := base
	for i := 2; i < 1000; i++ {
		_, err := s.users.GetUserByLogin(ctx, candidate)
		if errors.Is(err, apperror.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("service/auth: checking login %q: %w", candidate, err)
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", apperror.Conflict("user", base)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Login)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
