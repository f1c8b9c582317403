package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
)

// Validation limits. Lengths are counted in characters, not bytes, except
// for passwords where bcrypt's 72-byte input limit is what matters.
const (
	MinLoginLength       = 3
	MaxLoginLength       = 50
	MinPasswordLength    = 6
	MaxTitleLength       = 200
	MaxCountryLength     = 100
	MaxCityLength        = 100
	MaxDescriptionLength = 5000
	MinNameLength        = 2
	MaxNameLength        = 100
	MaxBioLength         = 500
	MaxEmailLength       = 254
)

var (
	loginPattern      = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	invalidLoginChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

func validateLogin(login string) error {
	n := utf8.RuneCountInString(login)
	if n < MinLoginLength || n > MaxLoginLength {
		return apperror.ValidationFailed("login",
			fmt.Sprintf("login must be between %d and %d characters", MinLoginLength, MaxLoginLength))
	}
	if !loginPattern.MatchString(login) {
		return apperror.ValidationFailed("login",
			"login may only contain letters, digits, '_', '.' and '-'")
	}
	return nil
}

// validateEmail accepts a bare address only: "alice@example.com", not
// "Alice <alice@example.com>".
func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return apperror.ValidationFailed("email", "email is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return apperror.ValidationFailed("email", "email address is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

// requireText trims s and checks it is non-empty and at most max characters.
func requireText(field, label, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.ValidationFailed(field, label+" is required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", label, max))
	}
	return s, nil
}

// optionalText trims a nullable text value; blank becomes nil.
func optionalText(field, label string, s *string, max int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > max {
		return nil, apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", label, max))
	}
	return &v, nil
}

func validateTravelType(t model.TravelType) error {
	if !t.Valid() {
		return apperror.ValidationFailed("type", "type must be 'planned' or 'completed'")
	}
	return nil
}

func validateBudget(b *int64) error {
	if b != nil && *b < 0 {
		return apperror.ValidationFailed("budget", "budget must not be negative")
	}
	return nil
}

func validateDateRange(start, end *model.Date) error {
	if start != nil && end != nil && end.Before(start.Time) {
		return apperror.ValidationFailed("end_date", "end_date must not be before start_date")
	}
	return nil
}
