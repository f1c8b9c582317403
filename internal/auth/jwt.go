// Package auth provides credentials for the travel journal API: bcrypt
// password hashing, JWT session tokens, the bearer-token middleware and the
// optional GitHub sign-in provider.
//
// SESSION MODEL:
// The server keeps no session state. After register/login the client receives
// a signed JWT and sends it back on every request:
//
//	Authorization: Bearer <token>
//
// The token carries the user id (the standard "sub" claim) and the login (a
// custom claim), so the middleware can identify the caller without touching
// the database. A token lives for 24 hours; after that the client must log in
// again.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTTL is how long an issued session token stays valid.
	TokenTTL = 24 * time.Hour

	issuer = "travel-journal"
)

var (
	// ErrInvalidToken is returned for any token that cannot be trusted:
	// bad signature, wrong algorithm, wrong issuer, missing claims, garbage.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrTokenExpired is returned (wrapped together with ErrInvalidToken)
	// when an otherwise valid token is past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Claims is the identity recovered from a validated token.
type Claims struct {
	UserID string
	Login  string
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used to sign and verify tokens. The same secret
// must be used for both operations.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: TokenTTL, now: time.Now}, nil
}

// sessionClaims is the JWT payload: the registered claims plus the login.
type sessionClaims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given user.
func (s *TokenService) Generate(userID, login string) (string, error) {
	return s.GenerateWithDuration(userID, login, s.ttl)
}

// GenerateWithDuration creates a token with a custom lifetime.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID, login string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: user ID must not be empty")
	}

	now := s.now()
	c := sessionClaims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it carries.
//
// The jwt library checks the signature, expiry and issuer. Passing
// jwt.WithValidMethods pins HS256, which blocks "alg: none" and algorithm
// confusion tokens.
func (s *TokenService) Validate(tokenStr string) (Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return Claims{}, fmt.Errorf("%w: unreadable claims", ErrInvalidToken)
	}
	if c.Subject == "" {
		return Claims{}, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return Claims{UserID: c.Subject, Login: c.Login}, nil
}
