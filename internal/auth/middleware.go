package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// errMissingToken means the request carried no bearer token at all.
var errMissingToken = errors.New("auth: missing bearer token")

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID string
	Login  string
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the token from the Authorization header, validates it, and stores
// the caller's Identity in the request context. Two failures are told apart so
// the client knows whether to prompt for login or to drop a stale token:
//
//	no header / not a bearer header → 401 {"error":"unauthorized"}
//	bad, tampered or expired token  → 401 {"error":"invalid_token"}
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, tokens)
			if err != nil {
				if errors.Is(err, errMissingToken) {
					writeUnauthorized(w, "unauthorized", "authentication required")
					return
				}
				message := "invalid token"
				if errors.Is(err, ErrTokenExpired) {
					message = "token expired"
				}
				writeUnauthorized(w, "invalid_token", message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.identity())))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// but never rejects the request. Used on public reads (feed travel detail,
// profiles) where the owner sees more than an anonymous visitor.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := authenticate(r, tokens); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), claims.identity()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated caller.
// Returns (Identity{}, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// UserIDFromContext is a shorthand for IdentityFromContext(ctx).UserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

func (c Claims) identity() Identity {
	return Identity{UserID: c.UserID, Login: c.Login}
}

// authenticate extracts and validates the bearer token of r.
func authenticate(r *http.Request, tokens *TokenService) (Claims, error) {
	token, ok := bearerToken(r)
	if !ok {
		return Claims{}, errMissingToken
	}
	return tokens.Validate(token)
}

// bearerToken returns the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively as RFC 6750 allows.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="travel-journal"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
