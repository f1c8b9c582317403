// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: no classes, no inheritance,
// just fields plus the struct tags that map them to JSON and SQL columns.
package model

import "time"

// User represents a registered journal account.
//
// A user signs up with login + password, or through GitHub. Accounts created
// by GitHub sign-in have no password hash and carry the GitHub numeric id.
//
// WHY TWO TAGS PER FIELD?
// `db:"..."` is read by sqlx when scanning rows; `json:"..."` is read by
// encoding/json when writing responses. Keeping both on the one struct
// means a row scanned from SQLite can go straight to the client.
type User struct {
	ID           string    `json:"id"                  db:"id"`
	Login        string    `json:"login"               db:"login"`
	Email        string    `json:"email,omitempty"     db:"email"`
	PasswordHash string    `json:"-"                   db:"password_hash"` // never serialized
	Name         string    `json:"name"                db:"name"`
	AvatarURL    string    `json:"avatar_url"          db:"avatar_url"`
	Country      string    `json:"country"             db:"country"`
	Bio          string    `json:"bio"                 db:"bio"`
	GitHubID     *int64    `json:"-"                   db:"github_id"`
	CreatedAt    time.Time `json:"created_at"          db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"          db:"updated_at"`
}

// Public returns a copy of u with the email withheld. Used whenever the
// requester is not the account owner.
func (u User) Public() User {
	u.Email = ""
	return u
}

// AuthorSummary is the slice of a User embedded in every travel response.
type AuthorSummary struct {
	ID        string `json:"id"         db:"id"`
	Login     string `json:"login"      db:"login"`
	Name      string `json:"name"       db:"name"`
	AvatarURL string `json:"avatar_url" db:"avatar_url"`
}

// ProfilePatch carries the optional fields of a profile update.
// A nil pointer means "leave unchanged".
type ProfilePatch struct {
	Name      *string
	Bio       *string
	Country   *string
	AvatarURL *string
}
