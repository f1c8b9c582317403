package model

import "time"

// TravelType is the lifecycle stage of a trip.
type TravelType string

const (
	TravelPlanned   TravelType = "planned"
	TravelCompleted TravelType = "completed"
)

// Valid reports whether t is one of the known travel types.
func (t TravelType) Valid() bool {
	return t == TravelPlanned || t == TravelCompleted
}

// Travel is one trip together with its route, photos and author.
//
// The aggregate is always loaded as a whole by the repository: a Travel
// returned to a service has RoutePoints sorted by Order (then insertion),
// its Photos and its Author filled in. Pointer fields are nullable columns.
type Travel struct {
	ID          string     `json:"id"          db:"id"`
	UserID      string     `json:"user_id"     db:"user_id"`
	Title       string     `json:"title"       db:"title"`
	Description *string    `json:"description" db:"description"`
	Country     string     `json:"country"     db:"country"`
	Type        TravelType `json:"type"        db:"type"`
	IsPublic    bool       `json:"is_public"   db:"is_public"`
	StartDate   *Date      `json:"start_date"  db:"start_date"`
	EndDate     *Date      `json:"end_date"    db:"end_date"`
	Budget      *int64     `json:"budget"      db:"budget"`
	CreatedAt   time.Time  `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"  db:"updated_at"`

	Author      AuthorSummary `json:"author"       db:"author"`
	RoutePoints []RoutePoint  `json:"route_points" db:"-"`
	Photos      []Photo       `json:"photos"       db:"-"`
}

// OwnedBy reports whether userID owns the travel. There is no admin bypass.
func (t *Travel) OwnedBy(userID string) bool {
	return userID != "" && t.UserID == userID
}

// VisibleTo reports whether userID (possibly empty for anonymous callers)
// may read the travel.
func (t *Travel) VisibleTo(userID string) bool {
	return t.IsPublic || t.OwnedBy(userID)
}

// CoverURL returns the url of the first photo, or "" when there is none.
func (t *Travel) CoverURL() string {
	if len(t.Photos) == 0 {
		return ""
	}
	return t.Photos[0].URL
}

// FirstCity returns the city of the first route point, or "".
func (t *Travel) FirstCity() string {
	if len(t.RoutePoints) == 0 {
		return ""
	}
	return t.RoutePoints[0].City
}

// RoutePoint is a stop on a travel's route. Order is caller-supplied and
// neither unique nor contiguous.
type RoutePoint struct {
	ID          string    `json:"id"          db:"id"`
	TravelID    string    `json:"travel_id"   db:"travel_id"`
	City        string    `json:"city"        db:"city"`
	Order       int       `json:"order"       db:"sort_order"`
	VisitDate   *Date     `json:"visit_date"  db:"visit_date"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  db:"updated_at"`
}

// Photo is an uploaded image attached to a travel and optionally to one of
// its route points.
type Photo struct {
	ID           string    `json:"id"             db:"id"`
	TravelID     string    `json:"travel_id"      db:"travel_id"`
	RoutePointID *string   `json:"route_point_id" db:"route_point_id"`
	URL          string    `json:"url"            db:"url"`
	Description  *string   `json:"description"    db:"description"`
	UploadedAt   time.Time `json:"uploaded_at"    db:"uploaded_at"`
}

// TravelSummary is the compact form used for a profile's recent travels.
type TravelSummary struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Country   string     `json:"country"`
	Type      TravelType `json:"type"`
	StartDate *Date      `json:"start_date"`
	EndDate   *Date      `json:"end_date"`
	Thumbnail *string    `json:"thumbnail"`
	FirstCity *string    `json:"first_city"`
	CreatedAt time.Time  `json:"created_at"`
}

// Summarize builds the TravelSummary of t.
func (t *Travel) Summarize() TravelSummary {
	s := TravelSummary{
		ID:        t.ID,
		Title:     t.Title,
		Country:   t.Country,
		Type:      t.Type,
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
		CreatedAt: t.CreatedAt,
	}
	if u := t.CoverURL(); u != "" {
		s.Thumbnail = &u
	}
	if c := t.FirstCity(); c != "" {
		s.FirstCity = &c
	}
	return s
}
