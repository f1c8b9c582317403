package model

// Stats are the counters shown on a public profile.
type Stats struct {
	TotalTravels     int `json:"total_travels"`
	PlannedTravels   int `json:"planned_travels"`
	CompletedTravels int `json:"completed_travels"`
	PublicTravels    int `json:"public_travels"`
	Countries        int `json:"countries"`
}

// DetailedStats extends Stats for the owner-facing stats view.
//
// MostActiveMonth is an English month name ("June"), or null when no travel
// has a start date. AvgTravelDuration is in days, counting both the first and
// the last day of a trip.
type DetailedStats struct {
	Stats
	PrivateTravels    int      `json:"private_travels"`
	CountryList       []string `json:"country_list"`
	TotalPhotos       int      `json:"total_photos"`
	TotalRoutePoints  int      `json:"total_route_points"`
	MostActiveMonth   *string  `json:"most_active_month"`
	AvgTravelDuration float64  `json:"avg_travel_duration"`
}
