package service

import (
	"sort"
	"time"

	"github.com/sakif/travel-journal/internal/model"
)

// RecentTravelCount is how many public travels a profile page shows.
const RecentTravelCount = 3

// computeStats counts travels by type and visibility plus distinct countries.
func computeStats(travels []model.Travel) model.Stats {
	var s model.Stats
	countries := make(map[string]struct{})

	for i := range travels {
		t := &travels[i]
		s.TotalTravels++
		switch t.Type {
		case model.TravelPlanned:
			s.PlannedTravels++
		case model.TravelCompleted:
			s.CompletedTravels++
		}
		if t.IsPublic {
			s.PublicTravels++
		}
		if t.Country != "" {
			countries[t.Country] = struct{}{}
		}
	}

	s.Countries = len(countries)
	return s
}

// computeDetailedStats extends computeStats with the owner-only figures.
//
// Most active month: the calendar month (ignoring year) with the most trip
// start dates. On a tie the earlier month in the year wins.
//
// Average duration: only travels with both dates count, and a trip lasts
// end - start + 1 days, so a one-day trip lasts 1 day. With no such travel
// the average is 0.
func computeDetailedStats(travels []model.Travel) model.DetailedStats {
	d := model.DetailedStats{
		Stats:       computeStats(travels),
		CountryList: []string{},
	}

	var (
		monthCounts [12]int
		anyStart    bool
		totalDays   int
		dated       int
		seen        = make(map[string]struct{})
	)

	for i := range travels {
		t := &travels[i]
		if !t.IsPublic {
			d.PrivateTravels++
		}
		d.TotalPhotos += len(t.Photos)
		d.TotalRoutePoints += len(t.RoutePoints)

		if t.Country != "" {
			if _, ok := seen[t.Country]; !ok {
				seen[t.Country] = struct{}{}
				d.CountryList = append(d.CountryList, t.Country)
			}
		}

		if t.StartDate != nil {
			monthCounts[t.StartDate.Month()-1]++
			anyStart = true
		}
		if t.StartDate != nil && t.EndDate != nil {
			totalDays += t.StartDate.DaysUntil(*t.EndDate) + 1
			dated++
		}
	}
	sort.Strings(d.CountryList)

	if anyStart {
		best := 0
		for m := 1; m < len(monthCounts); m++ {
			if monthCounts[m] > monthCounts[best] {
				best = m
			}
		}
		name := time.Month(best + 1).String()
		d.MostActiveMonth = &name
	}

	if dated > 0 {
		d.AvgTravelDuration = float64(totalDays) / float64(dated)
	}

	return d
}
