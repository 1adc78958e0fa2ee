// Package seed fills an empty database with sample attractions and a week of
// synthetic crowd observations.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/logging"
	"tourist-untrap-backend/internal/model"
	"tourist-untrap-backend/internal/parse"
	"tourist-untrap-backend/internal/store"
)

const (
	days      = 7
	firstHour = 9
	lastHour  = 20
	hourStep  = 2
)

// Result reports what Run wrote.
type Result struct {
	Attractions  int
	Observations int
	Skipped      bool
}

func everyDay(open, closing string) map[string]parse.DayHours {
	hours := make(map[string]parse.DayHours, 7)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		hours[day] = parse.DayHours{Open: open, Close: closing}
	}
	return hours
}

func ptr[T any](v T) *T { return &v }

// Attractions returns the sample attractions.
func Attractions() []model.Attraction {
	return []model.Attraction{
		{
			Name:            "Eiffel Tower",
			Description:     "Iconic iron lattice tower on the Champ de Mars in Paris",
			Category:        "landmark",
			Address:         "Champ de Mars, 5 Avenue Anatole France, 75007 Paris, France",
			Latitude:        48.8584,
			Longitude:       2.2945,
			OpeningHours:    everyDay("09:00", "23:45"),
			Timezone:        "Europe/Paris",
			AverageWaitTime: ptr(45),
			Capacity:        ptr(1000),
			PriceRange:      ptr("medium"),
			Rating:          ptr(4.5),
			IsActive:        true,
		},
		{
			Name:            "Louvre Museum",
			Description:     "World's largest art museum and a historic monument in Paris",
			Category:        "museum",
			Address:         "Rue de Rivoli, 75001 Paris, France",
			Latitude:        48.8606,
			Longitude:       2.3376,
			OpeningHours:    everyDay("09:00", "18:00"),
			Timezone:        "Europe/Paris",
			AverageWaitTime: ptr(60),
			Capacity:        ptr(2000),
			PriceRange:      ptr("medium"),
			Rating:          ptr(4.7),
			IsActive:        true,
		},
		{
			Name:            "Central Park",
			Description:     "Urban oasis in the heart of Manhattan",
			Category:        "park",
			Address:         "New York, NY 10024, USA",
			Latitude:        40.7829,
			Longitude:       -73.9654,
			OpeningHours:    everyDay("06:00", "22:00"),
			Timezone:        "America/New_York",
			AverageWaitTime: ptr(0),
			Capacity:        ptr(5000),
			PriceRange:      ptr("free"),
			Rating:          ptr(4.6),
			IsActive:        true,
		},
	}
}

// Level draws a synthetic crowd level for hour: low early and late, busiest
// around midday.
func Level(rng *rand.Rand, hour int) float64 {
	var level float64
	switch {
	case hour < 11 || hour > 18:
		level = 0.2 + rng.Float64()*0.3
	case hour <= 14:
		level = 0.6 + rng.Float64()*0.3
	default:
		level = 0.4 + rng.Float64()*0.4
	}
	return math.Round(level*100) / 100
}

// Run seeds the store when it holds no attractions. Observations cover the
// days before now, in now's location.
func Run(ctx context.Context, s store.Store, rng *rand.Rand, now time.Time) (Result, error) {
	log := logging.With("seed")

	count, err := s.CountAttractions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count attractions: %w", err)
	}
	if count > 0 {
		log.Info().Int64("attractions", count).Msg("database already has attractions, skipping seed")
		return Result{Skipped: true}, nil
	}

	attractions := Attractions()
	for i := range attractions {
		if err := attractions[i].Validate(); err != nil {
			return Result{}, fmt.Errorf("invalid sample attraction %q: %w", attractions[i].Name, err)
		}
		if err := s.CreateAttraction(ctx, &attractions[i]); err != nil {
			return Result{}, err
		}
	}

	confidence := crowd.DefaultFixedConfidence
	var rows []model.CrowdData
	for _, a := range attractions {
		for d := 0; d < days; d++ {
			date := now.AddDate(0, 0, -d)
			for hour := firstHour; hour <= lastHour; hour += hourStep {
				ts := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, now.Location())
				wait := rng.Intn(60)
				row, err := model.NewCrowdData(a.ID, Level(rng, hour), &wait, ts, crowd.SourcePrediction, &confidence)
				if err != nil {
					return Result{}, err
				}
				row.WeatherCondition = ptr("sunny")
				row.Temperature = ptr(math.Round((20+rng.Float64()*10)*10) / 10)
				rows = append(rows, row)
			}
		}
	}

	if err := s.CreateObservations(ctx, rows); err != nil {
		return Result{}, err
	}

	log.Info().Int("attractions", len(attractions)).Int("observations", len(rows)).Msg("seed complete")
	return Result{Attractions: len(attractions), Observations: len(rows)}, nil
}
