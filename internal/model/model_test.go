package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/parse"
)

func TestNewCrowdData(t *testing.T) {
	attractionID := uuid.New()
	observedAt := time.Date(2025, 7, 13, 14, 30, 0, 0, time.UTC) // Sunday
	wait := 25
	confidence := 0.7

	row, err := NewCrowdData(attractionID, 0.55, &wait, observedAt, crowd.SourceUserReport, &confidence)
	require.NoError(t, err)
	assert.Equal(t, 0, row.DayOfWeek)
	assert.Equal(t, 14, row.HourOfDay)
	assert.Equal(t, "user_report", row.DataSource)

	obs := row.Observation()
	assert.Equal(t, attractionID.String(), obs.AttractionID)
	assert.Equal(t, 0.55, obs.CrowdLevel)
	assert.Equal(t, &wait, obs.WaitTime)
	assert.Equal(t, crowd.SourceUserReport, obs.DataSource)
	assert.True(t, obs.Timestamp.Equal(observedAt))
}

func TestNewCrowdData_Invalid(t *testing.T) {
	now := time.Now()
	negative := -1
	tooConfident := 1.5

	testCases := []struct {
		name       string
		attraction uuid.UUID
		level      float64
		wait       *int
		source     crowd.DataSource
		confidence *float64
	}{
		{name: "missing attraction", attraction: uuid.Nil, level: 0.5, source: crowd.SourceAPI},
		{name: "level above one", attraction: uuid.New(), level: 1.2, source: crowd.SourceAPI},
		{name: "negative level", attraction: uuid.New(), level: -0.1, source: crowd.SourceAPI},
		{name: "negative wait", attraction: uuid.New(), level: 0.5, wait: &negative, source: crowd.SourceAPI},
		{name: "unknown source", attraction: uuid.New(), level: 0.5, source: "rumour"},
		{name: "confidence above one", attraction: uuid.New(), level: 0.5, source: crowd.SourceSensor, confidence: &tooConfident},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCrowdData(tc.attraction, tc.level, tc.wait, now, tc.source, tc.confidence)
			assert.Error(t, err)
		})
	}
}

func TestAttraction_Validate(t *testing.T) {
	a := Attraction{
		Name:      "Louvre Museum",
		Category:  "museum",
		Address:   "Rue de Rivoli, 75001 Paris, France",
		Latitude:  48.8606,
		Longitude: 2.3376,
		OpeningHours: map[string]parse.DayHours{
			"monday": {Open: "09:00", Close: "18:00"},
		},
	}
	require.NoError(t, a.Validate())
	assert.True(t, a.Schedule().IsOpen(time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)))

	bad := a
	bad.Category = "zoo"
	assert.Error(t, bad.Validate())

	bad = a
	bad.Latitude = 91
	assert.Error(t, bad.Validate())

	bad = a
	bad.Timezone = "Mars/Olympus"
	assert.Error(t, bad.Validate())

	bad = a
	bad.OpeningHours = map[string]parse.DayHours{"monday": {Open: "late", Close: "18:00"}}
	assert.Error(t, bad.Validate())
	assert.Empty(t, bad.Schedule())
}

func TestVisitHistory_Outcome(t *testing.T) {
	predicted, actual := 0.6, 0.45
	v := VisitHistory{PredictedCrowdLevel: &predicted, ActualCrowdLevel: &actual}
	assert.True(t, crowd.IsAccurate(v.Outcome().Predicted, v.Outcome().Actual))

	rating := 6
	v.Rating = &rating
	assert.Error(t, v.Validate())
}

func TestAttraction_IsOpenAt(t *testing.T) {
	a := Attraction{
		Timezone: "Europe/Paris",
		OpeningHours: map[string]parse.DayHours{
			"friday": {Open: "22:00", Close: "02:00"},
		},
	}
	require.Len(t, a.Schedule(), 1)

	// 2025-07-18 is a Friday; Paris is UTC+2 in July.
	fridayNight := time.Date(2025, 7, 18, 21, 30, 0, 0, time.UTC)
	assert.True(t, a.IsOpenAt(fridayNight))
	assert.True(t, a.IsOpenAt(time.Date(2025, 7, 18, 23, 0, 0, 0, time.UTC)))
	assert.False(t, a.IsOpenAt(time.Date(2025, 7, 19, 0, 30, 0, 0, time.UTC)))
	assert.False(t, a.IsOpenAt(time.Date(2025, 7, 18, 19, 30, 0, 0, time.UTC)))

	a.Timezone = ""
	assert.False(t, a.IsOpenAt(fridayNight))
}
