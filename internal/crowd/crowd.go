// Package crowd estimates crowd levels for attractions from historical
// observations.
//
// Everything in this package is a pure function of its inputs: callers fetch
// observations from storage and pass them in as plain slices, together with
// the target date or the current time. Input ranges (crowd level in [0, 1],
// hour in 0..23, ...) are validated at the storage boundary and are trusted
// here.
package crowd

import "time"

// DataSource describes where an observation came from. It never affects how
// observations are weighted.
type DataSource string

const (
	SourceUserReport DataSource = "user_report"
	SourceAPI        DataSource = "api"
	SourcePrediction DataSource = "prediction"
	SourceSensor     DataSource = "sensor"
)

// Label is the categorical output of a prediction.
type Label string

const (
	LabelUnknown Label = "unknown"
	LabelLow     Label = "low"
	LabelMedium  Label = "medium"
	LabelHigh    Label = "high"
)

// Observation is one crowd measurement for one attraction at one point in time.
type Observation struct {
	AttractionID string
	CrowdLevel   float64
	WaitTime     *int // minutes; nil when not reported
	Timestamp    time.Time
	DayOfWeek    int // 0 = Sunday
	HourOfDay    int
	DataSource   DataSource
	Confidence   *float64
}

// Prediction is the result of PredictCrowdLevel as served to API clients.
type Prediction struct {
	AttractionID   string    `json:"attractionId"`
	AttractionName string    `json:"attractionName,omitempty"`
	Date           time.Time `json:"date"`
	Label          Label     `json:"predictedCrowdLevel"`
	Confidence     float64   `json:"confidence"`
}

// HourlyAverage is the mean crowd level of all observations in one hour of day.
type HourlyAverage struct {
	Hour              int     `json:"hour"`
	AverageCrowdLevel float64 `json:"averageCrowdLevel"`
}

// Stats summarizes a trailing window of observations.
type Stats struct {
	AverageCrowdLevel float64         `json:"averageCrowdLevel"`
	AverageWaitTime   float64         `json:"averageWaitTime"`
	TotalReports      int             `json:"totalReports"`
	PeakHours         []int           `json:"peakHours"`
	QuietHours        []int           `json:"quietHours"`
	HourlyAverages    []HourlyAverage `json:"hourlyAverages"`
}

// Params holds the tunable constants of the estimator.
type Params struct {
	// LowThreshold is the exclusive upper bound of the "low" label.
	LowThreshold float64
	// HighThreshold is the inclusive lower bound of the "high" label.
	HighThreshold float64
	// PredictionWindow is the trailing lookback before the target date.
	PredictionWindow time.Duration
	// StatsWindowDays is used by ComputeStats when the caller passes no window.
	StatsWindowDays int
	// FixedConfidence is reported with every prediction.
	FixedConfidence float64
	// AccuracyTolerance is the exclusive bound under which a prediction is accurate.
	AccuracyTolerance float64
	// RankedHours is how many peak and quiet hours are reported.
	RankedHours int
}

const (
	DefaultLowThreshold      = 0.3
	DefaultHighThreshold     = 0.7
	DefaultWindowDays        = 30
	DefaultFixedConfidence   = 0.8
	DefaultAccuracyTolerance = 0.2
	DefaultRankedHours       = 3
)

// DefaultParams returns the parameters the service ships with.
func DefaultParams() Params {
	return Params{
		LowThreshold:      DefaultLowThreshold,
		HighThreshold:     DefaultHighThreshold,
		PredictionWindow:  DefaultWindowDays * 24 * time.Hour,
		StatsWindowDays:   DefaultWindowDays,
		FixedConfidence:   DefaultFixedConfidence,
		AccuracyTolerance: DefaultAccuracyTolerance,
		RankedHours:       DefaultRankedHours,
	}
}
