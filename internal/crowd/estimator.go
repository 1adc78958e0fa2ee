package crowd

import (
	"sort"
	"time"
)

// Estimator reduces observations to predictions and statistics. It holds no
// mutable state and may be shared between goroutines.
type Estimator struct {
	params Params
}

// NewEstimator creates an Estimator. Zero fields in p fall back to the defaults.
func NewEstimator(p Params) *Estimator {
	d := DefaultParams()
	if p.LowThreshold <= 0 {
		p.LowThreshold = d.LowThreshold
	}
	if p.HighThreshold <= 0 {
		p.HighThreshold = d.HighThreshold
	}
	if p.PredictionWindow <= 0 {
		p.PredictionWindow = d.PredictionWindow
	}
	if p.StatsWindowDays <= 0 {
		p.StatsWindowDays = d.StatsWindowDays
	}
	if p.FixedConfidence <= 0 {
		p.FixedConfidence = d.FixedConfidence
	}
	if p.AccuracyTolerance <= 0 {
		p.AccuracyTolerance = d.AccuracyTolerance
	}
	if p.RankedHours <= 0 {
		p.RankedHours = d.RankedHours
	}
	return &Estimator{params: p}
}

var defaultEstimator = NewEstimator(DefaultParams())

// Params returns the parameters the estimator was built with.
func (e *Estimator) Params() Params {
	return e.params
}

// Classify maps a mean crowd level onto a label.
func (e *Estimator) Classify(mean float64) Label {
	switch {
	case mean < e.params.LowThreshold:
		return LabelLow
	case mean < e.params.HighThreshold:
		return LabelMedium
	default:
		return LabelHigh
	}
}

// PredictCrowdLevel averages the crowd level of the observations taken within
// the prediction window before targetDate (both ends inclusive) and labels the
// result. It returns LabelUnknown when nothing falls inside the window.
func (e *Estimator) PredictCrowdLevel(observations []Observation, targetDate time.Time) Label {
	from := targetDate.Add(-e.params.PredictionWindow)

	var sum float64
	var n int
	for _, o := range observations {
		if o.Timestamp.Before(from) || o.Timestamp.After(targetDate) {
			continue
		}
		sum += o.CrowdLevel
		n++
	}
	if n == 0 {
		return LabelUnknown
	}
	return e.Classify(sum / float64(n))
}

// Predict is PredictCrowdLevel packaged with the fixed confidence reported to clients.
func (e *Estimator) Predict(attractionID string, observations []Observation, targetDate time.Time) Prediction {
	return Prediction{
		AttractionID: attractionID,
		Date:         targetDate,
		Label:        e.PredictCrowdLevel(observations, targetDate),
		Confidence:   e.params.FixedConfidence,
	}
}

// ComputeStats summarizes the observations with a timestamp at or after
// now minus windowDays. A non-positive windowDays uses the configured default.
//
// Peak hours are the first RankedHours entries of the hourly averages sorted
// by descending crowd level; quiet hours are the last RankedHours entries of
// that same list, so they are listed from least quiet to most quiet and may
// overlap the peak hours when fewer than 2*RankedHours hours have data.
func (e *Estimator) ComputeStats(observations []Observation, windowDays int, now time.Time) Stats {
	if windowDays <= 0 {
		windowDays = e.params.StatsWindowDays
	}
	from := now.AddDate(0, 0, -windowDays)

	var (
		crowdSum  float64
		waitSum   float64
		waitCount int
		total     int
		hourSum   [24]float64
		hourCount [24]int
	)
	for _, o := range observations {
		if o.Timestamp.Before(from) {
			continue
		}
		total++
		crowdSum += o.CrowdLevel
		if o.WaitTime != nil {
			waitSum += float64(*o.WaitTime)
			waitCount++
		}
		if o.HourOfDay >= 0 && o.HourOfDay < 24 {
			hourSum[o.HourOfDay] += o.CrowdLevel
			hourCount[o.HourOfDay]++
		}
	}

	stats := Stats{
		PeakHours:      []int{},
		QuietHours:     []int{},
		HourlyAverages: []HourlyAverage{},
	}
	if total == 0 {
		return stats
	}

	stats.TotalReports = total
	stats.AverageCrowdLevel = crowdSum / float64(total)
	if waitCount > 0 {
		stats.AverageWaitTime = waitSum / float64(waitCount)
	}

	for hour := 0; hour < 24; hour++ {
		if hourCount[hour] == 0 {
			continue
		}
		stats.HourlyAverages = append(stats.HourlyAverages, HourlyAverage{
			Hour:              hour,
			AverageCrowdLevel: hourSum[hour] / float64(hourCount[hour]),
		})
	}
	// Stable so that equal averages keep ascending hour order.
	sort.SliceStable(stats.HourlyAverages, func(i, j int) bool {
		return stats.HourlyAverages[i].AverageCrowdLevel > stats.HourlyAverages[j].AverageCrowdLevel
	})

	k := e.params.RankedHours
	if k > len(stats.HourlyAverages) {
		k = len(stats.HourlyAverages)
	}
	for _, h := range stats.HourlyAverages[:k] {
		stats.PeakHours = append(stats.PeakHours, h.Hour)
	}
	for _, h := range stats.HourlyAverages[len(stats.HourlyAverages)-k:] {
		stats.QuietHours = append(stats.QuietHours, h.Hour)
	}
	return stats
}

// PredictCrowdLevel runs the default estimator.
func PredictCrowdLevel(observations []Observation, targetDate time.Time) Label {
	return defaultEstimator.PredictCrowdLevel(observations, targetDate)
}

// ComputeStats runs the default estimator.
func ComputeStats(observations []Observation, windowDays int, now time.Time) Stats {
	return defaultEstimator.ComputeStats(observations, windowDays, now)
}
