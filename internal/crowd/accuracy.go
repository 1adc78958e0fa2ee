package crowd

import "math"

// PredictionAccuracy returns the absolute difference between a predicted and
// an actual crowd level, or nil if either is missing.
func (e *Estimator) PredictionAccuracy(predicted, actual *float64) *float64 {
	if predicted == nil || actual == nil {
		return nil
	}
	diff := math.Abs(*predicted - *actual)
	return &diff
}

// IsAccurate reports whether the prediction is within the accuracy tolerance.
func (e *Estimator) IsAccurate(predicted, actual *float64) bool {
	acc := e.PredictionAccuracy(predicted, actual)
	return acc != nil && *acc < e.params.AccuracyTolerance
}

// WaitTimeAccuracy returns the absolute difference in minutes between a
// predicted and an actual wait time, or nil if either is missing.
func WaitTimeAccuracy(predicted, actual *int) *int {
	if predicted == nil || actual == nil {
		return nil
	}
	diff := *predicted - *actual
	if diff < 0 {
		diff = -diff
	}
	return &diff
}

// PredictionAccuracy runs the default estimator.
func PredictionAccuracy(predicted, actual *float64) *float64 {
	return defaultEstimator.PredictionAccuracy(predicted, actual)
}

// IsAccurate runs the default estimator.
func IsAccurate(predicted, actual *float64) bool {
	return defaultEstimator.IsAccurate(predicted, actual)
}

// LabelLevel is the crowd level recorded against a visit for a predicted label.
// Unknown predictions have no level.
func LabelLevel(l Label) *float64 {
	var v float64
	switch l {
	case LabelLow:
		v = 0.3
	case LabelMedium:
		v = 0.6
	case LabelHigh:
		v = 0.9
	default:
		return nil
	}
	return &v
}

// DescribeCrowdLevel returns a human readable bucket for a single crowd level.
func DescribeCrowdLevel(level float64) string {
	switch {
	case level < 0.2:
		return "Very Low"
	case level < 0.4:
		return "Low"
	case level < 0.6:
		return "Moderate"
	case level < 0.8:
		return "High"
	default:
		return "Very High"
	}
}

// DescribeWaitTime returns a human readable bucket for a wait time in minutes.
func DescribeWaitTime(minutes *int) string {
	if minutes == nil || *minutes == 0 {
		return "Unknown"
	}
	switch m := *minutes; {
	case m < 10:
		return "No Wait"
	case m < 30:
		return "Short Wait"
	case m < 60:
		return "Medium Wait"
	default:
		return "Long Wait"
	}
}

// VisitOutcome is the pair of predicted and actual crowd levels of one visit.
type VisitOutcome struct {
	Predicted *float64
	Actual    *float64
}

// VisitSummary aggregates prediction quality over a set of visits.
type VisitSummary struct {
	Compared     int     `json:"compared"`
	Accurate     int     `json:"accurate"`
	MeanAbsError float64 `json:"meanAbsError"`
	// Accuracy is 1 - MeanAbsError. With nothing to compare the error is
	// taken as 0, so Accuracy is 1; Compared tells the two cases apart.
	Accuracy float64 `json:"accuracy"`
}

// Summarize compares predicted and actual levels across visits. Visits missing
// either value are ignored.
func (e *Estimator) Summarize(visits []VisitOutcome) VisitSummary {
	var s VisitSummary
	var sum float64
	for _, v := range visits {
		acc := e.PredictionAccuracy(v.Predicted, v.Actual)
		if acc == nil {
			continue
		}
		s.Compared++
		sum += *acc
		if *acc < e.params.AccuracyTolerance {
			s.Accurate++
		}
	}
	if s.Compared > 0 {
		s.MeanAbsError = sum / float64(s.Compared)
	}
	s.Accuracy = 1 - s.MeanAbsError
	return s
}
