package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/model"
)

const (
	defaultVisitLimit     = 20
	defaultUserStatsDays  = 365
	uncategorizedCategory = "other"
)

// ListVisits handles GET /api/users/:userId/visits.
func (h *Handler) ListVisits(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit", defaultVisitLimit)
	if err != nil {
		badRequest(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, err)
		return
	}

	visits, total, err := h.store.ListVisits(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.storeError(c, err, "visits")
		return
	}
	if visits == nil {
		visits = []model.VisitHistory{}
	}

	c.JSON(http.StatusOK, gin.H{
		"visits": visits,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

type visitRequest struct {
	AttractionID     string   `json:"attractionId" binding:"required"`
	VisitDate        string   `json:"visitDate" binding:"required"`
	ActualCrowdLevel *float64 `json:"actualCrowdLevel"`
	ActualWaitTime   *int     `json:"actualWaitTime"`
	Rating           *int     `json:"rating"`
	Notes            string   `json:"notes"`
	VisitDuration    *int     `json:"visitDuration"`
	WasPlanned       bool     `json:"wasPlanned"`
	Satisfaction     *string  `json:"satisfaction"`
	WouldRecommend   *bool    `json:"wouldRecommend"`
}

// CreateVisit handles POST /api/users/:userId/visits. The prediction for the
// visit date is stored alongside so accuracy can be measured later.
func (h *Handler) CreateVisit(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	var req visitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	attractionID, err := uuid.Parse(req.AttractionID)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid attractionId"))
		return
	}
	visitDate, err := parseDate(req.VisitDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	visit := model.VisitHistory{
		UserID:           userID,
		AttractionID:     attractionID,
		VisitDate:        visitDate,
		ActualCrowdLevel: req.ActualCrowdLevel,
		ActualWaitTime:   req.ActualWaitTime,
		Rating:           req.Rating,
		Notes:            req.Notes,
		VisitDuration:    req.VisitDuration,
		WasPlanned:       req.WasPlanned,
		Satisfaction:     req.Satisfaction,
		WouldRecommend:   req.WouldRecommend,
	}
	if err := visit.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetAttraction(ctx, attractionID); err != nil {
		h.storeError(c, err, "attraction")
		return
	}

	p, err := h.forecast.Predict(ctx, attractionID, visitDate)
	if err != nil {
		h.storeError(c, err, "prediction")
		return
	}
	visit.PredictedCrowdLevel = crowd.LabelLevel(p.Label)

	if err := h.store.CreateVisit(ctx, &visit); err != nil {
		h.storeError(c, err, "visit")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Visit recorded successfully",
		"visit":   visit,
	})
}

// UserStats is the visit summary of one user over a trailing window.
type UserStats struct {
	TotalVisits        int            `json:"totalVisits"`
	PlannedVisits      int            `json:"plannedVisits"`
	AverageRating      float64        `json:"averageRating"`
	CategoryStats      map[string]int `json:"categoryStats"`
	PredictionAccuracy float64        `json:"predictionAccuracy"`
	ComparedVisits     int            `json:"comparedVisits"`
	AccurateVisits     int            `json:"accurateVisits"`
	TimeRange          string         `json:"timeRange"`
}

// GetUserStats handles GET /api/users/:userId/stats.
func (h *Handler) GetUserStats(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	days, err := queryInt(c, "days", defaultUserStatsDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	since := h.forecast.Now().AddDate(0, 0, -days)
	visits, err := h.store.VisitsSince(c.Request.Context(), userID, since)
	if err != nil {
		h.storeError(c, err, "visits")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": summarizeVisits(h.forecast.Estimator(), visits, days)})
}

func summarizeVisits(e *crowd.Estimator, visits []model.VisitHistory, days int) UserStats {
	stats := UserStats{
		TotalVisits:   len(visits),
		CategoryStats: map[string]int{},
		TimeRange:     fmt.Sprintf("%d days", days),
	}

	var ratingSum, rated int
	outcomes := make([]crowd.VisitOutcome, 0, len(visits))
	for _, v := range visits {
		if v.WasPlanned {
			stats.PlannedVisits++
		}
		if v.Rating != nil {
			ratingSum += *v.Rating
			rated++
		}
		category := uncategorizedCategory
		if v.Attraction != nil {
			category = v.Attraction.Category
		}
		stats.CategoryStats[category]++
		outcomes = append(outcomes, v.Outcome())
	}
	if rated > 0 {
		stats.AverageRating = float64(ratingSum) / float64(rated)
	}

	summary := e.Summarize(outcomes)
	stats.PredictionAccuracy = summary.Accuracy
	stats.ComparedVisits = summary.Compared
	stats.AccurateVisits = summary.Accurate
	return stats
}
