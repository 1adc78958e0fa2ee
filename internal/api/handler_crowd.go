package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/model"
	"tourist-untrap-backend/internal/store"
)

const (
	defaultCrowdDataLimit = 100
	// reportConfidence is attached to every user report.
	reportConfidence = 0.7
)

var dataSources = []string{
	string(crowd.SourceUserReport),
	string(crowd.SourceAPI),
	string(crowd.SourcePrediction),
	string(crowd.SourceSensor),
}

// ListCrowdData handles GET /api/crowd/attraction/:attractionId.
func (h *Handler) ListCrowdData(c *gin.Context) {
	id, ok := uuidParam(c, "attractionId")
	if !ok {
		return
	}

	filter := store.ObservationFilter{AttractionID: id, IncludeAttraction: true}
	if raw := c.Query("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.Start = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.End = &t
	}
	if source := c.Query("dataSource"); source != "" {
		if !slices.Contains(dataSources, source) {
			badRequest(c, fmt.Errorf("invalid dataSource %q", source))
			return
		}
		filter.DataSource = source
	}
	var err error
	if filter.Limit, err = queryInt(c, "limit", defaultCrowdDataLimit); err != nil {
		badRequest(c, err)
		return
	}

	rows, err := h.store.ListObservations(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "crowd data")
		return
	}
	if rows == nil {
		rows = []model.CrowdData{}
	}

	c.JSON(http.StatusOK, gin.H{
		"attractionId": id,
		"crowdData":    rows,
		"total":        len(rows),
	})
}

type reportRequest struct {
	AttractionID string   `json:"attractionId" binding:"required"`
	CrowdLevel   *float64 `json:"crowdLevel" binding:"required"`
	WaitTime     *int     `json:"waitTime"`
	Notes        string   `json:"notes"`
}

// ReportCrowd handles POST /api/crowd/report.
func (h *Handler) ReportCrowd(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	attractionID, err := uuid.Parse(req.AttractionID)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid attractionId"))
		return
	}

	confidence := reportConfidence
	row, err := model.NewCrowdData(attractionID, *req.CrowdLevel, req.WaitTime, h.forecast.Now(), crowd.SourceUserReport, &confidence)
	if err != nil {
		badRequest(c, err)
		return
	}
	row.Notes = req.Notes
	if err := row.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetAttraction(ctx, attractionID); err != nil {
		h.storeError(c, err, "attraction")
		return
	}
	if err := h.store.CreateObservation(ctx, &row); err != nil {
		h.storeError(c, err, "crowd data")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Crowd data reported successfully",
		"crowdData": row,
	})
}

type batchRequest struct {
	AttractionIDs []string `json:"attractionIds"`
	Date          string   `json:"date"`
}

// errMissingIDs is returned when a batch request names no attraction.
var errMissingIDs = errors.New("attractionIds must be a non-empty array")

// PredictBatch handles POST /api/crowd/predictions/batch.
func (h *Handler) PredictBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.AttractionIDs) == 0 {
		badRequest(c, errMissingIDs)
		return
	}

	ids := make([]uuid.UUID, len(req.AttractionIDs))
	for i, raw := range req.AttractionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid attraction id %q", raw))
			return
		}
		ids[i] = id
	}

	target, err := h.parseTarget(req.Date)
	if err != nil {
		badRequest(c, err)
		return
	}

	predictions, err := h.forecast.PredictBatch(c.Request.Context(), ids, target)
	if err != nil {
		h.storeError(c, err, "predictions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": predictions,
		"date":        target,
		"total":       len(predictions),
	})
}

// GetStats handles GET /api/crowd/stats/:attractionId.
func (h *Handler) GetStats(c *gin.Context) {
	id, ok := uuidParam(c, "attractionId")
	if !ok {
		return
	}
	// Zero selects the configured stats window.
	days, err := queryInt(c, "days", 0)
	if err != nil {
		badRequest(c, err)
		return
	}

	stats, err := h.forecast.Stats(c.Request.Context(), id, days)
	if err != nil {
		h.storeError(c, err, "crowd stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attractionId": id,
		"stats":        stats,
	})
}
