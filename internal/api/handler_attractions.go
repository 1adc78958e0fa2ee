package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/model"
	"tourist-untrap-backend/internal/store"
)

const (
	defaultAttractionLimit = 20
	maxAttractionLimit     = 100
	defaultRadiusKm        = 10.0
	latestObservations     = 24
)

// ListAttractions handles GET /api/attractions.
func (h *Handler) ListAttractions(c *gin.Context) {
	filter := store.AttractionFilter{
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit", defaultAttractionLimit); err != nil {
		badRequest(c, err)
		return
	}
	if filter.Limit == 0 || filter.Limit > maxAttractionLimit {
		filter.Limit = maxAttractionLimit
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		badRequest(c, err)
		return
	}

	lat, err := queryFloat(c, "lat")
	if err != nil {
		badRequest(c, err)
		return
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		badRequest(c, err)
		return
	}
	radius, err := queryFloat(c, "radius")
	if err != nil {
		badRequest(c, err)
		return
	}
	if lat != nil && lng != nil {
		filter.Near = &store.GeoPoint{Lat: *lat, Lng: *lng}
		filter.RadiusKm = defaultRadiusKm
		if radius != nil && *radius > 0 {
			filter.RadiusKm = *radius
		}
	}

	attractions, total, err := h.store.ListAttractions(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "attractions")
		return
	}
	if attractions == nil {
		attractions = []model.Attraction{}
	}

	c.JSON(http.StatusOK, gin.H{
		"attractions": attractions,
		"total":       total,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})
}

// CreateAttraction handles POST /api/attractions.
func (h *Handler) CreateAttraction(c *gin.Context) {
	var a model.Attraction
	if err := c.ShouldBindJSON(&a); err != nil {
		badRequest(c, err)
		return
	}
	a.ID = uuid.Nil
	a.IsActive = true
	if err := a.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.store.CreateAttraction(c.Request.Context(), &a); err != nil {
		h.storeError(c, err, "attraction")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Attraction created successfully",
		"attraction": a,
	})
}

// ListCategories handles GET /api/attractions/categories/list.
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetAttraction handles GET /api/attractions/:id.
func (h *Handler) GetAttraction(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	a, err := h.store.GetAttraction(ctx, id)
	if err != nil {
		h.storeError(c, err, "attraction")
		return
	}

	includeRows := c.Query("includeCrowdData") == "true"
	limit := 1
	if includeRows {
		limit = latestObservations
	}
	rows, err := h.store.ListObservations(ctx, store.ObservationFilter{AttractionID: id, Limit: limit})
	if err != nil {
		h.storeError(c, err, "crowd data")
		return
	}

	resp := gin.H{
		"attraction": a,
		"isOpen":     a.IsOpenAt(h.forecast.Now()),
	}
	if len(rows) > 0 {
		resp["current"] = describe(rows[0])
	}
	if includeRows {
		if rows == nil {
			rows = []model.CrowdData{}
		}
		resp["crowdData"] = rows
	}
	c.JSON(http.StatusOK, resp)
}

// currentCrowd is the latest observation in human readable form.
type currentCrowd struct {
	CrowdLevel  float64 `json:"crowdLevel"`
	Description string  `json:"description"`
	WaitTime    *int    `json:"waitTime"`
	WaitLabel   string  `json:"waitDescription"`
	ObservedAt  string  `json:"observedAt"`
}

func describe(row model.CrowdData) currentCrowd {
	return currentCrowd{
		CrowdLevel:  row.CrowdLevel,
		Description: crowd.DescribeCrowdLevel(row.CrowdLevel),
		WaitTime:    row.WaitTime,
		WaitLabel:   crowd.DescribeWaitTime(row.WaitTime),
		ObservedAt:  row.ObservedAt.UTC().Format(time.RFC3339),
	}
}

// GetPrediction handles GET /api/attractions/:id/prediction.
func (h *Handler) GetPrediction(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	target, err := h.parseTarget(c.Query("date"))
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	a, err := h.store.GetAttraction(ctx, id)
	if err != nil {
		h.storeError(c, err, "attraction")
		return
	}

	p, err := h.forecast.Predict(ctx, id, target)
	if err != nil {
		h.storeError(c, err, "prediction")
		return
	}
	p.AttractionName = a.Name
	c.JSON(http.StatusOK, p)
}
