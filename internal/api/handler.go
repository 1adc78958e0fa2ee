package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tourist-untrap-backend/internal/forecast"
	"tourist-untrap-backend/internal/logging"
	"tourist-untrap-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	forecast *forecast.Service
	log      zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, fc *forecast.Service) *Handler {
	return &Handler{
		store:    s,
		forecast: fc,
		log:      logging.With("api"),
	}
}

const dateLayout = "2006-01-02"

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want RFC 3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}

// parseTarget returns the parsed date, or the service clock when raw is empty.
func (h *Handler) parseTarget(raw string) (time.Time, error) {
	if raw == "" {
		return h.forecast.Now(), nil
	}
	return parseDate(raw)
}

// queryInt reads a non-negative integer query parameter.
func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

// queryFloat reads an optional float query parameter.
func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &v, nil
}

// uuidParam parses a path parameter, answering 400 when it is not a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return uuid.Nil, false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// storeError maps a store error onto a response. Not-found becomes 404; the
// cause of anything else is logged and hidden from the client.
func (h *Handler) storeError(c *gin.Context, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	_ = c.Error(err)
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
