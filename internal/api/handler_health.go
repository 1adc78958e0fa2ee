package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health. It pings the database when one is attached.
func (h *Handler) Health(c *gin.Context) {
	status, code := "OK", http.StatusOK
	if db := h.store.DB(); db != nil {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			h.log.Warn().Err(err).Msg("database ping failed")
			status, code = "DEGRADED", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
