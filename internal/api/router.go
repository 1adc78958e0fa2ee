package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"tourist-untrap-backend/config"
	"tourist-untrap-backend/internal/forecast"
	"tourist-untrap-backend/internal/mw"
	"tourist-untrap-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, fc *forecast.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(), mw.Metrics(), mw.CORS(cfg.CORSOrigins))

	handler := NewHandler(s, fc)

	limit := rate.Limit(cfg.RateLimitPerSec)
	if cfg.RateLimitPerSec <= 0 {
		limit = rate.Inf
	}
	rateLimiter := mw.RateLimiter(limit, cfg.RateLimitBurst)

	// A zero TTL disables response caching.
	var caching gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second; ttl > 0 {
		caching = mw.Cache(cache.New(ttl, 2*ttl), ttl)
	}

	// Responses computed against the current time are only cached when the
	// caller pinned the date.
	datedCaching := func(c *gin.Context) {
		if c.Query("date") == "" {
			c.Next()
			return
		}
		caching(c)
	}

	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		attractions := api.Group("/attractions")
		attractions.GET("", caching, handler.ListAttractions)
		attractions.POST("", handler.CreateAttraction)
		attractions.GET("/categories/list", caching, handler.ListCategories)
		attractions.GET("/:id", handler.GetAttraction)
		attractions.GET("/:id/prediction", datedCaching, handler.GetPrediction)

		crowdGroup := api.Group("/crowd")
		crowdGroup.GET("/attraction/:attractionId", handler.ListCrowdData)
		crowdGroup.POST("/report", handler.ReportCrowd)
		crowdGroup.POST("/predictions/batch", handler.PredictBatch)
		crowdGroup.GET("/stats/:attractionId", caching, handler.GetStats)

		users := api.Group("/users/:userId")
		users.GET("/visits", handler.ListVisits)
		users.POST("/visits", handler.CreateVisit)
		users.GET("/stats", handler.GetUserStats)
	}

	return r
}
