package handlers

import (
	"net/http"

	"example.com/fieldwork/services/workorders/internal/cache"
	"example.com/fieldwork/services/workorders/internal/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SystemHandler serves the liveness, health, and metrics endpoints
type SystemHandler struct {
	db        *gorm.DB
	cache     *cache.RedisCache
	collector *metrics.Metrics
}

func NewSystemHandler(db *gorm.DB, redisCache *cache.RedisCache, collector *metrics.Metrics) *SystemHandler {
	return &SystemHandler{db: db, cache: redisCache, collector: collector}
}

func (h *SystemHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Field work order service is running")
}

func (h *SystemHandler) Health(c *gin.Context) {
	healthy := true

	dbOK := false
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err == nil {
			dbOK = sqlDB.PingContext(c.Request.Context()) == nil
		}
	}
	h.collector.SetHealthCheck("database", dbOK)
	healthy = healthy && dbOK

	if h.cache != nil && h.cache.Enabled() {
		cacheOK := h.cache.Client().Ping(c.Request.Context()).Err() == nil
		h.collector.SetHealthCheck("redis", cacheOK)
		// Cache is an accelerator; a failed ping degrades, not fails
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status": state,
		"checks": h.collector.GetHealthChecks(),
	})
}

func (h *SystemHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.GetAllMetrics())
}
