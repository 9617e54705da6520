// Package handlers exposes the personalization engine over HTTP.
package handlers

import (
	"net/http"

	"github.com/farmstand/backend/internal/cache"
	"github.com/farmstand/backend/internal/errors"
	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/personalization"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers bundles the dependencies the HTTP layer needs. The redis client
// is optional; without it response caching is skipped.
type Handlers struct {
	db     *gorm.DB
	engine *personalization.Service
	redis  *cache.RedisClient
}

func New(db *gorm.DB, engine *personalization.Service, redis *cache.RedisClient) *Handlers {
	return &Handlers{
		db:     db,
		engine: engine,
		redis:  redis,
	}
}

// RegisterRoutes mounts all API routes on the router group.
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/interactions", h.RecordInteraction)

	p := api.Group("/personalization")
	{
		p.GET("/score/:entityType/:entityId", h.GetScore)
		p.POST("/scores/batch", h.BatchScores)
		p.GET("/products/top", h.GetTopProducts)
		p.POST("/learn", h.LearnPreferences)
		p.GET("/insights", h.GetInsights)
		p.POST("/maintenance/recalculate", h.RecalculateExpired)
		p.POST("/maintenance/cleanup", h.CleanupExpired)
	}
}

// respondError writes an APIError as JSON, logging server-side failures
func respondError(c *gin.Context, err *errors.APIError) {
	if err.Status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logger.WithRequestID(c.GetString("request_id")),
		)
	}
	c.JSON(err.Status, gin.H{"error": err})
}

// userID pulls the authenticated user set by the identity middleware
func userID(c *gin.Context) string {
	return c.GetString("user_id")
}
