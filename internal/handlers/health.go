package handlers

import (
	"net/http"

	"github.com/farmstand/backend/internal/database"
	"github.com/gin-gonic/gin"
)

// Health reports liveness of the API and its dependencies.
//
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	overall := "ok"
	dbStatus := "ok"
	if err := database.Health(); err != nil {
		status = http.StatusServiceUnavailable
		overall = "degraded"
		dbStatus = "unavailable"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "ok"
		if err := h.redis.Ping(c.Request.Context()); err != nil {
			redisStatus = "unavailable"
		}
	}

	c.JSON(status, gin.H{
		"status": overall,
		"db":     dbStatus,
		"redis":  redisStatus,
	})
}
