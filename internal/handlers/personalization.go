package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/farmstand/backend/internal/cache"
	"github.com/farmstand/backend/internal/errors"
	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/metrics"
	"github.com/farmstand/backend/internal/models"
	"github.com/farmstand/backend/internal/personalization"
	"github.com/farmstand/backend/internal/season"
	"github.com/gin-gonic/gin"
)

// responseCacheTTL bounds how stale the redis-cached list endpoints can get.
// Much shorter than the score TTL since lists change whenever any member
// score is recomputed.
const responseCacheTTL = 5 * time.Minute

// GetScore returns the personalization score for one entity, computing and
// caching it if needed.
//
// GET /api/personalization/score/:entityType/:entityId?season=SUMMER
func (h *Handlers) GetScore(c *gin.Context) {
	entityType := models.EntityType(c.Param("entityType"))
	if !entityType.Valid() {
		respondError(c, errors.ValidationError("entityType", "must be PRODUCT, FARM or CATEGORY"))
		return
	}

	szn, apiErr := parseSeasonParam(c)
	if apiErr != nil {
		respondError(c, apiErr)
		return
	}

	score, err := h.engine.CalculateScore(c.Request.Context(), userID(c), entityType, c.Param("entityId"), szn)
	if err != nil {
		logger.ErrorWithError("score calculation failed", err)
		respondError(c, errors.InternalError("failed to calculate score"))
		return
	}

	c.JSON(http.StatusOK, score)
}

type batchScoresRequest struct {
	Entities []personalization.EntityRef `json:"entities" binding:"required,min=1,max=100"`
	Season   string                      `json:"season"`
}

// BatchScores scores up to 100 entities in one round trip. Failed entities
// come back as null entries without failing the batch.
//
// POST /api/personalization/scores/batch
func (h *Handlers) BatchScores(c *gin.Context) {
	var req batchScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.BadRequest("invalid request body"))
		return
	}

	szn, apiErr := parseSeason(req.Season)
	if apiErr != nil {
		respondError(c, apiErr)
		return
	}

	scores, err := h.engine.BatchCalculate(c.Request.Context(), userID(c), req.Entities, szn)
	if err != nil {
		respondError(c, errors.BadRequest(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"scores": scores})
}

// GetTopProducts lists the user's best unexpired product scores for a
// season, fronted by a short-lived redis cache.
//
// GET /api/personalization/products/top?season=FALL&limit=20
func (h *Handlers) GetTopProducts(c *gin.Context) {
	szn, apiErr := parseSeasonParam(c)
	if apiErr != nil {
		respondError(c, apiErr)
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(c, errors.ValidationError("limit", "must be an integer between 1 and 100"))
			return
		}
		limit = parsed
	}

	key := cache.TopProductsKey(userID(c), string(szn), limit)
	if h.redis != nil {
		var cached []models.PersonalizationScore
		if err := h.redis.GetJSON(c.Request.Context(), key, &cached); err == nil {
			metrics.Get().CacheHitsTotal.WithLabelValues("top_products").Inc()
			c.JSON(http.StatusOK, gin.H{"products": cached})
			return
		}
		metrics.Get().CacheMissesTotal.WithLabelValues("top_products").Inc()
	}

	scores, err := h.engine.GetTopProducts(c.Request.Context(), userID(c), szn, limit)
	if err != nil {
		logger.ErrorWithError("top products query failed", err)
		respondError(c, errors.InternalError("failed to query top products"))
		return
	}

	if h.redis != nil {
		if err := h.redis.SetJSON(c.Request.Context(), key, scores, responseCacheTTL); err != nil {
			logger.WarnWithError("failed to cache top products", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"products": scores})
}

// LearnPreferences rebuilds the caller's preference profile from their
// recent interaction history.
//
// POST /api/personalization/learn
func (h *Handlers) LearnPreferences(c *gin.Context) {
	pref, err := h.engine.LearnPreferences(c.Request.Context(), userID(c))
	if err != nil {
		logger.ErrorWithError("preference learning failed", err)
		respondError(c, errors.InternalError("failed to learn preferences"))
		return
	}

	if h.redis != nil {
		if err := h.redis.InvalidateUser(c.Request.Context(), userID(c)); err != nil {
			logger.WarnWithError("failed to invalidate user cache", err)
		}
	}

	c.JSON(http.StatusOK, pref)
}

// GetInsights returns the caller's behavioral profile without mutating
// stored preferences.
//
// GET /api/personalization/insights
func (h *Handlers) GetInsights(c *gin.Context) {
	key := cache.InsightsKey(userID(c))
	if h.redis != nil {
		var cached personalization.Insights
		if err := h.redis.GetJSON(c.Request.Context(), key, &cached); err == nil {
			metrics.Get().CacheHitsTotal.WithLabelValues("insights").Inc()
			c.JSON(http.StatusOK, cached)
			return
		}
		metrics.Get().CacheMissesTotal.WithLabelValues("insights").Inc()
	}

	insights, err := h.engine.GetInsights(c.Request.Context(), userID(c))
	if err != nil {
		logger.ErrorWithError("insights build failed", err)
		respondError(c, errors.InternalError("failed to build insights"))
		return
	}

	if h.redis != nil {
		if err := h.redis.SetJSON(c.Request.Context(), key, insights, responseCacheTTL); err != nil {
			logger.WarnWithError("failed to cache insights", err)
		}
	}

	c.JSON(http.StatusOK, insights)
}

// RecalculateExpired refreshes every expired score the caller holds.
//
// POST /api/personalization/maintenance/recalculate
func (h *Handlers) RecalculateExpired(c *gin.Context) {
	refreshed, err := h.engine.RecalculateExpired(c.Request.Context(), userID(c))
	if err != nil {
		logger.ErrorWithError("expired score recalculation failed", err)
		respondError(c, errors.InternalError("failed to recalculate scores"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"recalculated": refreshed})
}

// CleanupExpired removes expired score rows across all users.
//
// POST /api/personalization/maintenance/cleanup
func (h *Handlers) CleanupExpired(c *gin.Context) {
	deleted, err := h.engine.CleanupExpired(c.Request.Context())
	if err != nil {
		logger.ErrorWithError("expired score cleanup failed", err)
		respondError(c, errors.InternalError("failed to clean up scores"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func parseSeasonParam(c *gin.Context) (season.Season, *errors.APIError) {
	return parseSeason(c.Query("season"))
}

// parseSeason validates an optional season string; empty means "current"
func parseSeason(raw string) (season.Season, *errors.APIError) {
	if raw == "" {
		return "", nil
	}
	szn, err := season.Parse(raw)
	if err != nil {
		return "", errors.ValidationError("season", "must be SPRING, SUMMER, FALL or WINTER")
	}
	return szn, nil
}
