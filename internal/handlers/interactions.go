package handlers

import (
	"net/http"

	"github.com/farmstand/backend/internal/errors"
	"github.com/farmstand/backend/internal/logger"
	"github.com/farmstand/backend/internal/models"
	"github.com/gin-gonic/gin"
)

type recordInteractionRequest struct {
	ProductID *string  `json:"productId"`
	Action    string   `json:"action" binding:"required"`
	Price     *float64 `json:"price"`
	Source    string   `json:"source"`
}

// RecordInteraction appends one event to the behavioral log. This is the
// storefront's write path; everything the engine learns flows from here.
//
// POST /api/interactions
func (h *Handlers) RecordInteraction(c *gin.Context) {
	var req recordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.BadRequest("invalid request body"))
		return
	}

	action := models.InteractionAction(req.Action)
	if !action.Valid() {
		respondError(c, errors.ValidationError("action", "must be VIEW, CLICK, ADD_TO_CART or PURCHASE"))
		return
	}

	if req.ProductID != nil {
		var count int64
		if err := h.db.Model(&models.Product{}).Where("id = ?", *req.ProductID).Count(&count).Error; err != nil {
			logger.ErrorWithError("product lookup failed", err)
			respondError(c, errors.InternalError("failed to record interaction"))
			return
		}
		if count == 0 {
			respondError(c, errors.NotFound("product"))
			return
		}
	}

	interaction := models.UserInteraction{
		UserID:    userID(c),
		ProductID: req.ProductID,
		Action:    action,
	}
	if req.Price != nil || req.Source != "" {
		interaction.Metadata = &models.InteractionMetadata{
			Price:  req.Price,
			Source: req.Source,
		}
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&interaction).Error; err != nil {
		logger.ErrorWithError("interaction insert failed", err)
		respondError(c, errors.InternalError("failed to record interaction"))
		return
	}

	c.JSON(http.StatusCreated, interaction)
}
