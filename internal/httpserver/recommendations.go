package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-catalog/internal/domain"
	interactionsvc "storefront-catalog/internal/service/interaction"
)

const defaultRecommendationLimit = 8

type recommendationResponse struct {
	UserID  string           `json:"user_id,omitempty"`
	Count   int              `json:"count"`
	Results []domain.Product `json:"results"`
}

func (h *handlers) getRecommendations(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultRecommendationLimit)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
		return
	}
	userID := userFromContext(c)
	products := h.recommendations.GetRecommendationsWithFallback(c.Request.Context(), userID, limit)
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, recommendationResponse{
		UserID:  userID,
		Count:   len(products),
		Results: products,
	})
}

func (h *handlers) recordInteraction(c *gin.Context) {
	if h.interactions == nil {
		writeError(c, http.StatusServiceUnavailable, "unavailable", "interaction tracking is not configured", nil)
		return
	}
	var in interactionsvc.RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_body", "malformed interaction payload", err.Error())
		return
	}
	event, err := h.interactions.Record(c.Request.Context(), userFromContext(c), in)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, event)
	case errors.Is(err, interactionsvc.ErrAnonymous):
		writeError(c, http.StatusUnauthorized, "unauthorized", "a signed-in user is required", nil)
	case errors.Is(err, interactionsvc.ErrInvalidInteraction):
		writeError(c, http.StatusBadRequest, "invalid_interaction", err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	default:
		h.logger.Printf("record interaction: %v", err)
		writeError(c, http.StatusInternalServerError, "internal", "failed to record interaction", nil)
	}
}

func (h *handlers) analytics(c *gin.Context) {
	if h.interactions == nil {
		writeError(c, http.StatusServiceUnavailable, "unavailable", "interaction tracking is not configured", nil)
		return
	}
	out, err := h.interactions.Analytics(c.Request.Context())
	if err != nil {
		h.logger.Printf("analytics: %v", err)
		writeError(c, http.StatusInternalServerError, "internal", "failed to load analytics", nil)
		return
	}
	c.JSON(http.StatusOK, out)
}
