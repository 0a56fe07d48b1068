package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefit-app/billing-service/internal/api/rest/middleware"
	"github.com/pulsefit-app/billing-service/internal/service"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// SubscriptionHandler serves subscription status reads
type SubscriptionHandler struct {
	subscriptions service.SubscriptionService
	log           *logger.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		log:           log,
	}
}

// GetStatus reports whether the caller currently holds an active subscription
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, err := h.subscriptions.GetStatus(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorw("Failed to get subscription status", "error", err, "userID", userID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
