package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefit-app/billing-service/internal/api/rest/middleware"
	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/service"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// PaymentHandler serves the purchase and activation endpoints
type PaymentHandler struct {
	purchases   service.PurchaseService
	activations service.ActivationService
	log         *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(purchases service.PurchaseService, activations service.ActivationService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		purchases:   purchases,
		activations: activations,
		log:         log,
	}
}

// CreatePurchase starts a new payment at the gateway and returns the
// confirmation URL the client should redirect to
func (h *PaymentHandler) CreatePurchase(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req domain.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.purchases.CreatePurchase(c.Request.Context(), userID, req)
	if err != nil {
		h.log.Errorw("Failed to create purchase", "error", err, "userID", userID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Activate verifies a completed payment and grants the subscription
func (h *PaymentHandler) Activate(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req domain.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.activations.Activate(c.Request.Context(), userID, req.PaymentID, req.SubscriptionType)
	if err != nil {
		h.log.Errorw("Failed to activate subscription",
			"error", err, "userID", userID, "paymentID", req.PaymentID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}
