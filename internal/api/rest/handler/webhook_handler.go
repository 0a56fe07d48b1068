package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/service"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// WebhookSecretHeader carries the shared secret on webhook calls
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookHandler accepts subscription pushes from the payment backend
type WebhookHandler struct {
	subscriptions service.SubscriptionService
	secret        string
	log           *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(subscriptions service.SubscriptionService, secret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		subscriptions: subscriptions,
		secret:        secret,
		log:           log,
	}
}

type webhookPayload struct {
	UserID       string `json:"userId" binding:"required"`
	Subscription struct {
		Active    bool                `json:"active"`
		Type      string              `json:"type"`
		StartDate domain.FlexibleTime `json:"startDate"`
		EndDate   domain.FlexibleTime `json:"endDate"`
		PaymentID string              `json:"paymentId"`
		Amount    float64             `json:"amount"`
	} `json:"subscription" binding:"required"`
}

// HandlePaymentWebhook validates the shared secret and applies the pushed
// subscription state
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	provided := c.GetHeader(WebhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		h.log.Warnw("Webhook rejected, bad secret", "remoteAddr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := domain.ParsePlanType(payload.Subscription.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := &domain.Subscription{
		Active:    payload.Subscription.Active,
		Type:      plan,
		StartDate: payload.Subscription.StartDate.Time,
		EndDate:   payload.Subscription.EndDate.Time,
		PaymentID: payload.Subscription.PaymentID,
		Amount:    payload.Subscription.Amount,
	}

	if err := h.subscriptions.UpsertFromWebhook(c.Request.Context(), payload.UserID, sub); err != nil {
		h.log.Errorw("Failed to apply webhook", "error", err, "userID", payload.UserID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
