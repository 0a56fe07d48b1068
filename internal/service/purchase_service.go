package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/integration/yookassa"
	"github.com/pulsefit-app/billing-service/internal/metrics"
	"github.com/pulsefit-app/billing-service/internal/repository"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// The gateway caps idempotence keys, keep ours safely below that
const maxIdempotenceKeyLen = 64

const purchaseCurrency = "RUB"

// PurchaseService initiates subscription purchases against the payment
// gateway
type PurchaseService interface {
	CreatePurchase(ctx context.Context, userID string, req domain.PurchaseRequest) (domain.PurchaseResponse, error)
}

type purchaseService struct {
	gateway     PaymentGateway
	pendingRepo repository.PendingPaymentRepository
	metrics     metrics.BillingMetrics
	log         *logger.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	gateway PaymentGateway,
	pendingRepo repository.PendingPaymentRepository,
	m metrics.BillingMetrics,
	log *logger.Logger,
) PurchaseService {
	return &purchaseService{
		gateway:     gateway,
		pendingRepo: pendingRepo,
		metrics:     m,
		log:         log,
	}
}

// CreatePurchase creates a gateway payment for the requested plan and records
// the pending payment. The user completes payment at the returned
// confirmation URL.
func (s *purchaseService) CreatePurchase(ctx context.Context, userID string, req domain.PurchaseRequest) (domain.PurchaseResponse, error) {
	plan, err := domain.ParsePlanType(req.Type)
	if err != nil {
		s.log.Warn("Rejected purchase with invalid plan type: %s", req.Type)
		return domain.PurchaseResponse{}, err
	}

	amount := plan.Price()

	payment, err := s.gateway.CreatePayment(ctx, yookassa.CreatePaymentRequest{
		Amount:      amount,
		Currency:    purchaseCurrency,
		Description: fmt.Sprintf("PulseFit subscription (%s)", plan),
		Metadata: map[string]string{
			"userId":           userID,
			"subscriptionType": string(plan),
		},
		IdempotenceKey: newIdempotenceKey(userID),
	})
	if err != nil {
		s.log.Errorw("Failed to create gateway payment", "error", err, "userID", userID, "plan", plan)
		return domain.PurchaseResponse{}, err
	}

	// Audit record; its absence never blocks the purchase
	pending := domain.PendingPayment{
		PaymentID: payment.ID,
		UserID:    userID,
		Type:      plan,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	if err := s.pendingRepo.Create(ctx, pending); err != nil {
		s.log.Errorw("Failed to record pending payment", "error", err, "paymentID", payment.ID)
	}

	s.metrics.IncPaymentCreated(string(plan))
	s.metrics.ObservePaymentAmount(amount, string(plan))
	s.log.Infow("Purchase initiated", "userID", userID, "paymentID", payment.ID, "plan", plan)

	return domain.PurchaseResponse{
		PaymentID:       payment.ID,
		ConfirmationURL: payment.ConfirmationURL,
		Status:          string(payment.Status),
	}, nil
}

// newIdempotenceKey builds a uniqueness token from the user id, the current
// timestamp and a random suffix, truncated to the gateway's length cap.
func newIdempotenceKey(userID string) string {
	key := fmt.Sprintf("%s-%d-%s", userID, time.Now().UnixMilli(), uuid.NewString()[:8])
	if len(key) > maxIdempotenceKeyLen {
		key = key[len(key)-maxIdempotenceKeyLen:]
	}
	return key
}
