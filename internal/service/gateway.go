package service

import (
	"context"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/integration/yookassa"
)

// PaymentGateway is the slice of the gateway client the services need.
// Declared here so tests can substitute a fake.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req yookassa.CreatePaymentRequest) (*yookassa.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*yookassa.Payment, error)
	CapturePayment(ctx context.Context, paymentID, idempotenceKey string) (*yookassa.Payment, error)
}

// EventPublisher publishes subscription change events. Publishing is
// best-effort everywhere: failures are logged by callers, never propagated.
type EventPublisher interface {
	PublishSubscriptionUpdated(ctx context.Context, userID, email string, sub *domain.Subscription) error
}
