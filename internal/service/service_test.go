package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/integration/yookassa"
	"github.com/pulsefit-app/billing-service/internal/metrics"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.ERROR)
}

func testMetrics() metrics.BillingMetrics {
	return metrics.NewBillingMetrics(prometheus.NewRegistry(), testLogger())
}

// fakeGateway serves canned payments and records capture calls
type fakeGateway struct {
	payments map[string]*yookassa.Payment
	captured []string
	err      error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]*yookassa.Payment)}
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req yookassa.CreatePaymentRequest) (*yookassa.Payment, error) {
	if g.err != nil {
		return nil, g.err
	}
	payment := &yookassa.Payment{
		ID:              "pay-created",
		Status:          domain.PaymentStatusPending,
		Amount:          req.Amount,
		Currency:        req.Currency,
		ConfirmationURL: "https://gateway.example/confirm/pay-created",
		Metadata:        req.Metadata,
	}
	g.payments[payment.ID] = payment
	return payment, nil
}

func (g *fakeGateway) GetPayment(ctx context.Context, paymentID string) (*yookassa.Payment, error) {
	if g.err != nil {
		return nil, g.err
	}
	payment, ok := g.payments[paymentID]
	if !ok {
		return nil, domain.NewGatewayError("get_payment", "not_found", "payment not found", 404, nil)
	}
	copied := *payment
	return &copied, nil
}

func (g *fakeGateway) CapturePayment(ctx context.Context, paymentID, idempotenceKey string) (*yookassa.Payment, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.captured = append(g.captured, paymentID)
	payment, ok := g.payments[paymentID]
	if !ok {
		return nil, domain.NewGatewayError("capture_payment", "not_found", "payment not found", 404, nil)
	}
	payment.Status = domain.PaymentStatusSucceeded
	payment.Paid = true
	copied := *payment
	return &copied, nil
}

// capturePublisher records published events
type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	userID string
	email  string
	sub    domain.Subscription
}

func (p *capturePublisher) PublishSubscriptionUpdated(ctx context.Context, userID, email string, sub *domain.Subscription) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, email: email, sub: *sub})
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
