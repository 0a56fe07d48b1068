package service

import (
	"context"
	"errors"
	"time"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/integration/yookassa"
	"github.com/pulsefit-app/billing-service/internal/metrics"
	"github.com/pulsefit-app/billing-service/internal/repository"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// ActivationService converts a verified gateway payment into a persisted
// subscription window. Invoked from the webhook and from the client-triggered
// fallback, so it must be safe to call twice for the same payment.
type ActivationService interface {
	Activate(ctx context.Context, userID, paymentID, subscriptionType string) (*domain.Subscription, error)
}

type activationService struct {
	gateway     PaymentGateway
	userRepo    repository.UserRepository
	pendingRepo repository.PendingPaymentRepository
	events      EventPublisher
	metrics     metrics.BillingMetrics
	now         func() time.Time
	log         *logger.Logger
}

// NewActivationService creates a new activation service
func NewActivationService(
	gateway PaymentGateway,
	userRepo repository.UserRepository,
	pendingRepo repository.PendingPaymentRepository,
	events EventPublisher,
	m metrics.BillingMetrics,
	log *logger.Logger,
) ActivationService {
	return &activationService{
		gateway:     gateway,
		userRepo:    userRepo,
		pendingRepo: pendingRepo,
		events:      events,
		metrics:     m,
		now:         time.Now,
		log:         log,
	}
}

// Activate verifies the payment with the gateway, consumes it exactly once
// and writes the resulting subscription window onto the user record.
func (s *activationService) Activate(ctx context.Context, userID, paymentID, subscriptionType string) (*domain.Subscription, error) {
	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.log.Errorw("Failed to fetch payment status", "error", err, "paymentID", paymentID)
		s.metrics.IncActivationFailed("gateway_error")
		return nil, err
	}

	// Two-stage flow: an authorized payment has to be captured first
	if payment.Status == domain.PaymentStatusWaitingForCapture && payment.Paid {
		s.log.Infow("Payment waiting for capture, capturing", "paymentID", paymentID)
		payment, err = s.gateway.CapturePayment(ctx, paymentID, newIdempotenceKey(userID))
		if err != nil {
			s.log.Errorw("Failed to capture payment", "error", err, "paymentID", paymentID)
			s.metrics.IncActivationFailed("capture_error")
			return nil, err
		}
	}

	if payment.Status != domain.PaymentStatusSucceeded || !payment.Paid {
		s.log.Warnw("Payment not completed, refusing activation",
			"paymentID", paymentID, "status", payment.Status, "paid", payment.Paid)
		s.metrics.IncActivationFailed("not_completed")
		return nil, domain.ErrPaymentNotCompleted
	}

	plan := s.resolvePlan(payment, subscriptionType)

	// Consume the payment before touching the subscription. Whoever loses
	// this flip (second webhook delivery, client fallback racing the webhook)
	// must not extend the window a second time.
	consumed, err := s.consumePayment(ctx, userID, paymentID, plan, payment.Amount)
	if err != nil {
		return nil, err
	}
	if !consumed {
		s.log.Infow("Payment already processed, skipping activation", "paymentID", paymentID)
		if user, err := s.userRepo.GetByID(ctx, userID); err == nil && user.Subscription != nil {
			return user.Subscription, nil
		}
		s.metrics.IncActivationFailed("already_processed")
		return nil, domain.ErrPaymentAlreadyProcessed
	}

	now := s.now()

	var current *domain.Subscription
	user, err := s.userRepo.GetByID(ctx, userID)
	switch {
	case err == nil:
		current = user.Subscription
	case errors.Is(err, repository.ErrNotFound):
		// First purchase before the user record exists; the upsert below
		// creates it
	default:
		s.log.Errorw("Failed to read user record", "error", err, "userID", userID)
		return nil, err
	}

	start, end := current.Extend(plan, now)
	kind := "purchase"
	if current.EffectivelyActive(now) {
		kind = "renewal"
	}

	sub := &domain.Subscription{
		Active:    true,
		Type:      plan,
		StartDate: start,
		EndDate:   end,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
	}

	if err := s.userRepo.UpsertSubscription(ctx, userID, sub); err != nil {
		s.log.Errorw("Failed to persist subscription", "error", err, "userID", userID, "paymentID", paymentID)
		s.metrics.IncActivationFailed("persist_error")
		return nil, err
	}

	email := ""
	if user != nil {
		email = user.Email
	}
	if err := s.events.PublishSubscriptionUpdated(ctx, userID, email, sub); err != nil {
		s.log.Warnw("Failed to publish subscription event", "error", err, "userID", userID)
	}

	s.metrics.IncActivation(string(plan), kind)
	s.log.Infow("Subscription activated",
		"userID", userID, "paymentID", paymentID, "plan", plan, "kind", kind,
		"startDate", start, "endDate", end)

	return sub, nil
}

// resolvePlan picks the plan from payment metadata, then the caller-supplied
// value, then the default.
func (s *activationService) resolvePlan(payment *yookassa.Payment, callerType string) domain.PlanType {
	if metaType, ok := payment.Metadata["subscriptionType"]; ok {
		if plan, err := domain.ParsePlanType(metaType); err == nil {
			return plan
		}
		s.log.Warnw("Ignoring invalid plan type in payment metadata", "value", metaType, "paymentID", payment.ID)
	}
	if callerType != "" {
		if plan, err := domain.ParsePlanType(callerType); err == nil {
			return plan
		}
		s.log.Warnw("Ignoring invalid caller-supplied plan type", "value", callerType, "paymentID", payment.ID)
	}
	return domain.DefaultPlan
}

// consumePayment marks the pending payment processed, creating the audit
// record first if the optimistic write at purchase time never happened.
func (s *activationService) consumePayment(ctx context.Context, userID, paymentID string, plan domain.PlanType, amount float64) (bool, error) {
	consumed, err := s.pendingRepo.MarkProcessed(ctx, paymentID)
	if err == nil {
		return consumed, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.log.Errorw("Failed to consume payment", "error", err, "paymentID", paymentID)
		return false, err
	}

	pending := domain.PendingPayment{
		PaymentID: paymentID,
		UserID:    userID,
		Type:      plan,
		Amount:    amount,
		CreatedAt: s.now(),
	}
	if err := s.pendingRepo.Create(ctx, pending); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		s.log.Errorw("Failed to create pending payment during activation", "error", err, "paymentID", paymentID)
		return false, err
	}

	consumed, err = s.pendingRepo.MarkProcessed(ctx, paymentID)
	if err != nil {
		s.log.Errorw("Failed to consume payment", "error", err, "paymentID", paymentID)
		return false, err
	}
	return consumed, nil
}
