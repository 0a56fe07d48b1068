package service

import (
	"context"
	"errors"
	"time"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/metrics"
	"github.com/pulsefit-app/billing-service/internal/repository"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// ReconcilerService recovers subscriptions written under a different user
// record. When a user re-authenticates and receives a fresh identity, the
// subscription stays on the old record; matching on email finds it again.
type ReconcilerService interface {
	// Reconcile copies an active subscription found on another record with
	// the same email onto the given record. Returns the copied subscription,
	// or nil when nothing was done.
	Reconcile(ctx context.Context, userID, email string) (*domain.Subscription, error)
}

type reconcilerService struct {
	userRepo repository.UserRepository
	events   EventPublisher
	metrics  metrics.BillingMetrics
	now      func() time.Time
	log      *logger.Logger
}

// NewReconcilerService creates a new reconciler service
func NewReconcilerService(
	userRepo repository.UserRepository,
	events EventPublisher,
	m metrics.BillingMetrics,
	log *logger.Logger,
) ReconcilerService {
	return &reconcilerService{
		userRepo: userRepo,
		events:   events,
		metrics:  m,
		now:      time.Now,
		log:      log,
	}
}

// Reconcile performs the read-time repair. It only ever acts when the current
// record has no effectively active subscription; an existing active
// subscription is never overwritten. The source record is left untouched.
func (s *reconcilerService) Reconcile(ctx context.Context, userID, email string) (*domain.Subscription, error) {
	now := s.now()

	current, err := s.userRepo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if current.HasActiveSubscription(now) {
		s.metrics.IncReconciliation("noop")
		return nil, nil
	}

	if email == "" && current != nil {
		email = current.Email
	}
	if email == "" {
		s.metrics.IncReconciliation("no_email")
		return nil, nil
	}

	candidates, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.log.Errorw("Failed to search user records by email", "error", err, "userID", userID)
		return nil, err
	}

	for _, candidate := range candidates {
		if candidate.ID == userID {
			continue
		}
		if !candidate.HasActiveSubscription(now) {
			continue
		}

		copied := *candidate.Subscription
		if err := s.userRepo.UpsertSubscription(ctx, userID, &copied); err != nil {
			s.log.Errorw("Failed to copy subscription onto record",
				"error", err, "userID", userID, "sourceID", candidate.ID)
			return nil, err
		}

		if err := s.events.PublishSubscriptionUpdated(ctx, userID, email, &copied); err != nil {
			s.log.Warnw("Failed to publish subscription event", "error", err, "userID", userID)
		}

		s.metrics.IncReconciliation("copied")
		s.log.Infow("Subscription reconciled from sibling record",
			"userID", userID, "sourceID", candidate.ID, "endDate", copied.EndDate)
		return &copied, nil
	}

	s.metrics.IncReconciliation("not_found")
	return nil, nil
}
