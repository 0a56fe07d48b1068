package service

import (
	"context"
	"errors"
	"time"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/repository"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// SubscriptionService answers subscription status reads and applies webhook
// upserts
type SubscriptionService interface {
	// GetStatus computes effective activity for the user at call time. When
	// no active subscription is found locally but an email is known, the
	// reconciler is triggered in the background.
	GetStatus(ctx context.Context, userID string) (domain.StatusResponse, error)
	// UpsertFromWebhook writes a subscription delivered by the payment
	// webhook onto the user record, creating it if needed.
	UpsertFromWebhook(ctx context.Context, userID string, sub *domain.Subscription) error
}

type subscriptionService struct {
	userRepo   repository.UserRepository
	reconciler ReconcilerService
	events     EventPublisher
	now        func() time.Time
	log        *logger.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	userRepo repository.UserRepository,
	reconciler ReconcilerService,
	events EventPublisher,
	log *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		userRepo:   userRepo,
		reconciler: reconciler,
		events:     events,
		now:        time.Now,
		log:        log,
	}
}

// GetStatus reports whether the user currently has access. Expiry is decided
// here, on read; nothing ever flips the stored Active flag back.
func (s *subscriptionService) GetStatus(ctx context.Context, userID string) (domain.StatusResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.StatusResponse{HasSubscription: false}, nil
		}
		return domain.StatusResponse{}, err
	}

	now := s.now()
	active := user.Subscription.GrantsAccess(now)

	if !active && user.Email != "" {
		// Fire-and-forget repair; the response does not wait for it
		go func(userID, email string) {
			if _, err := s.reconciler.Reconcile(context.Background(), userID, email); err != nil {
				s.log.Warnw("Background reconciliation failed", "error", err, "userID", userID)
			}
		}(user.ID, user.Email)
	}

	return domain.StatusResponse{
		HasSubscription: active,
		Subscription:    user.Subscription,
	}, nil
}

// UpsertFromWebhook persists a webhook-delivered subscription
func (s *subscriptionService) UpsertFromWebhook(ctx context.Context, userID string, sub *domain.Subscription) error {
	if err := s.userRepo.UpsertSubscription(ctx, userID, sub); err != nil {
		s.log.Errorw("Failed to upsert subscription from webhook", "error", err, "userID", userID)
		return err
	}

	email := ""
	if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
		email = user.Email
	}
	if err := s.events.PublishSubscriptionUpdated(ctx, userID, email, sub); err != nil {
		s.log.Warnw("Failed to publish subscription event", "error", err, "userID", userID)
	}

	s.log.Infow("Subscription upserted from webhook", "userID", userID, "endDate", sub.EndDate)
	return nil
}
