package repository

import (
	"context"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// CachedUserRepository decorates a UserRepository with a Redis read-through
// cache on GetByID. Writes invalidate. Email scans always hit the database
// because reconciliation must see every record.
type CachedUserRepository struct {
	repo  UserRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedUserRepository creates a new caching user repository
func NewCachedUserRepository(repo UserRepository, cache *RedisCacheRepository, log *logger.Logger) UserRepository {
	return &CachedUserRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetByID returns a user record, from cache when possible
func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	cached, err := r.cache.GetCachedUser(ctx, id)
	if err != nil {
		r.log.Warnw("Error reading user from cache", "error", err, "userID", id)
	}
	if cached != nil {
		return cached, nil
	}

	user, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheUser(ctx, user); err != nil {
		r.log.Warnw("Failed to cache user after fetch", "error", err, "userID", id)
	}
	return user, nil
}

// GetByEmail always hits the database
func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) ([]domain.User, error) {
	return r.repo.GetByEmail(ctx, email)
}

// UpsertSubscription writes through and invalidates the cached record
func (r *CachedUserRepository) UpsertSubscription(ctx context.Context, userID string, sub *domain.Subscription) error {
	if err := r.repo.UpsertSubscription(ctx, userID, sub); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}

// UpsertProfile writes through and invalidates the cached record
func (r *CachedUserRepository) UpsertProfile(ctx context.Context, userID, email, displayName string) (*domain.User, error) {
	user, err := r.repo.UpsertProfile(ctx, userID, email, displayName)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, userID)
	return user, nil
}

// AddFavorite writes through and invalidates the cached record
func (r *CachedUserRepository) AddFavorite(ctx context.Context, userID, exerciseID string) error {
	if err := r.repo.AddFavorite(ctx, userID, exerciseID); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}

// RemoveFavorite writes through and invalidates the cached record
func (r *CachedUserRepository) RemoveFavorite(ctx context.Context, userID, exerciseID string) error {
	if err := r.repo.RemoveFavorite(ctx, userID, exerciseID); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.InvalidateUser(ctx, userID); err != nil {
		r.log.Warnw("Failed to invalidate user cache", "error", err, "userID", userID)
	}
}
