package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

const (
	userKeyPrefix = "user:"

	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository caches user records in Redis. Cache failures are
// logged and tolerated; the database stays authoritative.
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository creates a new Redis cache repository
func NewRedisCacheRepository(addr, password string, db int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis", "addr", addr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close closes the Redis connection
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheUser stores a user record in the cache
func (r *RedisCacheRepository) CacheUser(ctx context.Context, user *domain.User) error {
	key := userKeyPrefix + user.ID

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	r.log.Debugw("User cached", "userID", user.ID)
	return nil
}

// GetCachedUser returns a cached user record, or nil on a cache miss
func (r *RedisCacheRepository) GetCachedUser(ctx context.Context, userID string) (*domain.User, error) {
	data, err := r.client.Get(ctx, userKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user from cache: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}

	r.log.Debugw("User retrieved from cache", "userID", userID)
	return &user, nil
}

// InvalidateUser drops a user record from the cache
func (r *RedisCacheRepository) InvalidateUser(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, userKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user cache: %w", err)
	}
	return nil
}
