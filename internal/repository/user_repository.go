package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// UserRepository provides access to user records. User ids are issued by the
// auth provider, so records are created lazily on first write rather than
// through an explicit registration call.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail returns every user record sharing the given email. More than
	// one record per email is possible when identity records drift apart.
	GetByEmail(ctx context.Context, email string) ([]domain.User, error)
	// UpsertSubscription writes the subscription sub-object, creating the
	// user record if it does not exist.
	UpsertSubscription(ctx context.Context, userID string, sub *domain.Subscription) error
	UpsertProfile(ctx context.Context, userID, email, displayName string) (*domain.User, error)
	AddFavorite(ctx context.Context, userID, exerciseID string) error
	RemoveFavorite(ctx context.Context, userID, exerciseID string) error
}

// WorkoutRepository stores completed-workout history entries
type WorkoutRepository interface {
	Add(ctx context.Context, entry domain.WorkoutEntry) error
	ListByUserID(ctx context.Context, userID string) ([]domain.WorkoutEntry, error)
}

// InMemoryUserRepository is an in-memory UserRepository implementation
type InMemoryUserRepository struct {
	users map[string]domain.User
	mutex sync.RWMutex
	log   *logger.Logger
}

// NewInMemoryUserRepository creates a new in-memory user repository
func NewInMemoryUserRepository(log *logger.Logger) *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]domain.User),
		log:   log,
	}
}

// GetByID returns a user record by id
func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrNotFound
	}

	copied := cloneUser(user)
	return &copied, nil
}

// GetByEmail returns all user records sharing an email
func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) ([]domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if email == "" {
		return nil, nil
	}

	var matches []domain.User
	for _, user := range r.users {
		if user.Email == email {
			matches = append(matches, cloneUser(user))
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

// UpsertSubscription writes the subscription sub-object, creating the record
// if needed
func (r *InMemoryUserRepository) UpsertSubscription(ctx context.Context, userID string, sub *domain.Subscription) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = domain.User{ID: userID, CreatedAt: time.Now()}
	}

	subCopy := *sub
	user.Subscription = &subCopy
	user.UpdatedAt = time.Now()
	r.users[userID] = user

	return nil
}

// UpsertProfile updates profile fields, creating the record if needed
func (r *InMemoryUserRepository) UpsertProfile(ctx context.Context, userID, email, displayName string) (*domain.User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = domain.User{ID: userID, CreatedAt: time.Now()}
	}

	if email != "" {
		user.Email = email
	}
	if displayName != "" {
		user.DisplayName = displayName
	}
	user.UpdatedAt = time.Now()
	r.users[userID] = user

	copied := cloneUser(user)
	return &copied, nil
}

// AddFavorite adds an exercise id to the user's favorites
func (r *InMemoryUserRepository) AddFavorite(ctx context.Context, userID, exerciseID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = domain.User{ID: userID, CreatedAt: time.Now()}
	}

	for _, fav := range user.Favorites {
		if fav == exerciseID {
			return nil
		}
	}

	user.Favorites = append(user.Favorites, exerciseID)
	user.UpdatedAt = time.Now()
	r.users[userID] = user
	return nil
}

// RemoveFavorite removes an exercise id from the user's favorites
func (r *InMemoryUserRepository) RemoveFavorite(ctx context.Context, userID, exerciseID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return ErrNotFound
	}

	filtered := user.Favorites[:0]
	for _, fav := range user.Favorites {
		if fav != exerciseID {
			filtered = append(filtered, fav)
		}
	}
	user.Favorites = filtered
	user.UpdatedAt = time.Now()
	r.users[userID] = user
	return nil
}

func cloneUser(u domain.User) domain.User {
	copied := u
	if u.Subscription != nil {
		sub := *u.Subscription
		copied.Subscription = &sub
	}
	if u.Favorites != nil {
		copied.Favorites = append([]string(nil), u.Favorites...)
	}
	return copied
}

// InMemoryWorkoutRepository is an in-memory WorkoutRepository implementation
type InMemoryWorkoutRepository struct {
	entries map[string][]domain.WorkoutEntry
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryWorkoutRepository creates a new in-memory workout repository
func NewInMemoryWorkoutRepository(log *logger.Logger) *InMemoryWorkoutRepository {
	return &InMemoryWorkoutRepository{
		entries: make(map[string][]domain.WorkoutEntry),
		log:     log,
	}
}

// Add appends a workout history entry
func (r *InMemoryWorkoutRepository) Add(ctx context.Context, entry domain.WorkoutEntry) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.entries[entry.UserID] = append(r.entries[entry.UserID], entry)
	return nil
}

// ListByUserID returns a user's workout history, newest first
func (r *InMemoryWorkoutRepository) ListByUserID(ctx context.Context, userID string) ([]domain.WorkoutEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := append([]domain.WorkoutEntry(nil), r.entries[userID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CompletedAt.After(entries[j].CompletedAt) })
	return entries, nil
}
