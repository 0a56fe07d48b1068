package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/repository"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// UserRepository is the PostgreSQL implementation of
// repository.UserRepository. The subscription sub-object is stored as jsonb
// so its lifecycle matches the document shape it has on the wire.
type UserRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *pgxpool.Pool, log *logger.Logger) *UserRepository {
	return &UserRepository{
		db:  db,
		log: log,
	}
}

// GetByID returns a user record by the auth provider id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, display_name, favorites, subscription, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetByEmail returns every user record sharing an email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) ([]domain.User, error) {
	if email == "" {
		return nil, nil
	}

	query := `
		SELECT id, email, display_name, favorites, subscription, created_at, updated_at
		FROM users
		WHERE email = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by email: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpsertSubscription writes the subscription sub-object, creating the user
// record if it does not exist
func (r *UserRepository) UpsertSubscription(ctx context.Context, userID string, sub *domain.Subscription) error {
	subBytes, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	query := `
		INSERT INTO users (id, subscription, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			subscription = EXCLUDED.subscription,
			updated_at = now()
	`

	if _, err := r.db.Exec(ctx, query, userID, subBytes); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	r.log.Debugw("Subscription upserted", "userID", userID, "paymentID", sub.PaymentID)
	return nil
}

// UpsertProfile updates profile fields, creating the record if needed
func (r *UserRepository) UpsertProfile(ctx context.Context, userID, email, displayName string) (*domain.User, error) {
	// The insert writes empty strings as-is, the columns are NOT NULL.
	// NULLIF only guards the conflict branch so an omitted field does not
	// erase a previously stored value.
	query := `
		INSERT INTO users (id, email, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
			display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name),
			updated_at = now()
		RETURNING id, email, display_name, favorites, subscription, created_at, updated_at
	`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID, email, displayName))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return user, nil
}

// AddFavorite adds an exercise id to the user's favorites
func (r *UserRepository) AddFavorite(ctx context.Context, userID, exerciseID string) error {
	query := `
		INSERT INTO users (id, favorites, created_at, updated_at)
		VALUES ($1, ARRAY[$2], now(), now())
		ON CONFLICT (id) DO UPDATE SET
			favorites = (
				SELECT ARRAY(SELECT DISTINCT unnest(users.favorites || $2))
			),
			updated_at = now()
	`

	if _, err := r.db.Exec(ctx, query, userID, exerciseID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes an exercise id from the user's favorites
func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, exerciseID string) error {
	query := `
		UPDATE users
		SET favorites = array_remove(favorites, $2), updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, userID, exerciseID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user      domain.User
		email     *string
		name      *string
		favorites []string
		subBytes  []byte
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&user.ID, &email, &name, &favorites, &subBytes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if email != nil {
		user.Email = *email
	}
	if name != nil {
		user.DisplayName = *name
	}
	user.Favorites = favorites
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt

	if len(subBytes) > 0 {
		var sub domain.Subscription
		if err := json.Unmarshal(subBytes, &sub); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		user.Subscription = &sub
	}
	return &user, nil
}
