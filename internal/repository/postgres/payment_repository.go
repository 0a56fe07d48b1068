package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/repository"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// PendingPaymentRepository is the PostgreSQL implementation of
// repository.PendingPaymentRepository
type PendingPaymentRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPendingPaymentRepository creates a new PostgreSQL pending payment
// repository
func NewPendingPaymentRepository(db *pgxpool.Pool, log *logger.Logger) *PendingPaymentRepository {
	return &PendingPaymentRepository{
		db:  db,
		log: log,
	}
}

// Create stores a new pending payment record
func (r *PendingPaymentRepository) Create(ctx context.Context, payment domain.PendingPayment) error {
	query := `
		INSERT INTO pending_payments (payment_id, user_id, type, amount, processed, created_at)
		VALUES ($1, $2, $3, $4, false, now())
	`

	_, err := r.db.Exec(ctx, query, payment.PaymentID, payment.UserID, payment.Type, payment.Amount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create pending payment: %w", err)
	}

	r.log.Debugw("Pending payment recorded", "paymentID", payment.PaymentID, "userID", payment.UserID)
	return nil
}

// GetByID returns a pending payment record by the gateway payment id
func (r *PendingPaymentRepository) GetByID(ctx context.Context, paymentID string) (domain.PendingPayment, error) {
	query := `
		SELECT payment_id, user_id, type, amount, processed, created_at
		FROM pending_payments
		WHERE payment_id = $1
	`

	var payment domain.PendingPayment
	err := r.db.QueryRow(ctx, query, paymentID).Scan(
		&payment.PaymentID,
		&payment.UserID,
		&payment.Type,
		&payment.Amount,
		&payment.Processed,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PendingPayment{}, repository.ErrNotFound
		}
		return domain.PendingPayment{}, fmt.Errorf("failed to query pending payment: %w", err)
	}
	return payment, nil
}

// MarkProcessed flips the processed flag with a conditional update. The
// rows-affected count tells the caller whether this invocation won the flip,
// which is what makes concurrent double activation safe.
func (r *PendingPaymentRepository) MarkProcessed(ctx context.Context, paymentID string) (bool, error) {
	query := `
		UPDATE pending_payments
		SET processed = true
		WHERE payment_id = $1 AND NOT processed
	`

	tag, err := r.db.Exec(ctx, query, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment processed: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish "already processed" from "no such payment"
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pending_payments WHERE payment_id = $1)`, paymentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending payment: %w", err)
	}
	if !exists {
		return false, repository.ErrNotFound
	}
	return false, nil
}
