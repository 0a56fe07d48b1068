package repository

import (
	"context"
	"sync"
	"time"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// PendingPaymentRepository stores the audit records created when payments are
// initiated. Records are never deleted.
type PendingPaymentRepository interface {
	Create(ctx context.Context, payment domain.PendingPayment) error
	GetByID(ctx context.Context, paymentID string) (domain.PendingPayment, error)
	// MarkProcessed atomically flips the processed flag. It returns true only
	// for the call that actually performed the flip, which makes it usable as
	// an exactly-once guard on the activation path.
	MarkProcessed(ctx context.Context, paymentID string) (bool, error)
}

// InMemoryPendingPaymentRepository is an in-memory implementation
type InMemoryPendingPaymentRepository struct {
	payments map[string]domain.PendingPayment
	mutex    sync.Mutex
	log      *logger.Logger
}

// NewInMemoryPendingPaymentRepository creates a new in-memory pending payment
// repository
func NewInMemoryPendingPaymentRepository(log *logger.Logger) *InMemoryPendingPaymentRepository {
	return &InMemoryPendingPaymentRepository{
		payments: make(map[string]domain.PendingPayment),
		log:      log,
	}
}

// Create stores a new pending payment record
func (r *InMemoryPendingPaymentRepository) Create(ctx context.Context, payment domain.PendingPayment) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.payments[payment.PaymentID]; exists {
		return ErrDuplicate
	}

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	r.payments[payment.PaymentID] = payment
	return nil
}

// GetByID returns a pending payment record by the gateway payment id
func (r *InMemoryPendingPaymentRepository) GetByID(ctx context.Context, paymentID string) (domain.PendingPayment, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	payment, exists := r.payments[paymentID]
	if !exists {
		return domain.PendingPayment{}, ErrNotFound
	}
	return payment, nil
}

// MarkProcessed flips the processed flag exactly once
func (r *InMemoryPendingPaymentRepository) MarkProcessed(ctx context.Context, paymentID string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	payment, exists := r.payments[paymentID]
	if !exists {
		return false, ErrNotFound
	}
	if payment.Processed {
		return false, nil
	}

	payment.Processed = true
	r.payments[paymentID] = payment
	return true, nil
}
