package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

func TestPendingPaymentCreateAndGet(t *testing.T) {
	repo := NewInMemoryPendingPaymentRepository(logger.New(logger.ERROR))
	ctx := context.Background()

	payment := domain.PendingPayment{PaymentID: "pay-1", UserID: "user-1", Type: domain.PlanMonthly, Amount: 999}
	if err := repo.Create(ctx, payment); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "pay-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.UserID != "user-1" || got.Processed {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be backfilled")
	}

	if err := repo.Create(ctx, payment); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second Create err = %v, want ErrDuplicate", err)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID missing err = %v, want ErrNotFound", err)
	}
}

func TestMarkProcessedFlipsExactlyOnce(t *testing.T) {
	repo := NewInMemoryPendingPaymentRepository(logger.New(logger.ERROR))
	ctx := context.Background()

	if err := repo.Create(ctx, domain.PendingPayment{PaymentID: "pay-1", UserID: "user-1"}); err != nil {
		t.Fatal(err)
	}

	first, err := repo.MarkProcessed(ctx, "pay-1")
	if err != nil || !first {
		t.Fatalf("first MarkProcessed = (%v, %v), want (true, nil)", first, err)
	}

	second, err := repo.MarkProcessed(ctx, "pay-1")
	if err != nil || second {
		t.Fatalf("second MarkProcessed = (%v, %v), want (false, nil)", second, err)
	}

	if _, err := repo.MarkProcessed(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkProcessed missing err = %v, want ErrNotFound", err)
	}
}

func TestMarkProcessedUnderContention(t *testing.T) {
	repo := NewInMemoryPendingPaymentRepository(logger.New(logger.ERROR))
	ctx := context.Background()

	if err := repo.Create(ctx, domain.PendingPayment{PaymentID: "pay-1", UserID: "user-1"}); err != nil {
		t.Fatal(err)
	}

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkProcessed(ctx, "pay-1")
			if err != nil {
				t.Errorf("MarkProcessed failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}
