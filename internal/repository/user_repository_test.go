package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

func newUserRepo() *InMemoryUserRepository {
	return NewInMemoryUserRepository(logger.New(logger.ERROR))
}

func TestUpsertSubscriptionCreatesRecord(t *testing.T) {
	repo := newUserRepo()
	ctx := context.Background()

	sub := &domain.Subscription{Active: true, Type: domain.PlanMonthly, PaymentID: "pay-1"}
	if err := repo.UpsertSubscription(ctx, "user-1", sub); err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}

	user, err := repo.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if user.Subscription == nil || user.Subscription.PaymentID != "pay-1" {
		t.Errorf("subscription not stored: %+v", user.Subscription)
	}

	// Returned record is a copy, mutating it must not leak into the store
	user.Subscription.PaymentID = "tampered"
	again, _ := repo.GetByID(ctx, "user-1")
	if again.Subscription.PaymentID != "pay-1" {
		t.Error("stored subscription was mutated through a returned copy")
	}
}

func TestGetByEmailReturnsAllMatches(t *testing.T) {
	repo := newUserRepo()
	ctx := context.Background()

	for _, id := range []string{"b-user", "a-user"} {
		if _, err := repo.UpsertProfile(ctx, id, "shared@example.com", ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.UpsertProfile(ctx, "other", "other@example.com", ""); err != nil {
		t.Fatal(err)
	}

	matches, err := repo.GetByEmail(ctx, "shared@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].ID != "a-user" || matches[1].ID != "b-user" {
		t.Errorf("matches not ordered by id: %s, %s", matches[0].ID, matches[1].ID)
	}

	empty, err := repo.GetByEmail(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Error("empty email must match nothing")
	}
}

func TestUpsertProfilePartialWrites(t *testing.T) {
	repo := newUserRepo()
	ctx := context.Background()

	// First write may omit either field entirely
	user, err := repo.UpsertProfile(ctx, "user-1", "", "Jane")
	if err != nil {
		t.Fatalf("first partial UpsertProfile failed: %v", err)
	}
	if user.Email != "" || user.DisplayName != "Jane" {
		t.Errorf("profile after first write = %+v", user)
	}

	// A later partial write fills the missing field without erasing the rest
	user, err = repo.UpsertProfile(ctx, "user-1", "jane@example.com", "")
	if err != nil {
		t.Fatalf("second partial UpsertProfile failed: %v", err)
	}
	if user.Email != "jane@example.com" {
		t.Errorf("email = %q, want jane@example.com", user.Email)
	}
	if user.DisplayName != "Jane" {
		t.Errorf("display name = %q, omitted field must keep its stored value", user.DisplayName)
	}
}

func TestFavorites(t *testing.T) {
	repo := newUserRepo()
	ctx := context.Background()

	if err := repo.AddFavorite(ctx, "user-1", "squat"); err != nil {
		t.Fatal(err)
	}
	if err := repo.AddFavorite(ctx, "user-1", "deadlift"); err != nil {
		t.Fatal(err)
	}
	// Duplicate add is a no-op
	if err := repo.AddFavorite(ctx, "user-1", "squat"); err != nil {
		t.Fatal(err)
	}

	user, err := repo.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(user.Favorites) != 2 {
		t.Errorf("favorites = %v, want 2 entries", user.Favorites)
	}

	if err := repo.RemoveFavorite(ctx, "user-1", "squat"); err != nil {
		t.Fatal(err)
	}
	user, _ = repo.GetByID(ctx, "user-1")
	if len(user.Favorites) != 1 || user.Favorites[0] != "deadlift" {
		t.Errorf("favorites after removal = %v", user.Favorites)
	}

	if err := repo.RemoveFavorite(ctx, "nobody", "squat"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveFavorite for unknown user err = %v, want ErrNotFound", err)
	}
}

func TestWorkoutHistoryNewestFirst(t *testing.T) {
	repo := NewInMemoryWorkoutRepository(logger.New(logger.ERROR))
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		entry := domain.WorkoutEntry{
			ID:          name,
			UserID:      "user-1",
			WorkoutName: name,
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Add(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := repo.ListByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].WorkoutName != "third" || entries[2].WorkoutName != "first" {
		t.Errorf("entries not newest first: %s, %s, %s",
			entries[0].WorkoutName, entries[1].WorkoutName, entries[2].WorkoutName)
	}
}
