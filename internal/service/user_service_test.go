package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/repository"
)

func newUserFixture(t *testing.T) UserService {
	t.Helper()
	return NewUserService(
		repository.NewInMemoryUserRepository(testLogger()),
		repository.NewInMemoryWorkoutRepository(testLogger()),
		testLogger(),
	)
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc := newUserFixture(t)

	_, err := svc.GetProfile(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want domain.ErrNotFound", err)
	}
}

func TestUpdateProfileCreatesRecord(t *testing.T) {
	svc := newUserFixture(t)

	user, err := svc.UpdateProfile(context.Background(), "user-1", domain.ProfileUpdateRequest{
		Email:       "jane@example.com",
		DisplayName: "Jane",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.Email != "jane@example.com" || user.DisplayName != "Jane" {
		t.Errorf("profile = %+v", user)
	}

	got, err := svc.GetProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.Email != "jane@example.com" {
		t.Errorf("stored email = %s", got.Email)
	}
}

func TestFavoritesRoundTrip(t *testing.T) {
	svc := newUserFixture(t)
	ctx := context.Background()

	if err := svc.AddFavorite(ctx, "user-1", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty id err = %v, want ErrInvalidInput", err)
	}

	if err := svc.AddFavorite(ctx, "user-1", "squat"); err != nil {
		t.Fatal(err)
	}
	favorites, err := svc.ListFavorites(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(favorites) != 1 || favorites[0] != "squat" {
		t.Errorf("favorites = %v", favorites)
	}

	if err := svc.RemoveFavorite(ctx, "user-1", "squat"); err != nil {
		t.Fatal(err)
	}
	favorites, _ = svc.ListFavorites(ctx, "user-1")
	if len(favorites) != 0 {
		t.Errorf("favorites after removal = %v", favorites)
	}
}

func TestRecordWorkout(t *testing.T) {
	svc := newUserFixture(t)
	ctx := context.Background()

	entry, err := svc.RecordWorkout(ctx, "user-1", domain.WorkoutRequest{
		WorkoutName: "Leg day",
		ExerciseIDs: []string{"squat", "lunge"},
		DurationSec: 1800,
	})
	if err != nil {
		t.Fatalf("RecordWorkout failed: %v", err)
	}
	if entry.ID == "" {
		t.Error("entry should get an id")
	}
	if entry.CompletedAt.IsZero() {
		t.Error("entry should get a completion timestamp")
	}

	entries, err := svc.ListWorkouts(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].WorkoutName != "Leg day" {
		t.Errorf("entries = %+v", entries)
	}
}
