package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/repository"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// UserService manages user profiles, favorites and workout history
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.ProfileUpdateRequest) (*domain.User, error)
	AddFavorite(ctx context.Context, userID, exerciseID string) error
	RemoveFavorite(ctx context.Context, userID, exerciseID string) error
	ListFavorites(ctx context.Context, userID string) ([]string, error)
	RecordWorkout(ctx context.Context, userID string, req domain.WorkoutRequest) (*domain.WorkoutEntry, error)
	ListWorkouts(ctx context.Context, userID string) ([]domain.WorkoutEntry, error)
}

type userService struct {
	userRepo    repository.UserRepository
	workoutRepo repository.WorkoutRepository
	log         *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, workoutRepo repository.WorkoutRepository, log *logger.Logger) UserService {
	return &userService{
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
		log:         log,
	}
}

// GetProfile returns the user record
func (s *userService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile updates profile fields, creating the record on first write
func (s *userService) UpdateProfile(ctx context.Context, userID string, req domain.ProfileUpdateRequest) (*domain.User, error) {
	user, err := s.userRepo.UpsertProfile(ctx, userID, req.Email, req.DisplayName)
	if err != nil {
		s.log.Errorw("Failed to update profile", "error", err, "userID", userID)
		return nil, err
	}

	s.log.Debugw("Profile updated", "userID", userID)
	return user, nil
}

// AddFavorite adds an exercise to the user's favorites
func (s *userService) AddFavorite(ctx context.Context, userID, exerciseID string) error {
	if exerciseID == "" {
		return domain.ErrInvalidInput
	}
	return s.userRepo.AddFavorite(ctx, userID, exerciseID)
}

// RemoveFavorite removes an exercise from the user's favorites
func (s *userService) RemoveFavorite(ctx context.Context, userID, exerciseID string) error {
	if exerciseID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.userRepo.RemoveFavorite(ctx, userID, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

// ListFavorites returns the user's favorite exercise ids
func (s *userService) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return user.Favorites, nil
}

// RecordWorkout appends a completed workout to the user's history
func (s *userService) RecordWorkout(ctx context.Context, userID string, req domain.WorkoutRequest) (*domain.WorkoutEntry, error) {
	entry := domain.WorkoutEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkoutName: req.WorkoutName,
		ExerciseIDs: req.ExerciseIDs,
		DurationSec: req.DurationSec,
		CompletedAt: time.Now(),
	}

	if err := s.workoutRepo.Add(ctx, entry); err != nil {
		s.log.Errorw("Failed to record workout", "error", err, "userID", userID)
		return nil, err
	}

	s.log.Debugw("Workout recorded", "userID", userID, "workout", req.WorkoutName)
	return &entry, nil
}

// ListWorkouts returns the user's workout history
func (s *userService) ListWorkouts(ctx context.Context, userID string) ([]domain.WorkoutEntry, error) {
	return s.workoutRepo.ListByUserID(ctx, userID)
}
