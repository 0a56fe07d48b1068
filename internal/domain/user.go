package domain

import (
	"time"
)

// User is a user record keyed by the auth-provider-issued identifier.
// Email is optional and doubles as the secondary key for subscription
// reconciliation when identity records drift apart.
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email,omitempty"`
	DisplayName  string        `json:"displayName,omitempty"`
	Favorites    []string      `json:"favorites,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// HasActiveSubscription reports whether the user's subscription grants
// access, applying the same leniency as every other read path
func (u *User) HasActiveSubscription(now time.Time) bool {
	if u == nil {
		return false
	}
	return u.Subscription.GrantsAccess(now)
}

// WorkoutEntry is a completed-workout history record
type WorkoutEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	WorkoutName string    `json:"workoutName"`
	ExerciseIDs []string  `json:"exerciseIds,omitempty"`
	DurationSec int       `json:"durationSec,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// ProfileUpdateRequest is the payload of PUT /users/me
type ProfileUpdateRequest struct {
	Email       string `json:"email" binding:"omitempty,email"`
	DisplayName string `json:"displayName" binding:"omitempty,max=120"`
}

// WorkoutRequest is the payload of POST /users/me/workouts
type WorkoutRequest struct {
	WorkoutName string   `json:"workoutName" binding:"required,max=200"`
	ExerciseIDs []string `json:"exerciseIds"`
	DurationSec int      `json:"durationSec" binding:"omitempty,gte=0"`
}
