package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefit-app/billing-service/internal/api/rest/middleware"
	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/service"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// UserHandler serves profile, favorites and workout history endpoints
type UserHandler struct {
	users service.UserService
	log   *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// GetProfile returns the caller's profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates email and display name
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req domain.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.log.Errorw("Failed to update profile", "error", err, "userID", userID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// AddFavorite adds an exercise to the caller's favorites
func (h *UserHandler) AddFavorite(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	exerciseID := c.Param("exerciseID")
	if err := h.users.AddFavorite(c.Request.Context(), userID, exerciseID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

// RemoveFavorite removes an exercise from the caller's favorites
func (h *UserHandler) RemoveFavorite(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	exerciseID := c.Param("exerciseID")
	if err := h.users.RemoveFavorite(c.Request.Context(), userID, exerciseID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// ListFavorites returns the caller's favorite exercise ids
func (h *UserHandler) ListFavorites(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	favorites, err := h.users.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

// RecordWorkout appends a completed workout to the caller's history
func (h *UserHandler) RecordWorkout(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req domain.WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.users.RecordWorkout(c.Request.Context(), userID, req)
	if err != nil {
		h.log.Errorw("Failed to record workout", "error", err, "userID", userID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListWorkouts returns the caller's workout history, newest first
func (h *UserHandler) ListWorkouts(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entries, err := h.users.ListWorkouts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workouts": entries})
}
