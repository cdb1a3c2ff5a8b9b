package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/FACorreiaa/subscription-finder/internal/domain/user/repository"
	"github.com/FACorreiaa/subscription-finder/pkg/middleware"
)

// UserHandler serves the authenticated user's profile.
type UserHandler struct {
	users  repository.UserRepository
	store  sessions.Store
	logger *slog.Logger
}

// NewUserHandler constructs a new handler.
func NewUserHandler(users repository.UserRepository, store sessions.Store, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, store: store, logger: logger}
}

type profileResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	ProfilePic string `json:"profile_pic"`
}

// GetProfile returns the signed-in user.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to load user", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		Name:       u.Name,
		ProfilePic: u.ProfilePic,
	})
}

// DeleteAccount removes the user and everything they own, then ends the
// session.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	err := h.users.DeleteCascade(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to delete user", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	if h.store != nil {
		if session, err := h.store.Get(c.Request, middleware.SessionName); err == nil {
			session.Options = &sessions.Options{Path: "/", MaxAge: -1}
			_ = session.Save(c.Request, c.Writer)
		}
	}

	h.logger.InfoContext(c.Request.Context(), "account deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
