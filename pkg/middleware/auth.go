package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/FACorreiaa/subscription-finder/pkg/logger"
)

const (
	// SessionName is the cookie holding the logged-in user.
	SessionName = "subscription_finder_session"
	// SessionUserKey is the session value storing the user id string.
	SessionUserKey = "user_id"

	userIDKey = "user_id"
)

// TokenVerifier validates a bearer access token and returns its subject.
type TokenVerifier interface {
	VerifyAccessToken(token string) (uuid.UUID, error)
}

// Auth accepts either an "Authorization: Bearer" access token or the session
// cookie written at OAuth callback. A present but invalid bearer token is
// rejected without falling back to the cookie.
func Auth(store sessions.Store, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
				return
			}
			userID, err := verifier.VerifyAccessToken(parts[1])
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			SetUserID(c, userID)
			c.Next()
			return
		}

		if userID, ok := sessionUser(c, store); ok {
			SetUserID(c, userID)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
}

func sessionUser(c *gin.Context, store sessions.Store) (uuid.UUID, bool) {
	if store == nil {
		return uuid.Nil, false
	}
	session, err := store.Get(c.Request, SessionName)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := session.Values[SessionUserKey].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetUserID marks the request as authenticated as userID.
func SetUserID(c *gin.Context, userID uuid.UUID) {
	c.Set(userIDKey, userID)
	ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, userID.String())
	c.Request = c.Request.WithContext(ctx)
}

// UserID returns the authenticated user, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
