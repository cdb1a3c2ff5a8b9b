package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/FACorreiaa/subscription-finder/internal/domain/auth/service"
	"github.com/FACorreiaa/subscription-finder/pkg/middleware"
)

const ProviderGoogle = "google"

// ConfigureGoogle registers the Google provider with goth and points gothic
// at store for its OAuth state cookie. goth keeps both in package state.
func ConfigureGoogle(store sessions.Store, clientID, clientSecret, callbackURL string) {
	gothic.Store = store
	goth.UseProviders(google.New(clientID, clientSecret, callbackURL, "openid", "email", "profile"))
}

type AuthHandler struct {
	svc        *service.AuthService
	store      sessions.Store
	provider   string
	sessionTTL time.Duration
	secure     bool
	logger     *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, store sessions.Store, provider string, sessionTTL time.Duration, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:        svc,
		store:      store,
		provider:   provider,
		sessionTTL: sessionTTL,
		secure:     secure,
		logger:     logger,
	}
}

// Login redirects to the identity provider.
func (h *AuthHandler) Login(c *gin.Context) {
	gothic.BeginAuthHandler(c.Writer, gothic.GetContextWithProvider(c.Request, h.provider))
}

// Callback completes the OAuth exchange, signs the user in and redirects home
// with the access token in the URL fragment.
func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, gothic.GetContextWithProvider(c.Request, h.provider))
	if err != nil {
		h.logger.WarnContext(ctx, "oauth callback failed", slog.Any("error", err))
		c.Redirect(http.StatusFound, "/")
		return
	}

	res, _, err := h.svc.LoginOrRegisterOAuth(ctx, h.provider, &gothUser)
	switch {
	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	case errors.Is(err, service.ErrMissingEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email permission is required"})
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "oauth login failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	// Get returns a fresh session when the existing cookie cannot be decoded.
	session, _ := h.store.Get(c.Request, middleware.SessionName)
	session.Values[middleware.SessionUserKey] = res.User.ID.String()
	session.Options = h.cookieOptions(int(h.sessionTTL.Seconds()))
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.logger.ErrorContext(ctx, "failed to save session", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	fragment := url.Values{"access_token": {res.Tokens.AccessToken}}
	c.Redirect(http.StatusFound, "/#"+fragment.Encode())
}

// Logout clears both the provider state and the app session.
func (h *AuthHandler) Logout(c *gin.Context) {
	_ = gothic.Logout(c.Writer, c.Request)

	session, _ := h.store.Get(c.Request, middleware.SessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options = h.cookieOptions(-1)
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.logger.WarnContext(c.Request.Context(), "failed to clear session", slog.Any("error", err))
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) cookieOptions(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
