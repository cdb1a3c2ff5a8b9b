package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/faux"
	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/subscription-finder/internal/domain/auth/service"
	"github.com/FACorreiaa/subscription-finder/internal/domain/user/repository"
	"github.com/FACorreiaa/subscription-finder/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopUsers struct{}

func (nopUsers) UpsertByEmail(ctx context.Context, email, name, pic string) (*repository.User, bool, error) {
	return &repository.User{ID: uuid.New(), Email: email, IsActive: true}, true, nil
}
func (nopUsers) GetByID(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	return nil, repository.ErrUserNotFound
}
func (nopUsers) DeleteCascade(ctx context.Context, id uuid.UUID) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, sessions.Store) {
	t.Helper()
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	gothic.Store = store
	goth.UseProviders(&faux.Provider{})
	t.Cleanup(goth.ClearProviders)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewAuthService(nopUsers{}, service.NewTokenManager("secret", time.Hour), log)
	h := NewAuthHandler(svc, store, "faux", time.Hour, false, log)

	r := gin.New()
	r.GET("/api/auth/login", h.Login)
	r.GET("/api/auth/callback", h.Callback)
	r.GET("/api/auth/logout", h.Logout)
	return r, store
}

func TestLogin_RedirectsToProvider(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "http://example.com/auth"))
}

func TestCallback_WithoutStateRedirectsHome(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/callback", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, middleware.SessionName, c.Name)
	}
}

func TestLogout_ExpiresSession(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusFound, w.Code)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionName {
			found = true
			assert.True(t, c.MaxAge < 0)
		}
	}
	assert.True(t, found)
}
