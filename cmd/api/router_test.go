package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authservice "github.com/FACorreiaa/subscription-finder/internal/domain/auth/service"
	"github.com/FACorreiaa/subscription-finder/internal/domain/catalog"
	cataloghandler "github.com/FACorreiaa/subscription-finder/internal/domain/catalog/handler"
	"github.com/FACorreiaa/subscription-finder/pkg/config"
	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
)

// routerDeps wires only what the routes below touch; no database.
func routerDeps() *Dependencies {
	cat := catalog.Default()
	return &Dependencies{
		Config: &config.Config{Server: config.ServerConfig{
			RateLimitPerSecond: 100,
			RateLimitBurst:     100,
			AllowedOrigins:     []string{"http://localhost:3000"},
		}},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:        metrics.NewNoop(),
		SessionStore:   sessions.NewCookieStore([]byte("test-session-secret")),
		TokenManager:   authservice.NewTokenManager("test-jwt-secret", time.Hour),
		Catalog:        cat,
		CatalogHandler: cataloghandler.NewCatalogHandler(cat),
	}
}

func TestRouter_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRouter(routerDeps())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_CatalogIsPublic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRouter(routerDeps())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, len(catalog.Default().Entries()))
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRouter(routerDeps())

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/subscriptions"},
		{http.MethodPost, "/api/subscriptions"},
		{http.MethodPut, "/api/subscriptions/5f1c"},
		{http.MethodDelete, "/api/subscriptions/5f1c"},
		{http.MethodGet, "/api/subscriptions/export"},
		{http.MethodGet, "/api/analytics"},
		{http.MethodGet, "/api/uploads"},
		{http.MethodPost, "/api/upload"},
		{http.MethodGet, "/api/user"},
		{http.MethodDelete, "/api/user"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_RejectsForgedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRouter(routerDeps())

	other := authservice.NewTokenManager("someone-else", time.Hour)
	pair, err := other.GenerateTokenPair(uuid.New(), "a@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRouter(routerDeps())

	req := httptest.NewRequest(http.MethodOptions, "/api/subscriptions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
