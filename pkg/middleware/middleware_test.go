package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/subscription-finder/pkg/logger"
	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		ctxID, _ := c.Request.Context().Value(logger.RequestIDKey).(string)
		c.JSON(http.StatusOK, gin.H{"id": GetRequestID(c), "ctx": ctxID})
	})

	t.Run("generates", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, id, body["id"])
		assert.Equal(t, id, body["ctx"])
	})

	t.Run("reuses incoming", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Format: "json"}, &buf)

	router := gin.New()
	router.Use(RequestID(), Recovery(log))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	requestID := w.Header().Get(RequestIDHeader)
	assert.Contains(t, w.Body.String(), requestID)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "handler panicked", entry["msg"])
	assert.Equal(t, "boom", entry["panic"])
	assert.Equal(t, "/panic", entry["route"])
	assert.Equal(t, requestID, entry["request_id"])
	assert.NotEmpty(t, entry["stack"])
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Format: "json"}, &buf)

	router := gin.New()
	router.Use(RequestID(), RequestLogger(log))
	router.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing?x=1", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, "x=1", entry["query"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestRequestContextReachesComponentLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Format: "json"}, &buf)
	userID := uuid.New()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/work", func(c *gin.Context) {
		SetUserID(c, userID)
		// Components only see the context, never the gin request.
		doWork := func(ctx context.Context) { log.InfoContext(ctx, "component step") }
		doWork(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/work", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "component step", entry["msg"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, userID.String(), entry["user_id"])
}

func TestRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(NewRateLimiter(0.001, 3), discardLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do("192.168.1.1"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, do("192.168.1.1"))

	// Separate bucket per IP.
	assert.Equal(t, http.StatusOK, do("192.168.1.2"))
}

type stubVerifier struct {
	userID uuid.UUID
	err    error
}

func (s stubVerifier) VerifyAccessToken(token string) (uuid.UUID, error) {
	if token != "good" {
		return uuid.Nil, errors.New("bad token")
	}
	return s.userID, s.err
}

func authRouter(store sessions.Store, v TokenVerifier) *gin.Engine {
	router := gin.New()
	router.Use(Auth(store, v))
	router.GET("/me", func(c *gin.Context) {
		id, ok := UserID(c)
		ctxID, _ := c.Request.Context().Value(logger.UserIDKey).(string)
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "ok": ok, "ctx": ctxID})
	})
	return router
}

func TestAuth_Bearer(t *testing.T) {
	userID := uuid.New()
	router := authRouter(nil, stubVerifier{userID: userID})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"missing token", "Bearer", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), userID.String())
			}
		})
	}
}

func TestAuth_Session(t *testing.T) {
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	userID := uuid.New()
	router := authRouter(store, stubVerifier{})

	// Write a session cookie the way the OAuth callback does.
	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := store.Get(seed, SessionName)
	require.NoError(t, err)
	session.Values[SessionUserKey] = userID.String()
	require.NoError(t, session.Save(seed, rec))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["id"])
	assert.Equal(t, userID.String(), body["ctx"])
}

func TestAuth_Anonymous(t *testing.T) {
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	router := authRouter(store, stubVerifier{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication required")
}

func TestMetrics(t *testing.T) {
	m := metrics.NewNoop()
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+strings.Repeat("x", i+1), nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/items/:id", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "GET", "404")))
}

func TestTracing_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(Tracing("test"))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
