package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/FACorreiaa/subscription-finder/pkg/middleware"
)

const serviceName = "subscription-finder"

// NewRouter builds the gin engine with every route and wraps it in CORS.
func NewRouter(d *Dependencies) http.Handler {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Logger),
		middleware.Tracing(serviceName),
		middleware.Metrics(d.Metrics),
		middleware.RequestLogger(d.Logger),
	)
	// Multipart parts beyond this spill to temp files.
	r.MaxMultipartMemory = 8 << 20

	limiter := middleware.NewRateLimiter(float64(d.Config.Server.RateLimitPerSecond), d.Config.Server.RateLimitBurst)
	limited := middleware.RateLimit(limiter, d.Logger)

	r.GET("/healthz", d.health)

	r.POST("/upload", limited, d.UploadHandler.Anonymous)

	pub := r.Group("/api")
	pub.GET("/catalog", d.CatalogHandler.List)
	pub.GET("/auth/login", d.AuthHandler.Login)
	pub.GET("/auth/callback", d.AuthHandler.Callback)
	pub.GET("/auth/logout", d.AuthHandler.Logout)

	authed := r.Group("/api", middleware.Auth(d.SessionStore, d.TokenManager))
	authed.POST("/upload", limited, d.UploadHandler.Authenticated)

	authed.GET("/subscriptions", d.SubscriptionsHandler.List)
	authed.POST("/subscriptions", d.SubscriptionsHandler.Create)
	authed.GET("/subscriptions/export", d.SubscriptionsHandler.Export)
	authed.PUT("/subscriptions/:id", d.SubscriptionsHandler.Update)
	authed.DELETE("/subscriptions/:id", d.SubscriptionsHandler.Delete)

	authed.GET("/analytics", d.SubscriptionsHandler.Analytics)
	authed.GET("/uploads", d.SubscriptionsHandler.Uploads)

	authed.GET("/user", d.UserHandler.GetProfile)
	authed.DELETE("/user", d.UserHandler.DeleteAccount)

	return cors.New(cors.Options{
		AllowedOrigins:   d.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(r)
}

func (d *Dependencies) health(c *gin.Context) {
	if d.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
