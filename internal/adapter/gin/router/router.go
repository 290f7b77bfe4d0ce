package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"userboard-api/api/swagger"
	"userboard-api/internal/adapter/gin/handler"
	"userboard-api/internal/adapter/gin/middleware"
	"userboard-api/pkg/metrics"
)

// Options holds the optional parts of the router. Nil fields are disabled.
type Options struct {
	AllowedOrigins []string
	// TrustedProxies may set the client IP through forwarding headers.
	// None are trusted when empty.
	TrustedProxies []string
	Metrics        metrics.Recorder
	Gatherer       prometheus.Gatherer
	RateLimiter    middleware.Limiter
}

// SetupRouter configures the Gin engine with all routes and middleware and
// wraps it with the CORS policy.
func SetupRouter(
	userHandler *handler.UserHandler,
	systemHandler *handler.SystemHandler,
	sessions middleware.SessionOpener,
	opts Options,
	log *zap.Logger,
) http.Handler {
	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", zap.Strings("proxies", opts.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}
	router.Use(middleware.Recovery(log))
	if opts.RateLimiter != nil {
		router.Use(middleware.RateLimiter(opts.RateLimiter, log))
	}

	router.GET("/", systemHandler.Root)
	router.GET("/health", systemHandler.Health)

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}

	// API docs
	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", swagger.Spec)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	// Routes backed by the store get a session per request
	store := router.Group("", middleware.Session(sessions, log))
	{
		store.GET("/users", userHandler.ListUsers)
		store.POST("/users/create", userHandler.CreateUser)
		store.DELETE("/user", userHandler.DeleteUser)
	}

	return cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.HeaderRequestID},
		AllowCredentials: true,
	}).Handler(router)
}
