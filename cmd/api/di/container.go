package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"userboard-api/cmd/api/infrastructure"
	"userboard-api/internal/adapter/db/postgres"
	"userboard-api/internal/adapter/db/session"
	ginhandler "userboard-api/internal/adapter/gin/handler"
	ginrouter "userboard-api/internal/adapter/gin/router"
	"userboard-api/internal/adapter/ratelimit"
	"userboard-api/internal/config"
	"userboard-api/internal/usecase/user"
	"userboard-api/pkg/metrics"
	redisclient "userboard-api/pkg/redis"
	"userboard-api/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	Sessions    *session.Factory
	RedisClient *redisclient.Client
	Registry    *prometheus.Registry
	Handler     http.Handler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	// Initialize database
	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db
	c.Sessions = session.NewFactory(db, l)

	opts := ginrouter.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.App.TrustedProxies,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		c.Registry = prometheus.NewRegistry()
		c.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Metrics = metrics.NewCollector(c.Registry)
		opts.Gatherer = c.Registry
	}

	// Initialize rate limiter
	if cfg.RateLimit.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb
		opts.RateLimiter = ratelimit.NewTokenBucket(rdb.Client, ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
		}, l)
	}

	// Each request gets a usecase bound to its own store session
	newUsecase := func(s *session.Session) user.Usecase {
		return user.New(postgres.NewUserRepoPG(s.DB(), l), l)
	}

	// Initialize Gin handlers
	userHandler := ginhandler.NewUserHandler(newUsecase, validation.New(), l)
	systemHandler := ginhandler.NewSystemHandler(cfg.App.Name, cfg.Logger.ServiceName, c.Sessions, l)

	c.Handler = ginrouter.SetupRouter(userHandler, systemHandler, c.Sessions, opts, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
