package handler

import (
	"payment-reconciler/internal/adapter/http/middleware"
	redisStore "payment-reconciler/internal/adapter/storage/redis"
	"payment-reconciler/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ReconcileSvc   ports.ReconcileService
	OrderSvc       ports.OrderService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	MetricsReg     *prometheus.Registry // nil = /metrics disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	if deps.MetricsReg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsReg, promhttp.HandlerOpts{})))
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	callbackHandler := NewCallbackHandler(deps.ReconcileSvc)
	payments := v1.Group("/payments")
	{
		payments.GET("/return", rl("callback"), callbackHandler.HandleReturn)
	}

	orderHandler := NewOrderHandler(deps.OrderSvc)
	orders := v1.Group("/orders")
	{
		orders.POST("", rl("orders"), orderHandler.PlaceOrder)
		orders.GET("/:id", orderHandler.GetOrder)
	}

	return r
}
