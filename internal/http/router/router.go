package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/forge/common/metrics"
	"basegraph.app/forge/internal/http/handler"
	"basegraph.app/forge/internal/http/middleware"
)

type RouterConfig struct {
	ServiceName        string
	TracingEnabled     bool
	CORSAllowedOrigins []string
	RateLimitRPS       float64 // 0 disables the /generate limiter
	RateLimitBurst     int
}

// New builds the engine with the standard middleware stack. ctx bounds
// background work owned by middleware.
func New(ctx context.Context, gen handler.Generator, m *metrics.Metrics, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(m))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	SetupRoutes(ctx, router, gen, m, cfg)
	return router
}

func SetupRoutes(ctx context.Context, router *gin.Engine, gen handler.Generator, m *metrics.Metrics, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	schemaHandler := handler.NewSchemaHandler()
	SchemaRouter(router.Group("/schema"), schemaHandler)

	generateHandler := handler.NewGenerateHandler(gen)
	var limits []gin.HandlerFunc
	if cfg.RateLimitRPS > 0 {
		limits = append(limits, middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	GenerateRouter(router.Group("/generate", limits...), generateHandler)
}
