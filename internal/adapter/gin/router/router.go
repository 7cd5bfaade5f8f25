package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/polymorphisma/userhub/internal/adapter/gin/handler"
	"github.com/polymorphisma/userhub/internal/adapter/gin/middleware"
)

// Options carries the cross-cutting pieces the router wires into the
// middleware chain. Zero-valued fields disable the matching feature.
type Options struct {
	ServiceName    string
	TracerProvider trace.TracerProvider
	RedisClient    *redis.Client
	RateLimit      middleware.RateLimitConfig
}

// Setup builds the gin engine: tracing first so every downstream
// middleware and handler runs inside the request span, then request
// ID, recovery, access logging and rate limiting.
func Setup(h *handler.UserHandler, log *zap.Logger, opts Options) *gin.Engine {
	r := gin.New()

	otelOpts := []otelgin.Option{}
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelgin.WithTracerProvider(opts.TracerProvider))
	}
	r.Use(otelgin.Middleware(opts.ServiceName, otelOpts...))

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.RateLimiter(opts.RedisClient, opts.RateLimit, log))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"Hello": "World"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("", h.CreateUser)
			users.GET("", h.ListUsers)
			users.GET("/:id", h.GetUser)
			users.PUT("/:id", h.UpdateUser)
			users.DELETE("/:id", h.DeleteUser)
		}
	}

	return r
}
