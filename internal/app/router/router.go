package router

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	detectionhandler "phish_backend/internal/feature/detection/transport/handler"
	jwtmw "phish_backend/internal/platform/jwt"
)

// Options control the optional parts of the router.
type Options struct {
	// JWTSecret enables bearer authentication of the /v2 group when set.
	JWTSecret string
	Logger    *slog.Logger
}

func NewRouter(health gin.HandlerFunc, detection *detectionhandler.DetectionHandler, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(opts.Logger))

	// liveness and dependency checks
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)

	v2 := r.Group("/v2")
	if opts.JWTSecret != "" {
		// identity is taken from the token subject
		v2.Use(jwtmw.AuthRequired(opts.JWTSecret))
	}
	{
		v2.POST("/check", detection.Check)
		v2.POST("/state", detection.State)
		v2.GET("/capabilities", detection.Capabilities)
		v2.PUT("/settings", detection.PutSettings)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
