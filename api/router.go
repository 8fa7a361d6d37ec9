package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/notemedia/api/handler"
	"github.com/use-agent/notemedia/api/middleware"
	"github.com/use-agent/notemedia/config"
)

// NewRouter creates the gin engine.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so probes always work. ctx bounds background
// goroutines started by middleware.
func NewRouter(ctx context.Context, cfg *config.Config, f handler.Fetcher, media *handler.Media, batches *handler.Batches, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(f, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.POST("/media", media.PostMedia())
	protected.POST("/batch/media", batches.PostBatch())
	protected.GET("/batch/:id", batches.GetBatch())

	return r
}
