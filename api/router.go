package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kell-C/amazon-scraper/api/handler"
	"github.com/Kell-C/amazon-scraper/api/middleware"
	"github.com/Kell-C/amazon-scraper/cache"
	"github.com/Kell-C/amazon-scraper/config"
	"github.com/Kell-C/amazon-scraper/gate"
	"github.com/Kell-C/amazon-scraper/session"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(orch handler.Searcher, sessions *session.Manager, g *gate.Gate, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(sessions, startTime))

	// Protected group — auth + admission gate.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(g))

	protected.GET("/search", handler.Search(orch, cc))
	protected.POST("/search", handler.Search(orch, cc))

	return r
}
