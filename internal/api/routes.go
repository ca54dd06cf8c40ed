// Package api exposes the bridge, the redirect and the administrative
// endpoints over gin.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/config"
	"github.com/linkbridge/linkbridge/internal/logging"
	"github.com/linkbridge/linkbridge/internal/metrics"
	"github.com/linkbridge/linkbridge/internal/services"
)

// Dependencies are the services behind the HTTP surface.
type Dependencies struct {
	Bridge    *services.BridgeService
	Redirects *services.RedirectService
	Links     *services.LinkService
	Providers *services.ProviderService
	Logger    *zap.Logger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(logging.RequestID(), logging.AccessLog(deps.Logger), gin.Recovery(), metrics.Middleware())
	SetupRoutes(router, cfg, deps)
	return router
}

// SetupRoutes configures all routes on router.
func SetupRoutes(router *gin.Engine, cfg *config.Config, deps Dependencies) {
	// Browser callers reach the bridge and health routes from any origin.
	open := router.Group("", corsMiddleware(cfg.CORS))
	{
		open.GET("/health", HealthCheckHandler)
		open.OPTIONS("/health", noContent)
		open.GET("/api/bridge", BridgeHandler(deps.Bridge, deps.Logger))
		open.POST("/api/bridge", BridgeHandler(deps.Bridge, deps.Logger))
		open.OPTIONS("/api/bridge", noContent)
	}

	router.GET("/start/:token", RedirectHandler(deps.Redirects, deps.Logger))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	admin := router.Group("/api/v1")
	if cfg.Auth.Enabled {
		admin.Use(APIKeyAuth(cfg.Auth.APIKey))
	}
	{
		admin.GET("/links", ListLinksHandler(deps.Links, deps.Logger))
		admin.GET("/links/:token/stats", GetLinkStatsHandler(deps.Links, deps.Logger))
		admin.GET("/providers", ListProvidersHandler(deps.Providers, deps.Logger))
		admin.POST("/providers", CreateProviderHandler(deps.Providers, deps.Logger))
		admin.DELETE("/providers/:name", DeleteProviderHandler(deps.Providers, deps.Logger))
		admin.POST("/providers/test", ProbeProviderHandler(deps.Bridge, deps.Logger))
	}
}

func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", logging.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	all := len(cfg.AllowedOrigins) == 0
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			all = true
		}
	}
	if all {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(c)
}

func noContent(c *gin.Context) {
	c.Status(204)
}
