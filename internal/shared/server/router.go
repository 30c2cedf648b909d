package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solar-backend/internal/analyses"
	"solar-backend/internal/shared/config"
	"solar-backend/internal/shared/metrics"
	"solar-backend/internal/shared/server/middleware"
	"solar-backend/internal/shared/server/respond"
	"solar-backend/internal/sites"
)

// RouterDeps carries the handlers wired into the router.
type RouterDeps struct {
	Config          config.Config
	SitesHandler    *sites.Handler
	AnalysesHandler *analyses.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	authed := api.Group("")
	authed.Use(
		middleware.Identity(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 1, Burst: 60},
				"ANALYZE": {Rate: 10.0 / 60.0, Burst: 10},
				"POLL":    {Rate: 2, Burst: 120},
			},
			GroupFor: func(c *gin.Context) string {
				switch {
				case c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/sites/:id/analyze":
					return "ANALYZE"
				case c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/analyses/:id":
					return "POLL"
				default:
					return "DEFAULT"
				}
			},
		}),
	)

	if deps.SitesHandler != nil {
		deps.SitesHandler.RegisterRoutes(authed)
	}
	if deps.AnalysesHandler != nil {
		deps.AnalysesHandler.RegisterRoutes(authed)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
