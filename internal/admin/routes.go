package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/arenshaw/reactorlb/internal/admin/handlers"
	"github.com/arenshaw/reactorlb/internal/admin/middleware"
	"github.com/arenshaw/reactorlb/internal/config"
)

// RegisterRoutes wires the admin API's read-only diagnostic endpoints.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	api := r.Group("/api/v1")

	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/pool", h.Pool)
}
