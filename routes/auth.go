package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/auth"
	"github.com/tienchung1704/real-dinhanstore/middleware"
)

// setupAuthRoutes registers token issuance and the one-time admin setup.
func setupAuthRoutes(r *gin.Engine, h *handlers) {
	authGroup := r.Group("/auth")
	authGroup.Use(middleware.ValidateAPIKey(h.Cfg.AdminAPIKey))
	{
		authGroup.POST("/sync", auth.SyncUser(h.DB, h.Tokens))
	}

	setup := r.Group("/setup")
	{
		setup.POST("/admin", auth.SetupAdmin(h.DB, h.Cfg.AdminSetupSecret))
		setup.GET("/admin", auth.ListAdmins(h.DB, h.Cfg.AdminSetupSecret))
	}
}
