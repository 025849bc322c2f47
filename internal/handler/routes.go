package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scrumtogether/scrumtogether-api/internal/server/middleware"
)

// RegisterRoutes wires all handlers onto the engine. Sign-in and registration
// are public; everything else under /api/v1 requires an authenticated
// principal.
func RegisterRoutes(r *gin.Engine, auth *AuthHandler, users *UserHandler, teams *TeamHandler) {
	r.GET("/health", health)

	api := r.Group("/api/v1")
	api.POST("/register", auth.Register)
	api.POST("/sign-in", auth.SignIn)

	protected := api.Group("", middleware.RequireAuth())

	protected.GET("/users", users.List)
	protected.GET("/users/:id", users.Get)
	protected.PUT("/users/:id", users.Update)
	protected.DELETE("/users/:id", users.Delete)
	protected.POST("/users/:id/restore", users.Restore)

	protected.GET("/teams", teams.List)
	protected.GET("/teams/:id", teams.Get)
	protected.POST("/teams", teams.Create)
	protected.PUT("/teams/:id", teams.Update)
	protected.DELETE("/teams/:id", teams.Delete)
}

// health is the liveness endpoint.
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
