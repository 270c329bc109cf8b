package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/handler"
	"github.com/gamerchallenges/api/internal/middleware"
)

// RegisterRoutes registers routes that do not belong to any API group.
// Currently it exposes only a health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication routes under /api/auth. The
// refresh cookie is scoped to that prefix, so every endpoint that reads it
// (logout, refresh) has to live here as well.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.POST("/refresh", a.RefreshAccessToken)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	// Session-bound endpoints require a valid access token.
	auth := e.Group("/api/auth", middleware.VerifyToken(jwtSecret, true))
	auth.GET("/me", a.Me)
	auth.PATCH("/delete/:userId", a.SoftDelete)
}
