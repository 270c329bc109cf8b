package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/handler"
	"github.com/gamerchallenges/api/internal/middleware"
	"github.com/gamerchallenges/api/internal/model"
)

// RegisterMember registers the write endpoints under /api. Every route
// requires a valid access token and one of the known roles; ownership rules
// for entry updates are enforced inside the handlers.
func RegisterMember(e *echo.Echo, ch *handler.ChallengeHandler, en *handler.EntryHandler, jwtSecret string) {
	g := e.Group(
		"/api",
		middleware.VerifyToken(jwtSecret, true),
		middleware.RequireRole(model.RoleAdmin, model.RoleMember),
	)

	g.POST("/challenges", ch.Create)
	g.POST("/challenges/:challengeId/vote", ch.Vote)
	g.POST("/challenges/:challengeId/entries", en.Create)

	g.PATCH("/entries/:entryId", en.Update)
	g.DELETE("/entries/:entryId", en.Delete)
	g.POST("/entries/:entryId/vote", en.Vote)
}
