package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/handler"
	"github.com/gamerchallenges/api/internal/middleware"
)

// RegisterBrowse registers the unauthenticated browse endpoints. Responses
// are identical for guests and members, so the whole group sits behind the
// shared Redis cache. Token verification runs in optional mode: a valid
// cookie attaches the identity, anything else passes through as a guest.
func RegisterBrowse(e *echo.Echo, g *handler.GameHandler, ch *handler.ChallengeHandler, en *handler.EntryHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	pub := e.Group("/api", middleware.VerifyToken(jwtSecret, false), cache)

	pub.GET("/games", g.List)

	pub.GET("/challenges", ch.List)
	pub.GET("/challenges/newest", ch.Newest)
	pub.GET("/challenges/most-liked", ch.MostLiked)
	pub.GET("/challenges/:challengeId/entries", en.ListByChallenge)

	pub.GET("/entries/most-liked", en.MostLiked)
}
