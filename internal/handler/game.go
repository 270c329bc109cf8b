package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/repository"
)

// GameHandler serves the public game catalog.
type GameHandler struct {
	Games *repository.GameRepo
}

func NewGameHandler(g *repository.GameRepo) *GameHandler { return &GameHandler{Games: g} }

// List returns all non-deleted games ordered by title.
func (h *GameHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	games, err := h.Games.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": games})
}
