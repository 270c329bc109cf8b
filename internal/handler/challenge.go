package handler

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/middleware"
	"github.com/gamerchallenges/api/internal/repository"
	"github.com/gamerchallenges/api/internal/validation"
)

// ChallengeHandler serves challenge browsing, creation and voting.
type ChallengeHandler struct {
	Challenges *repository.ChallengeRepo
	Games      *repository.GameRepo
	Votes      *repository.VoteRepo
}

func NewChallengeHandler(ch *repository.ChallengeRepo, g *repository.GameRepo, v *repository.VoteRepo) *ChallengeHandler {
	return &ChallengeHandler{Challenges: ch, Games: g, Votes: v}
}

// List returns one page of challenges as {data, nbPages}.
func (h *ChallengeHandler) List(c echo.Context) error {
	page, limit := parsePagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	data, total, err := h.Challenges.ListPage(ctx, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	nbPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{"data": data, "nbPages": nbPages})
}

// Newest returns the 5 most recent challenges.
func (h *ChallengeHandler) Newest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	data, err := h.Challenges.Newest(ctx, 5)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// MostLiked returns the 3 challenges with the most votes.
func (h *ChallengeHandler) MostLiked(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	data, err := h.Challenges.MostLiked(ctx, 3)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// Create adds a challenge authored by the authenticated user.
func (h *ChallengeHandler) Create(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	var req validation.ChallengeInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := validation.ValidateChallenge(req); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Games.Exists(ctx, req.GameID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
	}

	id, err := h.Challenges.Create(ctx, req.Title, req.Description, req.Rules, req.GameID, ident.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create challenge failed"})
	}
	ch, err := h.Challenges.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load challenge failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": ch})
}

// Vote toggles the authenticated user's vote on a challenge and returns the
// new state with the updated count.
func (h *ChallengeHandler) Vote(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := pathID(c, "challengeId")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid challenge id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Challenges.Exists(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "challenge not found"})
	}

	voted, err := h.Votes.ToggleChallengeVote(ctx, ident.ID, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vote failed"})
	}
	votes, err := h.Votes.CountChallengeVotes(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"voted": voted, "votes": votes})
}
