package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/middleware"
	"github.com/gamerchallenges/api/internal/model"
	"github.com/gamerchallenges/api/internal/repository"
	"github.com/gamerchallenges/api/internal/validation"
)

// EntryHandler serves video entries submitted to challenges.
type EntryHandler struct {
	Entries    *repository.EntryRepo
	Challenges *repository.ChallengeRepo
	Votes      *repository.VoteRepo
}

func NewEntryHandler(e *repository.EntryRepo, ch *repository.ChallengeRepo, v *repository.VoteRepo) *EntryHandler {
	return &EntryHandler{Entries: e, Challenges: ch, Votes: v}
}

// MostLiked returns the 3 entries with the most votes.
func (h *EntryHandler) MostLiked(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	data, err := h.Entries.MostLiked(ctx, 3)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// ListByChallenge returns a challenge's entries, newest first.
func (h *EntryHandler) ListByChallenge(c echo.Context) error {
	challengeID := pathID(c, "challengeId")
	if challengeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid challenge id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Challenges.Exists(ctx, challengeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "challenge not found"})
	}

	data, err := h.Entries.ListByChallenge(ctx, challengeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// Create submits an entry to a challenge for the authenticated user.
func (h *EntryHandler) Create(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	challengeID := pathID(c, "challengeId")
	if challengeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid challenge id"})
	}
	var req validation.EntryInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := validation.ValidateEntry(req); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Challenges.Exists(ctx, challengeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "challenge not found"})
	}

	id, err := h.Entries.Create(ctx, req.Title, req.VideoURL, challengeID, ident.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create entry failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": echo.Map{
		"entry_id":     id,
		"title":        req.Title,
		"video_url":    req.VideoURL,
		"challenge_id": challengeID,
		"user_id":      ident.ID,
	}})
}

// Update rewrites an entry. Only the author or an admin may do so.
func (h *EntryHandler) Update(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	entryID := pathID(c, "entryId")
	if entryID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}
	var req validation.EntryInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := validation.ValidateEntry(req); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entry, err := h.loadOwned(ctx, entryID, ident.ID, ident.Role)
	if err != nil {
		return h.ownedError(c, err)
	}
	if err := h.Entries.Update(ctx, entry.ID, req.Title, req.VideoURL); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update entry failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "entry updated"})
}

// Delete removes an entry and its votes. Only the author or an admin.
func (h *EntryHandler) Delete(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	entryID := pathID(c, "entryId")
	if entryID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entry, err := h.loadOwned(ctx, entryID, ident.ID, ident.Role)
	if err != nil {
		return h.ownedError(c, err)
	}
	if err := h.Entries.Delete(ctx, entry.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete entry failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Vote toggles the authenticated user's vote on an entry.
func (h *EntryHandler) Vote(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	entryID := pathID(c, "entryId")
	if entryID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Entries.GetByID(ctx, entryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	voted, err := h.Votes.ToggleEntryVote(ctx, ident.ID, entryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vote failed"})
	}
	votes, err := h.Votes.CountEntryVotes(ctx, entryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"voted": voted, "votes": votes})
}

// loadOwned fetches an entry and checks write access for the caller.
func (h *EntryHandler) loadOwned(ctx context.Context, entryID, userID int64, role string) (model.Entry, error) {
	entry, err := h.Entries.GetByID(ctx, entryID)
	if err != nil {
		return model.Entry{}, err
	}
	if entry.UserID != userID && role != model.RoleAdmin {
		return model.Entry{}, repository.ErrForbidden
	}
	return entry, nil
}

func (h *EntryHandler) ownedError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
}
