package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/config"
	"github.com/gamerchallenges/api/internal/middleware"
	"github.com/gamerchallenges/api/internal/model"
	"github.com/gamerchallenges/api/internal/queue"
	"github.com/gamerchallenges/api/internal/repository"
	"github.com/gamerchallenges/api/internal/service"
	"github.com/gamerchallenges/api/internal/utils"
	"github.com/gamerchallenges/api/internal/validation"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// Identical for unknown email and wrong password so responses cannot be used
// to enumerate accounts.
const badCredentialsMsg = "email and password do not match"

// Same property for forgot-password: the response never reveals whether the
// email has an account.
const resetSentMsg = "a reset link has been sent to the provided email"

// ----- DTOs -----

type tokenPart struct {
	Token       string `json:"token"`
	Type        string `json:"type"`
	ExpiresInMS int64  `json:"expiresInMS"`
}

type userPart struct {
	ID     int64  `json:"id"`
	Pseudo string `json:"pseudo"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

type resetPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func asTokenPart(t utils.AuthToken) tokenPart {
	return tokenPart{Token: t.Token, Type: t.Type, ExpiresInMS: t.ExpiresIn.Milliseconds()}
}

func asUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Pseudo: u.Pseudo, Email: u.Email, Role: u.Role, Avatar: u.Avatar}
}

// Login verifies credentials, replaces the user's refresh token and sets the
// cookie pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req validation.LoginInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := validation.ValidateLogin(req); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": badCredentialsMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": badCredentialsMsg})
	}

	access, err := h.issueSession(ctx, c, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "logged in successfully",
		"accessToken": asTokenPart(access),
		"user":        asUserPart(u),
	})
}

// Register creates a user and logs them in immediately. Duplicate email and
// pseudo are reported per field, both at once when both collide.
func (h *AuthHandler) Register(c echo.Context) error {
	var req validation.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password != req.Confirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}
	if errs := validation.ValidateRegister(req); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	emailTaken, pseudoTaken, err := h.Users.FindConflicts(ctx, req.Email, req.Pseudo)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if emailTaken || pseudoTaken {
		conflicts := echo.Map{}
		if emailTaken {
			conflicts["email"] = "email already in use"
		}
		if pseudoTaken {
			conflicts["pseudo"] = "pseudo already in use"
		}
		return c.JSON(http.StatusConflict, echo.Map{"errors": conflicts})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	uid, err := h.Users.Create(ctx, req.Pseudo, req.Email, hash, req.Avatar)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, err := h.issueSession(ctx, c, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "user created successfully",
		"accessToken": asTokenPart(access),
		"user": echo.Map{
			"id":         u.ID,
			"pseudo":     u.Pseudo,
			"email":      u.Email,
			"role":       u.Role,
			"avatar":     u.Avatar,
			"created_at": u.CreatedAt,
			"updated_at": u.UpdatedAt,
		},
	})
}

// Logout deletes the refresh-token row named by the cookie, if any, and
// clears both cookies. Always 204, session or not.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	h.dropSession(ctx, c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's projection. 404 covers the edge where
// the user row vanished after the token was issued.
func (h *AuthHandler) Me(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, ident.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": asUserPart(u)})
}

// RefreshAccessToken exchanges a valid refresh-token cookie for a fresh
// access token. The refresh token is not rotated here; expiry is detected
// lazily and the dead row deleted on the spot.
func (h *AuthHandler) RefreshAccessToken(c echo.Context) error {
	cookie, err := c.Cookie(utils.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token missing"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tok, err := h.Tokens.FindByToken(ctx, cookie.Value, model.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if tok.ExpiresAt.Before(time.Now().UTC()) {
		_ = h.Tokens.DeleteByID(ctx, tok.ID)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired"})
	}

	u, err := h.Users.GetByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, err := utils.GenerateAccessTokenOnly(h.Cfg.JWTSecret, u, h.accessTTL())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	utils.SetAccessTokenCookie(c, h.Cfg, access)

	return c.JSON(http.StatusOK, echo.Map{"accessToken": asTokenPart(access)})
}

// ForgotPassword issues a short-lived reset token and hands the email off to
// the queue. The response is the same whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusOK, echo.Map{"message": resetSentMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	token, err := utils.NewResetToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	expiresAt := time.Now().UTC().Add(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
	if err := h.Tokens.CreateReset(ctx, u.ID, token, expiresAt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save token failed"})
	}

	// Delivery is the consumer's problem; the request never waits on the
	// broker and a publish failure only loses one email, already logged.
	ev := queue.PasswordResetRequestedEvent{
		Email:       u.Email,
		Token:       token,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = service.PublishPasswordReset(pubCtx, ev)
	}()

	return c.JSON(http.StatusOK, echo.Map{"message": resetSentMsg})
}

// ResetPassword consumes a reset token and applies the new password. An
// invalid or expired token halts the flow before anything is hashed or
// written.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password != req.Confirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tok, err := h.Tokens.FindByToken(ctx, req.Token, model.TokenTypeForgotPswd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if tok.ExpiresAt.Before(time.Now().UTC()) {
		_ = h.Tokens.DeleteByID(ctx, tok.ID)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.UpdatePassword(ctx, tok.UserID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	// Single use: the consumed token goes away even though it has not expired.
	if err := h.Tokens.DeleteByID(ctx, tok.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete token failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password reset, you can now log in"})
}

// SoftDelete anonymizes the caller's own account and terminates the session.
// Self-service only: no admin override on this route.
func (h *AuthHandler) SoftDelete(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if userID != ident.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "action not allowed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// A random hash nobody knows the preimage of keeps the column non-null
	// while making the account impossible to log into.
	random, err := utils.NewResetToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "anonymize failed"})
	}
	hash, err := utils.HashPassword(random)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "anonymize failed"})
	}

	pseudo := fmt.Sprintf("deleted_user(%d)", userID)
	email := fmt.Sprintf("deleted_user_%d_%d@deleted.com", userID, time.Now().UnixMilli())
	if err := h.Users.SoftDelete(ctx, userID, pseudo, email, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	if err := h.Tokens.DeleteAllRefreshForUser(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}

	h.dropSession(ctx, c)
	return c.NoContent(http.StatusNoContent)
}

// issueSession mints the token pair, replaces the refresh row (single active
// session per user) and sets both cookies.
func (h *AuthHandler) issueSession(ctx context.Context, c echo.Context, u model.User) (utils.AuthToken, error) {
	access, refresh, err := utils.GenerateAuthenticationTokens(h.Cfg.JWTSecret, u, h.accessTTL(), h.refreshTTL())
	if err != nil {
		return utils.AuthToken{}, err
	}
	expiresAt := time.Now().UTC().Add(refresh.ExpiresIn)
	if err := h.Tokens.ReplaceRefresh(ctx, u.ID, refresh.Token, expiresAt); err != nil {
		return utils.AuthToken{}, err
	}
	utils.SetAccessTokenCookie(c, h.Cfg, access)
	utils.SetRefreshTokenCookie(c, h.Cfg, refresh)
	return access, nil
}

// dropSession deletes the refresh row named by the cookie (no-op when absent)
// and clears both cookies with their exact set-time attributes.
func (h *AuthHandler) dropSession(ctx context.Context, c echo.Context) {
	if cookie, err := c.Cookie(utils.RefreshTokenCookie); err == nil && cookie.Value != "" {
		_ = h.Tokens.DeleteByToken(ctx, cookie.Value)
	}
	utils.ClearAuthCookies(c, h.Cfg)
}

func (h *AuthHandler) accessTTL() time.Duration {
	return time.Duration(h.Cfg.AccessTTLMin) * time.Minute
}

func (h *AuthHandler) refreshTTL() time.Duration {
	return time.Duration(h.Cfg.RefreshTTLDays) * 24 * time.Hour
}
