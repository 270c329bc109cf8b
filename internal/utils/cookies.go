package utils

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/config"
)

// Cookie names used for the authentication pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// RefreshCookiePath restricts the refresh token cookie to the auth routes so
// it is never sent on unrelated requests.
const RefreshCookiePath = "/api/auth/"

// SetAccessTokenCookie writes the short-lived access token cookie, scoped to
// the whole API.
func SetAccessTokenCookie(c echo.Context, cfg config.Config, access AuthToken) {
	c.SetCookie(&http.Cookie{
		Name:     AccessTokenCookie,
		Value:    access.Token,
		Path:     "/",
		MaxAge:   int(access.ExpiresIn / time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetRefreshTokenCookie writes the long-lived refresh token cookie,
// path-restricted to the auth route prefix.
func SetRefreshTokenCookie(c echo.Context, cfg config.Config, refresh AuthToken) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refresh.Token,
		Path:     RefreshCookiePath,
		MaxAge:   int(refresh.ExpiresIn / time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookies expires both auth cookies. Attributes (including the
// refresh cookie path) must match the ones used when setting, otherwise
// clients will not actually drop them.
func ClearAuthCookies(c echo.Context, cfg config.Config) {
	c.SetCookie(&http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
