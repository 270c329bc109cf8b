// Package middleware provides request processing shared across routes:
// cookie-based JWT verification, role enforcement, rate limiting and
// response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gamerchallenges/api/internal/utils"
)

// identityKey is the context key under which VerifyToken stores the decoded
// identity.
const identityKey = "identity"

// VerifyToken returns middleware that reads the accessToken cookie, verifies
// it and attaches the decoded identity to the request context. It never
// touches the database.
//
// With validityRequired=true a missing cookie is rejected with 401
// (authentication required) and an invalid or expired token with 401
// (invalid token). With validityRequired=false both cases fall through as
// anonymous: the route runs with no identity attached.
func VerifyToken(secret string, validityRequired bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var ident *utils.Identity
			if cookie, err := c.Cookie(utils.AccessTokenCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
				ident = utils.DecodeJWT(secret, cookie.Value)
				if ident == nil && validityRequired {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
				}
			}
			if validityRequired && ident == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if ident != nil {
				c.Set(identityKey, ident)
			}
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity attached by VerifyToken, or nil when
// the request is anonymous.
func CurrentIdentity(c echo.Context) *utils.Identity {
	if ident, ok := c.Get(identityKey).(*utils.Identity); ok {
		return ident
	}
	return nil
}

// RequireRole returns middleware that rejects requests whose identity's role
// is not in the allowed set. It expects VerifyToken(secret, true) to have run
// first; a missing identity is a 401, a wrong role a 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := CurrentIdentity(c)
			if ident == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !allowed[ident.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}
			return next(c)
		}
	}
}
