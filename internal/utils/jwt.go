package utils // package utils provides token minting, verification and hashing helpers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gamerchallenges/api/internal/model"
)

// Identity is the validated payload carried by an access token. It is what
// the auth middleware attaches to the request context.
type Identity struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// AuthToken pairs a credential string with its type and lifetime. Access
// tokens are signed JWTs; refresh tokens are opaque random values whose only
// server-side meaning is the row persisted for them.
type AuthToken struct {
	Token     string
	Type      string
	ExpiresIn time.Duration
}

// GenerateAuthenticationTokens mints the access/refresh pair for a user.
// Pure: persisting the refresh token is the caller's responsibility.
func GenerateAuthenticationTokens(secret string, u model.User, accessTTL, refreshTTL time.Duration) (AuthToken, AuthToken, error) {
	access, err := GenerateAccessTokenOnly(secret, u, accessTTL)
	if err != nil {
		return AuthToken{}, AuthToken{}, err
	}

	// 128 random bytes, base64-encoded. Opaque on purpose: unlike a JWT it
	// can be unilaterally revoked by deleting its row.
	buf := make([]byte, 128)
	if _, err := rand.Read(buf); err != nil {
		return AuthToken{}, AuthToken{}, err
	}
	refresh := AuthToken{
		Token:     base64.StdEncoding.EncodeToString(buf),
		Type:      "Bearer",
		ExpiresIn: refreshTTL,
	}
	return access, refresh, nil
}

// GenerateAccessTokenOnly signs an HS256 JWT carrying {id, role}. Used on its
// own when rotating access tokens from a still-valid refresh token.
func GenerateAccessTokenOnly(secret string, u model.User, ttl time.Duration) (AuthToken, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"id":   u.ID,
		"role": u.Role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AuthToken{}, err
	}
	return AuthToken{Token: signed, Type: "Bearer", ExpiresIn: ttl}, nil
}

// DecodeJWT verifies signature and expiry, then checks the payload shape:
// a positive integer id and a role string. Any failure (empty input,
// malformed token, expired, signature mismatch, bad payload) yields nil so
// optional-auth routes can degrade to anonymous instead of erroring.
func DecodeJWT(secret, token string) *Identity {
	if token == "" {
		return nil
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id, ok := claims["id"].(float64)
	if !ok || id < 1 || id != float64(int64(id)) {
		return nil
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil
	}
	return &Identity{ID: int64(id), Role: role}
}

// NewResetToken returns a hex-encoded password-reset token with 256 bits of
// entropy.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
