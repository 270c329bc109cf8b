package model

import (
	"database/sql"
	"time"
)

// Roles recognised by the authorization layer. These match the values stored
// in users.role.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Token type markers stored in tokens.token_type. A user holds at most one
// live "refresh" token; "forgot_pswd" tokens are single-use and short-lived.
const (
	TokenTypeRefresh    = "refresh"
	TokenTypeForgotPswd = "forgot_pswd"
)

// User represents a row of the `users` table. Soft-deleted accounts keep
// their row (DeletedAt set, pseudo/email anonymized) so challenges, entries
// and votes they created stay attached.
type User struct {
	ID           int64        // users.user_id
	Pseudo       string       // users.pseudo (unique)
	Email        string       // users.email (unique)
	PasswordHash string       // users.password (argon2id encoded)
	Avatar       string       // users.avatar (URL, may be empty)
	Role         string       // users.role (admin | member)
	CreatedAt    time.Time    // users.created_at
	UpdatedAt    time.Time    // users.updated_at
	DeletedAt    sql.NullTime // users.deleted_at (null while active)
}

// Token models a row of the `tokens` table, used both for refresh tokens and
// password-reset tokens. The opaque value itself is the lookup key; expiry is
// checked lazily at use time, there is no background sweep.
type Token struct {
	ID        int64     // tokens.id
	Token     string    // tokens.token (opaque random value)
	TokenType string    // tokens.token_type (refresh | forgot_pswd)
	UserID    int64     // tokens.user_id
	IssuedAt  time.Time // tokens.issued_at
	ExpiresAt time.Time // tokens.expires_at
}
