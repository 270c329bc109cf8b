package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/gamerchallenges/api/internal/model"
)

// TokenRepo owns rows of the `tokens` table, which holds both refresh tokens
// and single-use password-reset tokens, distinguished by token_type.
// Revocation is deletion; expiry is checked lazily by callers.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// ReplaceRefresh deletes every refresh token of the user and inserts the new
// one inside a single transaction, so concurrent logins cannot leave zero or
// duplicate rows. This is what enforces single-session-per-user.
func (r *TokenRepo) ReplaceRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tokens WHERE user_id=? AND token_type=?", userID, model.TokenTypeRefresh); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tokens (token, token_type, user_id, issued_at, expires_at) VALUES (?,?,?,?,?)",
		token, model.TokenTypeRefresh, userID, time.Now().UTC(), expiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateReset inserts a password-reset token row.
func (r *TokenRepo) CreateReset(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tokens (token, token_type, user_id, issued_at, expires_at) VALUES (?,?,?,?,?)",
		token, model.TokenTypeForgotPswd, userID, time.Now().UTC(), expiresAt)
	return err
}

// FindByToken looks up a token row by its opaque value and type marker.
// Returns sql.ErrNoRows when absent; the caller decides how to surface it.
func (r *TokenRepo) FindByToken(ctx context.Context, token, tokenType string) (model.Token, error) {
	var t model.Token
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, token_type, user_id, issued_at, expires_at FROM tokens WHERE token=? AND token_type=? LIMIT 1",
		token, tokenType).
		Scan(&t.ID, &t.Token, &t.TokenType, &t.UserID, &t.IssuedAt, &t.ExpiresAt)
	return t, err
}

// DeleteByID removes a token row, used when a reset token is consumed or a
// refresh token is found expired.
func (r *TokenRepo) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM tokens WHERE id=?", id)
	return err
}

// DeleteByToken removes any row matching the opaque value. Idempotent:
// deleting an absent token is a no-op, which is what logout needs.
func (r *TokenRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM tokens WHERE token=?", token)
	return err
}

// DeleteAllRefreshForUser revokes every session of a user, used by soft
// delete so an anonymized account cannot keep refreshing.
func (r *TokenRepo) DeleteAllRefreshForUser(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM tokens WHERE user_id=? AND token_type=?", userID, model.TokenTypeRefresh)
	return err
}
