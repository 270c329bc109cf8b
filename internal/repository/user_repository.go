package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gamerchallenges/api/internal/model"
)

// UserRepo owns rows of the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "user_id, pseudo, email, password, avatar, role, created_at, updated_at, deleted_at"

// Create inserts a user with the member role and returns its id. The
// password must already be hashed.
func (r *UserRepo) Create(ctx context.Context, pseudo, email, passwordHash, avatar string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (pseudo, email, password, avatar, role) VALUES (?,?,?,?,?)",
		pseudo, email, passwordHash, avatar, model.RoleMember)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id=? LIMIT 1", id))
}

// FindConflicts reports whether the email or the pseudo is already taken.
// Both flags can be set at once so registration can report field-level
// conflicts in a single response.
func (r *UserRepo) FindConflicts(ctx context.Context, email, pseudo string) (emailTaken, pseudoTaken bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	rows, err := r.DB.QueryContext(ctx,
		"SELECT email, pseudo FROM users WHERE email=? OR pseudo=?", email, pseudo)
	if err != nil {
		return false, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var e, p string
		if err := rows.Scan(&e, &p); err != nil {
			return false, false, err
		}
		if e == email {
			emailTaken = true
		}
		if p == pseudo {
			pseudoTaken = true
		}
	}
	return emailTaken, pseudoTaken, rows.Err()
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password=?, updated_at=NOW() WHERE user_id=?", passwordHash, userID)
	return err
}

// SoftDelete anonymizes the account in place: pseudo/email get deterministic
// replacement values (unique thanks to the id and timestamp), the password
// becomes an unusable random hash, the avatar is cleared and deleted_at is
// stamped. The row itself stays so owned challenges and entries keep their
// author.
func (r *UserRepo) SoftDelete(ctx context.Context, userID int64, pseudo, email, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET pseudo=?, email=?, password=?, avatar='', deleted_at=NOW(), updated_at=NOW() WHERE user_id=?",
		pseudo, email, passwordHash, userID)
	return err
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Pseudo, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	return u, err
}
