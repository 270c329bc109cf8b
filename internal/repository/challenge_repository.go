package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ChallengeRepo owns rows of the `challenges` table.
type ChallengeRepo struct{ DB *sql.DB }

func NewChallengeRepo(db *sql.DB) *ChallengeRepo { return &ChallengeRepo{DB: db} }

// ChallengeRow is the public projection of a challenge.
type ChallengeRow struct {
	ID          int64     `json:"challenge_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rules       string    `json:"rules"`
	GameID      int64     `json:"game_id"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// LikedChallengeRow is a challenge ranked by vote count, with the game
// artwork the frontend shows on the leaderboard.
type LikedChallengeRow struct {
	ID           int64  `json:"challenge_id"`
	Title        string `json:"title"`
	GameID       int64  `json:"game_id"`
	GameImageURL string `json:"game_image_url"`
	Votes        int64  `json:"votes"`
}

const challengeColumns = "challenge_id, title, description, rules, game_id, user_id, created_at"

// ListPage returns one page of challenges plus the total row count, newest
// first. Page and limit are assumed sanitized by the handler.
func (r *ChallengeRepo) ListPage(ctx context.Context, page, limit int) ([]ChallengeRow, int64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+challengeColumns+" FROM challenges ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []ChallengeRow{}
	for rows.Next() {
		var c ChallengeRow
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Rules, &c.GameID, &c.UserID, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM challenges").Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Newest returns the n most recently created challenges.
func (r *ChallengeRepo) Newest(ctx context.Context, n int) ([]ChallengeRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+challengeColumns+" FROM challenges ORDER BY created_at DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ChallengeRow{}
	for rows.Next() {
		var c ChallengeRow
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Rules, &c.GameID, &c.UserID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MostLiked returns the n challenges with the most votes, joined with their
// game's artwork.
func (r *ChallengeRepo) MostLiked(ctx context.Context, n int) ([]LikedChallengeRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.challenge_id, c.title, c.game_id, g.image_url, COUNT(v.user_id) AS votes
		FROM challenges c
		JOIN games g ON g.game_id = c.game_id
		LEFT JOIN vote_user_challenge v ON v.challenge_id = c.challenge_id
		GROUP BY c.challenge_id, c.title, c.game_id, g.image_url
		ORDER BY votes DESC, c.challenge_id ASC
		LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LikedChallengeRow{}
	for rows.Next() {
		var c LikedChallengeRow
		if err := rows.Scan(&c.ID, &c.Title, &c.GameID, &c.GameImageURL, &c.Votes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a challenge and returns its id.
func (r *ChallengeRepo) Create(ctx context.Context, title, description, rules string, gameID, userID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO challenges (title, description, rules, game_id, user_id) VALUES (?,?,?,?,?)",
		title, description, rules, gameID, userID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Exists reports whether a challenge with the id exists.
func (r *ChallengeRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM challenges WHERE challenge_id=?", id).Scan(&n)
	return n > 0, err
}

// GetByID fetches one challenge, translating an empty result into ErrNotFound.
func (r *ChallengeRepo) GetByID(ctx context.Context, id int64) (ChallengeRow, error) {
	var c ChallengeRow
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+challengeColumns+" FROM challenges WHERE challenge_id=? LIMIT 1", id).
		Scan(&c.ID, &c.Title, &c.Description, &c.Rules, &c.GameID, &c.UserID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}
