package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gamerchallenges/api/internal/model"
)

// EntryRepo owns rows of the `entries` table.
type EntryRepo struct{ DB *sql.DB }

func NewEntryRepo(db *sql.DB) *EntryRepo { return &EntryRepo{DB: db} }

// EntryRow is the public projection of an entry with its author.
type EntryRow struct {
	ID       int64  `json:"entry_id"`
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
	Pseudo   string `json:"pseudo"`
	Avatar   string `json:"avatar"`
}

// LikedEntryRow is an entry ranked by vote count.
type LikedEntryRow struct {
	ID     int64  `json:"entry_id"`
	Title  string `json:"title"`
	Pseudo string `json:"pseudo"`
	Avatar string `json:"avatar"`
	Votes  int64  `json:"votes"`
}

// ListByChallenge returns the entries of a challenge, newest first.
func (r *EntryRepo) ListByChallenge(ctx context.Context, challengeID int64) ([]EntryRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT e.entry_id, e.title, e.video_url, u.pseudo, u.avatar
		FROM entries e
		JOIN users u ON u.user_id = e.user_id
		WHERE e.challenge_id = ?
		ORDER BY e.created_at DESC`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []EntryRow{}
	for rows.Next() {
		var e EntryRow
		if err := rows.Scan(&e.ID, &e.Title, &e.VideoURL, &e.Pseudo, &e.Avatar); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MostLiked returns the n entries with the most votes and their authors.
func (r *EntryRepo) MostLiked(ctx context.Context, n int) ([]LikedEntryRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT e.entry_id, e.title, u.pseudo, u.avatar, COUNT(v.user_id) AS votes
		FROM entries e
		JOIN users u ON u.user_id = e.user_id
		LEFT JOIN vote_user_entry v ON v.entry_id = e.entry_id
		GROUP BY e.entry_id, e.title, u.pseudo, u.avatar
		ORDER BY votes DESC, e.entry_id ASC
		LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LikedEntryRow{}
	for rows.Next() {
		var e LikedEntryRow
		if err := rows.Scan(&e.ID, &e.Title, &e.Pseudo, &e.Avatar, &e.Votes); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts an entry and returns its id.
func (r *EntryRepo) Create(ctx context.Context, title, videoURL string, challengeID, userID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO entries (title, video_url, challenge_id, user_id) VALUES (?,?,?,?)",
		title, videoURL, challengeID, userID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByID fetches one entry, translating an empty result into ErrNotFound.
func (r *EntryRepo) GetByID(ctx context.Context, id int64) (model.Entry, error) {
	var e model.Entry
	err := r.DB.QueryRowContext(ctx,
		"SELECT entry_id, title, video_url, challenge_id, user_id, created_at, updated_at FROM entries WHERE entry_id=? LIMIT 1", id).
		Scan(&e.ID, &e.Title, &e.VideoURL, &e.ChallengeID, &e.UserID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

// Update rewrites an entry's title and video URL.
func (r *EntryRepo) Update(ctx context.Context, id int64, title, videoURL string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE entries SET title=?, video_url=?, updated_at=NOW() WHERE entry_id=?",
		title, videoURL, id)
	return err
}

// Delete removes an entry and its votes.
func (r *EntryRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vote_user_entry WHERE entry_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE entry_id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}
