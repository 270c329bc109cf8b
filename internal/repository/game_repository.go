package repository

import (
	"context"
	"database/sql"
)

// GameRow is the public projection of a game.
type GameRow struct {
	ID       int64  `json:"game_id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// GameRepo owns rows of the `games` table.
type GameRepo struct{ DB *sql.DB }

func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{DB: db} }

// List returns all non-deleted games ordered by title.
func (r *GameRepo) List(ctx context.Context) ([]GameRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT game_id, title, image_url FROM games WHERE deleted_at IS NULL ORDER BY title ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []GameRow{}
	for rows.Next() {
		var g GameRow
		if err := rows.Scan(&g.ID, &g.Title, &g.ImageURL); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Exists reports whether a non-deleted game with the id exists.
func (r *GameRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM games WHERE game_id=? AND deleted_at IS NULL", id).Scan(&n)
	return n > 0, err
}

// Upsert inserts a game unless one with the same title exists. Used by the
// seed command, which re-runs against an already seeded catalog.
func (r *GameRepo) Upsert(ctx context.Context, title, imageURL string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO games (title, image_url) VALUES (?,?)", title, imageURL)
	return err
}
