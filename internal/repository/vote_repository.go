package repository

import (
	"context"
	"database/sql"
)

// VoteRepo owns the vote_user_challenge and vote_user_entry join tables.
// Votes are toggles: voting twice removes the vote.
type VoteRepo struct{ DB *sql.DB }

func NewVoteRepo(db *sql.DB) *VoteRepo { return &VoteRepo{DB: db} }

// ToggleChallengeVote flips the user's vote on a challenge and reports the
// resulting state (true = vote now present).
func (r *VoteRepo) ToggleChallengeVote(ctx context.Context, userID, challengeID int64) (bool, error) {
	return r.toggle(ctx,
		"DELETE FROM vote_user_challenge WHERE user_id=? AND challenge_id=?",
		"INSERT INTO vote_user_challenge (user_id, challenge_id) VALUES (?,?)",
		userID, challengeID)
}

// ToggleEntryVote flips the user's vote on an entry.
func (r *VoteRepo) ToggleEntryVote(ctx context.Context, userID, entryID int64) (bool, error) {
	return r.toggle(ctx,
		"DELETE FROM vote_user_entry WHERE user_id=? AND entry_id=?",
		"INSERT INTO vote_user_entry (user_id, entry_id) VALUES (?,?)",
		userID, entryID)
}

// CountChallengeVotes returns the number of votes on a challenge.
func (r *VoteRepo) CountChallengeVotes(ctx context.Context, challengeID int64) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vote_user_challenge WHERE challenge_id=?", challengeID).Scan(&n)
	return n, err
}

// CountEntryVotes returns the number of votes on an entry.
func (r *VoteRepo) CountEntryVotes(ctx context.Context, entryID int64) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vote_user_entry WHERE entry_id=?", entryID).Scan(&n)
	return n, err
}

// toggle deletes the vote row first; if nothing was deleted the vote did not
// exist and is inserted instead. The unique (user, target) key keeps a racing
// double-insert from producing two rows.
func (r *VoteRepo) toggle(ctx context.Context, deleteStmt, insertStmt string, userID, targetID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, deleteStmt, userID, targetID)
	if err != nil {
		return false, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if deleted > 0 {
		return false, nil
	}
	if _, err := r.DB.ExecContext(ctx, insertStmt, userID, targetID); err != nil {
		return false, err
	}
	return true, nil
}
