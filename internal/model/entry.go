package model

import "time"

// Entry is a video submission to a challenge, a row of the `entries` table.
// Games and challenges are only ever read through repository projections, so
// Entry is the single domain row type next to User and Token.
type Entry struct {
	ID          int64     // entries.entry_id
	Title       string    // entries.title
	VideoURL    string    // entries.video_url
	ChallengeID int64     // entries.challenge_id
	UserID      int64     // entries.user_id (author)
	CreatedAt   time.Time // entries.created_at
	UpdatedAt   time.Time // entries.updated_at
}
