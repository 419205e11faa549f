package store

import "time"

type User struct {
	ID             int64     `db:"id" json:"id"`
	ExternalUserID string    `db:"external_user_id" json:"user_id"`
	DisplayName    string    `db:"display_name" json:"username"`
	PasswordHash   string    `db:"password_hash" json:"-"` // Do not expose this in JSON responses
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type Message struct {
	ID        string    `db:"id" json:"-"` // UUID, internal only
	UserID    int64     `db:"user_id" json:"-"`
	Role      string    `db:"role" json:"role"` // "user" or "assistant"
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DiaryEntry is the consolidated record for one user and one calendar day.
// EntryDate is the canonical diary day (UTC, YYYY-MM-DD); at most one entry
// may exist per (UserID, EntryDate), enforced by a unique constraint.
type DiaryEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	EntryDate string    `db:"entry_date" json:"date"`
	Content   string    `db:"content" json:"content"`
	Summary   string    `db:"summary" json:"summary"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
