package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateUser is returned when a registration collides with an
// existing external_user_id.
var ErrDuplicateUser = errors.New("user id already exists")

// sqliteTimeLayout keeps stored timestamps in a form SQLite's date()
// function can parse. All timestamps are stored in UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

type Store struct {
	db *sqlx.DB
}

func Open(dataSourceName string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_user_id TEXT UNIQUE NOT NULL,
        display_name TEXT NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS diaries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        entry_date TEXT NOT NULL, -- canonical diary day, UTC YYYY-MM-DD
        content TEXT NOT NULL,
        summary TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        UNIQUE (user_id, entry_date),
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *Store) CreateUser(ctx context.Context, externalUserID, displayName, passwordHash string) (*User, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (external_user_id, display_name, password_hash) VALUES (?, ?, ?)",
		externalUserID, displayName, passwordHash)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetUserByExternalID(ctx context.Context, externalUserID string) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user,
		"SELECT id, external_user_id, display_name, password_hash, created_at FROM users WHERE external_user_id = ?",
		externalUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user,
		"SELECT id, external_user_id, display_name, password_hash, created_at FROM users WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (s *Store) UpdateDisplayName(ctx context.Context, userID int64, displayName string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET display_name = ? WHERE id = ?", displayName, userID)
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user not found, display name not updated")
	}
	return nil
}

// Message methods

func (s *Store) InsertMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, user_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID int64) ([]Message, error) {
	var messages []Message
	err := s.db.SelectContext(ctx, &messages,
		"SELECT id, user_id, role, content, created_at FROM messages WHERE user_id = ? ORDER BY created_at ASC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}

func (s *Store) ListMessagesOnDate(ctx context.Context, userID int64, date string) ([]Message, error) {
	var messages []Message
	err := s.db.SelectContext(ctx, &messages,
		"SELECT id, user_id, role, content, created_at FROM messages WHERE user_id = ? AND date(created_at) = ? ORDER BY created_at ASC",
		userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages by date: %w", err)
	}
	return messages, nil
}

// ListUserAuthoredContents returns the content of every 'user' role message
// for the given user, in creation order.
func (s *Store) ListUserAuthoredContents(ctx context.Context, userID int64) ([]string, error) {
	var contents []string
	err := s.db.SelectContext(ctx, &contents,
		"SELECT content FROM messages WHERE user_id = ? AND role = 'user' ORDER BY created_at ASC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user messages: %w", err)
	}
	return contents, nil
}

func (s *Store) DeleteAllMessages(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages")
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Diary methods

// UpsertDiaryEntry writes the entry for (user_id, entry_date) in a single
// statement; the unique constraint makes the write atomic under concurrent
// requests. The returned flag reports whether a new row was created. On
// return e.ID is set to the row id.
func (s *Store) UpsertDiaryEntry(ctx context.Context, e *DiaryEntry) (bool, error) {
	var existingID int64
	err := s.db.GetContext(ctx, &existingID,
		"SELECT id FROM diaries WHERE user_id = ? AND entry_date = ?", e.UserID, e.EntryDate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check existing diary entry: %w", err)
	}
	created := errors.Is(err, sql.ErrNoRows)

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	row := s.db.QueryRowContext(ctx, `
        INSERT INTO diaries (user_id, entry_date, content, summary, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (user_id, entry_date) DO UPDATE SET
            content = excluded.content,
            summary = excluded.summary,
            created_at = excluded.created_at
        RETURNING id`,
		e.UserID, e.EntryDate, e.Content, e.Summary, e.CreatedAt.UTC().Format(sqliteTimeLayout))
	if err := row.Scan(&e.ID); err != nil {
		return false, fmt.Errorf("failed to upsert diary entry: %w", err)
	}
	return created, nil
}

func (s *Store) GetDiaryEntryByDate(ctx context.Context, userID int64, date string) (*DiaryEntry, error) {
	var entry DiaryEntry
	err := s.db.GetContext(ctx, &entry,
		"SELECT id, user_id, entry_date, content, summary, created_at FROM diaries WHERE user_id = ? AND entry_date = ?",
		userID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No entry for that date
		}
		return nil, fmt.Errorf("failed to query diary entry: %w", err)
	}
	return &entry, nil
}

func (s *Store) ListDiaryDates(ctx context.Context, userID int64) ([]string, error) {
	var dates []string
	err := s.db.SelectContext(ctx, &dates,
		"SELECT DISTINCT entry_date FROM diaries WHERE user_id = ? ORDER BY entry_date DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query diary dates: %w", err)
	}
	return dates, nil
}

func (s *Store) GetDiaryIDByDate(ctx context.Context, userID int64, date string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		"SELECT id FROM diaries WHERE user_id = ? AND entry_date = ? ORDER BY created_at ASC LIMIT 1",
		userID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil // Not found
		}
		return 0, fmt.Errorf("failed to query diary id: %w", err)
	}
	return id, nil
}

// DeleteDiaryEntry deletes the entry only when it belongs to userID and
// returns the number of rows removed.
func (s *Store) DeleteDiaryEntry(ctx context.Context, userID, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM diaries WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete diary entry: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
