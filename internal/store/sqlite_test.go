package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateUser(t *testing.T, s *Store, externalID string) *User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), externalID, "Test User", "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", externalID, err)
	}
	return user
}

func TestCreateUser_DuplicateExternalID(t *testing.T) {
	s := openTestStore(t)
	mustCreateUser(t, s, "alice")

	_, err := s.CreateUser(context.Background(), "alice", "Other", "hash2")
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestGetUserByExternalID_NotFound(t *testing.T) {
	s := openTestStore(t)

	user, err := s.GetUserByExternalID(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestInsertMessage_SetsIDAndTimestamp(t *testing.T) {
	s := openTestStore(t)
	user := mustCreateUser(t, s, "alice")

	msg := &Message{UserID: user.ID, Role: "user", Content: "hello"}
	if err := s.InsertMessage(context.Background(), msg); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("expected message id to be set")
	}
	if msg.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestListMessages_CreationOrder(t *testing.T) {
	s := openTestStore(t)
	user := mustCreateUser(t, s, "alice")

	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		msg := &Message{
			UserID:    user.ID,
			Role:      "user",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.InsertMessage(context.Background(), msg); err != nil {
			t.Fatalf("insert message %d: %v", i, err)
		}
	}

	messages, err := s.ListMessages(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Content != want {
			t.Fatalf("message %d: expected %q, got %q", i, want, messages[i].Content)
		}
	}
}

func TestListMessagesOnDate_FiltersByCalendarDay(t *testing.T) {
	s := openTestStore(t)
	user := mustCreateUser(t, s, "alice")
	other := mustCreateUser(t, s, "bob")

	insert := func(u int64, content string, at time.Time) {
		t.Helper()
		if err := s.InsertMessage(context.Background(), &Message{
			UserID: u, Role: "user", Content: content, CreatedAt: at,
		}); err != nil {
			t.Fatalf("insert %q: %v", content, err)
		}
	}

	insert(user.ID, "today", time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))
	insert(user.ID, "yesterday", time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC))
	insert(other.ID, "someone else", time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC))

	messages, err := s.ListMessagesOnDate(context.Background(), user.ID, "2026-08-31")
	if err != nil {
		t.Fatalf("list messages on date: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "today" {
		t.Fatalf("expected only the same-day message, got %+v", messages)
	}
}

func TestListUserAuthoredContents_SkipsAssistantTurns(t *testing.T) {
	s := openTestStore(t)
	user := mustCreateUser(t, s, "alice")

	base := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	turns := []Message{
		{UserID: user.ID, Role: "user", Content: "I had a long day", CreatedAt: base},
		{UserID: user.ID, Role: "assistant", Content: "Tell me more", CreatedAt: base.Add(time.Second)},
		{UserID: user.ID, Role: "user", Content: "Work was stressful", CreatedAt: base.Add(2 * time.Second)},
	}
	for i := range turns {
		if err := s.InsertMessage(context.Background(), &turns[i]); err != nil {
			t.Fatalf("insert turn %d: %v", i, err)
		}
	}

	contents, err := s.ListUserAuthoredContents(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list user contents: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 user messages, got %d", len(contents))
	}
	if contents[0] != "I had a long day" || contents[1] != "Work was stressful" {
		t.Fatalf("unexpected contents: %v", contents)
	}
}

func TestDeleteAllMessages(t *testing.T) {
	s := openTestStore(t)
	user := mustCreateUser(t, s, "alice")

	for i := 0; i < 3; i++ {
		if err := s.InsertMessage(context.Background(), &Message{
			UserID: user.ID, Role: "user", Content: "x",
		}); err != nil {
			t.Fatalf("insert message: %v", err)
		}
	}

	deleted, err := s.DeleteAllMessages(context.Background())
	if err != nil {
		t.Fatalf("delete all messages: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}

	messages, err := s.ListMessages(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages after purge, got %d", len(messages))
	}
}

func TestUpsertDiaryEntry_CreateThenUpdate(t *testing.T) {
	s := openTestStore(t)
	user := mustCreateUser(t, s, "alice")

	first := &DiaryEntry{
		UserID:    user.ID,
		EntryDate: "2026-08-31",
		Content:   "first text",
		Summary:   "<p>first</p>",
	}
	created, err := s.UpsertDiaryEntry(context.Background(), first)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Fatal("expected first upsert to create")
	}
	if first.ID == 0 {
		t.Fatal("expected id to be set")
	}

	second := &DiaryEntry{
		UserID:    user.ID,
		EntryDate: "2026-08-31",
		Content:   "second text",
		Summary:   "<p>second</p>",
	}
	created, err = s.UpsertDiaryEntry(context.Background(), second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("expected second upsert to update, not create")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row id, got %d and %d", first.ID, second.ID)
	}

	entry, err := s.GetDiaryEntryByDate(context.Background(), user.ID, "2026-08-31")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry")
	}
	if entry.Summary != "<p>second</p>" || entry.Content != "second text" {
		t.Fatalf("expected second write to win, got %+v", entry)
	}

	dates, err := s.ListDiaryDates(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list dates: %v", err)
	}
	if len(dates) != 1 {
		t.Fatalf("expected exactly one entry for the day, got dates %v", dates)
	}
}

func TestListDiaryDates_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	user := mustCreateUser(t, s, "alice")

	for _, date := range []string{"2026-08-29", "2026-08-31", "2026-08-30"} {
		e := &DiaryEntry{UserID: user.ID, EntryDate: date, Content: "c", Summary: "s"}
		if _, err := s.UpsertDiaryEntry(context.Background(), e); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	dates, err := s.ListDiaryDates(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list dates: %v", err)
	}
	want := []string{"2026-08-31", "2026-08-30", "2026-08-29"}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("expected dates %v, got %v", want, dates)
		}
	}
}

func TestGetDiaryIDByDate(t *testing.T) {
	s := openTestStore(t)
	user := mustCreateUser(t, s, "alice")

	e := &DiaryEntry{UserID: user.ID, EntryDate: "2026-08-31", Content: "c", Summary: "s"}
	if _, err := s.UpsertDiaryEntry(context.Background(), e); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	id, err := s.GetDiaryIDByDate(context.Background(), user.ID, "2026-08-31")
	if err != nil {
		t.Fatalf("get id: %v", err)
	}
	if id != e.ID {
		t.Fatalf("expected id %d, got %d", e.ID, id)
	}

	id, err = s.GetDiaryIDByDate(context.Background(), user.ID, "1999-12-31")
	if err != nil {
		t.Fatalf("unexpected error for missing date: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected zero id for missing date, got %d", id)
	}
}

func TestDeleteDiaryEntry_ScopedToOwner(t *testing.T) {
	s := openTestStore(t)
	alice := mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bob")

	e := &DiaryEntry{UserID: alice.ID, EntryDate: "2026-08-31", Content: "c", Summary: "s"}
	if _, err := s.UpsertDiaryEntry(context.Background(), e); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	affected, err := s.DeleteDiaryEntry(context.Background(), bob.ID, e.ID)
	if err != nil {
		t.Fatalf("delete as other user: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected no rows deleted by non-owner, got %d", affected)
	}

	entry, err := s.GetDiaryEntryByDate(context.Background(), alice.ID, "2026-08-31")
	if err != nil || entry == nil {
		t.Fatalf("expected entry to survive, got %v, err %v", entry, err)
	}

	affected, err = s.DeleteDiaryEntry(context.Background(), alice.ID, e.ID)
	if err != nil {
		t.Fatalf("delete as owner: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row deleted by owner, got %d", affected)
	}
}
