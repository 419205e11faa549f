package jobs

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/mindrift/backend/internal/store"
)

func TestMessagePurgeClearsAllMessages(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	user, err := st.CreateUser(ctx, "purgeuser", "Purge User", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	for _, content := range []string{"one", "two"} {
		msg := &store.Message{UserID: user.ID, Role: "user", Content: content}
		if err := st.InsertMessage(ctx, msg); err != nil {
			t.Fatalf("insert message: %v", err)
		}
	}

	NewMessagePurge(st, zap.NewNop()).Run()

	messages, err := st.ListMessages(ctx, user.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages after purge, got %d", len(messages))
	}
}
