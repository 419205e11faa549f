package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mindrift/backend/internal/store"
)

// MessagePurge clears the messages table. It runs on a cron schedule and
// satisfies cron.Job.
type MessagePurge struct {
	store  *store.Store
	logger *zap.Logger
}

func NewMessagePurge(st *store.Store, logger *zap.Logger) *MessagePurge {
	return &MessagePurge{store: st, logger: logger}
}

func (p *MessagePurge) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := p.store.DeleteAllMessages(ctx)
	if err != nil {
		p.logger.Error("message purge failed", zap.Error(err))
		return
	}
	p.logger.Info("messages cleared", zap.Int64("deleted", deleted))
}
