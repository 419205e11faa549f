package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mindrift/backend/internal/store"
)

const summarySystemInstruction = "You are an emotional diary coach. " +
	"Summarize %s's diary in the following HTML format. " +
	"Do not modify class attributes. Do not include styles. " +
	`<div class="diary-entry"><h2 class="diary-date"><strong>[Date]</strong></h2>...`

// DiaryService maintains the one-entry-per-user-per-day invariant for diary
// summaries and serves date-indexed lookups. The diary day is the UTC
// calendar date.
type DiaryService struct {
	store  *store.Store
	llm    TextGenerator
	logger *zap.Logger
	now    func() time.Time
}

func NewDiaryService(st *store.Store, llm TextGenerator, logger *zap.Logger) *DiaryService {
	return &DiaryService{
		store:  st,
		llm:    llm,
		logger: logger,
		now:    time.Now,
	}
}

// Archive is everything recorded for one user on one diary day.
type Archive struct {
	Date     string            `json:"date"`
	Messages []store.Message   `json:"messages"`
	Diary    *store.DiaryEntry `json:"diary"`
}

func (s *DiaryService) today() string {
	return s.now().UTC().Format("2006-01-02")
}

func (s *DiaryService) summarize(ctx context.Context, displayName, diaryText string) (string, error) {
	system := fmt.Sprintf(summarySystemInstruction, displayName)
	raw, err := s.llm.Generate(ctx, system, nil, diaryText)
	if err != nil {
		s.logger.Error("diary summarization failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrSummaryFailed, err)
	}
	return sanitizeDiaryHTML(stripCodeFence(raw)), nil
}

// CreateFromText summarizes rawText and writes today's diary entry for the
// user, replacing any entry already stored for today.
func (s *DiaryService) CreateFromText(ctx context.Context, userID int64, displayName, rawText string) (*store.DiaryEntry, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, ErrContentRequired
	}

	summary, err := s.summarize(ctx, displayName, text)
	if err != nil {
		return nil, err
	}

	entry := &store.DiaryEntry{
		UserID:    userID,
		EntryDate: s.today(),
		Content:   text,
		Summary:   summary,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.store.UpsertDiaryEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateOrUpdateFromHistory consolidates all of the user's own chat messages
// into today's diary entry. The returned flag reports whether a new entry was
// created rather than an existing one refreshed.
func (s *DiaryService) CreateOrUpdateFromHistory(ctx context.Context, userID int64, displayName string) (*store.DiaryEntry, bool, error) {
	contents, err := s.store.ListUserAuthoredContents(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	diaryText := strings.TrimSpace(strings.Join(contents, "\n"))
	if diaryText == "" {
		return nil, false, ErrNoChatHistory
	}

	summary, err := s.summarize(ctx, displayName, diaryText)
	if err != nil {
		return nil, false, err
	}

	entry := &store.DiaryEntry{
		UserID:    userID,
		EntryDate: s.today(),
		Content:   diaryText,
		Summary:   summary,
		CreatedAt: s.now().UTC(),
	}
	created, err := s.store.UpsertDiaryEntry(ctx, entry)
	if err != nil {
		return nil, false, err
	}
	return entry, created, nil
}

// GetArchive returns the user's messages for the given date plus the diary
// entry for that date, if one exists.
func (s *DiaryService) GetArchive(ctx context.Context, userID int64, date string) (*Archive, error) {
	if date == "" {
		return nil, ErrDateRequired
	}

	messages, err := s.store.ListMessagesOnDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []store.Message{}
	}

	diary, err := s.store.GetDiaryEntryByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	return &Archive{Date: date, Messages: messages, Diary: diary}, nil
}

func (s *DiaryService) ListDates(ctx context.Context, userID int64) ([]string, error) {
	dates, err := s.store.ListDiaryDates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

func (s *DiaryService) GetIDByDate(ctx context.Context, userID int64, date string) (int64, error) {
	if date == "" {
		return 0, ErrDateRequired
	}
	id, err := s.store.GetDiaryIDByDate(ctx, userID, date)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, ErrNotFound
	}
	return id, nil
}

// DeleteByID removes the entry only when it belongs to userID. A missing id
// and an ownership mismatch are reported identically.
func (s *DiaryService) DeleteByID(ctx context.Context, userID, id int64) error {
	affected, err := s.store.DeleteDiaryEntry(ctx, userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
