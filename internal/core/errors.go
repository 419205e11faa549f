package core

import "errors"

var (
	// ErrContentRequired rejects empty or whitespace-only diary/chat input.
	ErrContentRequired = errors.New("content is required")
	// ErrNoChatHistory means the user has no stored 'user' messages to consolidate.
	ErrNoChatHistory = errors.New("no chat history")
	// ErrDateRequired rejects date-indexed lookups without a date.
	ErrDateRequired = errors.New("date is required")
	// ErrNotFound covers both a missing record and an ownership mismatch;
	// callers cannot distinguish the two.
	ErrNotFound = errors.New("not found")
	// ErrSummaryFailed wraps any summarization service failure.
	ErrSummaryFailed = errors.New("diary summary generation failed")
)
