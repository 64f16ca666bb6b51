package ratestore

import (
	"context"
	"time"
)

// Per-user message velocity state, consulted and updated on every inbound
// text-bearing event. State is scoped to a single UTC calendar day; the
// tracker resets it in place when the day rolls over.
type RateState struct {
	// UTC calendar date (time.DateOnly form) the counters belong to
	Day string `json:"day"`
	// messages accepted so far today
	Count int `json:"count"`
	// when the last accepted message arrived (zero if none today)
	LastMessageAt time.Time `json:"last_message_at"`
	// bounded FIFO of recent arrival times, for burst detection
	RecentTimestamps []time.Time `json:"recent_timestamps"`
	// text of the last accepted message, for duplicate detection
	LastText string `json:"last_text"`
}

type RateStore interface {
	// Get returns nil (no error) when no state exists for the user.
	Get(ctx context.Context, userID int64) (*RateState, error)
	Put(ctx context.Context, userID int64, st *RateState) error
	Delete(ctx context.Context, userID int64) error
}
