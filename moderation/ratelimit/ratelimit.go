// Package ratelimit implements the per-user message velocity checks: minimum
// interval, daily cap, burst (flood) window, duplicate content, and
// caps/emoji shouting. Checks run as a fixed-order pipeline; the first
// failing check wins and short-circuits the rest.
package ratelimit

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/deanogram/yagamerbot2.0/moderation/keyword"
	"github.com/deanogram/yagamerbot2.0/moderation/ratestore"
)

// Denial identifies which velocity check rejected a message. These are
// plain rate-limit outcomes: they deny the single message and never
// escalate into warnings.
type Denial string

const (
	DenialNone      Denial = ""
	DenialTooFast   Denial = "rate-too-fast"
	DenialDailyCap  Denial = "rate-daily-cap"
	DenialFlood     Denial = "flood"
	DenialDuplicate Denial = "duplicate"
	DenialCapsEmoji Denial = "caps-emoji"
)

// Limits are the tunable thresholds for the velocity pipeline. All of these
// are expected to come from daemon configuration, not be hardcoded at call
// sites.
type Limits struct {
	// minimum gap between two accepted messages from the same user
	MinInterval time.Duration
	// messages allowed per user per UTC calendar day
	MaxPerDay int
	// burst window capacity: this many messages inside FloodWindow is flood
	FloodMessageCount int
	FloodWindow       time.Duration
	// caps/emoji shouting: both thresholds must be met to deny
	MaxCapsRatio  float64
	MinEmojiCount int
}

func DefaultLimits() Limits {
	return Limits{
		MinInterval:       3 * time.Second,
		MaxPerDay:         10,
		FloodMessageCount: 5,
		FloodWindow:       10 * time.Second,
		MaxCapsRatio:      0.9,
		MinEmojiCount:     3,
	}
}

type Tracker struct {
	Store  ratestore.RateStore
	Limits Limits
}

func NewTracker(store ratestore.RateStore, limits Limits) *Tracker {
	return &Tracker{Store: store, Limits: limits}
}

// Admit runs the velocity pipeline for one inbound message. On success the
// user's counters are committed (count, last message time, last text). On
// denial the flood window mutation is still persisted, so back-to-back
// bursts keep tripping the window. Only storage failures return an error.
func (t *Tracker) Admit(ctx context.Context, userID int64, text string, now time.Time) (bool, Denial, error) {
	st, err := t.Store.Get(ctx, userID)
	if err != nil {
		return false, DenialNone, err
	}

	today := now.UTC().Format(time.DateOnly)
	if st == nil || st.Day != today {
		// day rollover: yesterday's cap and window are forgotten entirely
		st = &ratestore.RateState{Day: today}
	}

	deny := func(d Denial) (bool, Denial, error) {
		if err := t.Store.Put(ctx, userID, st); err != nil {
			return false, DenialNone, err
		}
		return false, d, nil
	}

	if !st.LastMessageAt.IsZero() && now.Sub(st.LastMessageAt) < t.Limits.MinInterval {
		return deny(DenialTooFast)
	}

	if st.Count >= t.Limits.MaxPerDay {
		return deny(DenialDailyCap)
	}

	st.RecentTimestamps = append(st.RecentTimestamps, now)
	for len(st.RecentTimestamps) > t.Limits.FloodMessageCount {
		st.RecentTimestamps = st.RecentTimestamps[1:]
	}
	if len(st.RecentTimestamps) == t.Limits.FloodMessageCount &&
		now.Sub(st.RecentTimestamps[0]) <= t.Limits.FloodWindow {
		return deny(DenialFlood)
	}

	if text != "" && text == st.LastText {
		return deny(DenialDuplicate)
	}

	if hasLetters(text) &&
		keyword.CapsRatio(text) >= t.Limits.MaxCapsRatio &&
		keyword.CountEmojis(text) >= t.Limits.MinEmojiCount {
		return deny(DenialCapsEmoji)
	}

	st.Count++
	st.LastMessageAt = now
	st.LastText = text
	if err := t.Store.Put(ctx, userID, st); err != nil {
		return false, DenialNone, err
	}
	return true, DenialNone, nil
}

func hasLetters(text string) bool {
	return strings.IndexFunc(text, unicode.IsLetter) >= 0
}
