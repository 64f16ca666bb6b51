// Package ledger is the durable source of truth for per-user sanction state:
// warnings, strikes, timed mutes and bans, role membership, and the
// append-only audit log of every sanction action.
//
// Mutes and bans carry a TTL: a stored expiry of 0 means permanent, anything
// else is a unix timestamp. Expiry is lazy: any read which observes an
// expired record deletes it and reports the user as unsanctioned. A periodic
// sweep exists purely for storage hygiene and is never required for
// correctness.
package ledger

import (
	"context"
	"time"
)

const (
	ActionWarn = "warn"
	ActionMute = "mute"
	ActionBan  = "ban"
)

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// SystemModeratorID marks sanctions applied automatically by the engine
// rather than by a human staff member.
const SystemModeratorID int64 = 0

// WarningRecord counts active (non-escalated) warnings for a user. Cleared
// on auto-mute or by staff; absence means zero.
type WarningRecord struct {
	UserID int64 `gorm:"primaryKey" json:"user_id"`
	Count  int   `json:"count"`
}

// MuteRecord and BanRecord are TTL records: Until is unix seconds, 0 means
// permanent. Absence means not sanctioned.
type MuteRecord struct {
	UserID int64 `gorm:"primaryKey" json:"user_id"`
	Until  int64 `json:"until"`
}

type BanRecord struct {
	UserID int64 `gorm:"primaryKey" json:"user_id"`
	Until  int64 `json:"until"`
}

// StrikeRecord is the cumulative warning tally used for offender reporting.
// It is never reset by escalation, only by explicit staff action.
type StrikeRecord struct {
	UserID        int64 `gorm:"primaryKey" json:"user_id"`
	Count         int   `json:"count"`
	LastTimestamp int64 `json:"last_timestamp"`
}

// AuditEntry is one immutable row in the sanction audit log.
type AuditEntry struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      int64  `gorm:"index" json:"user_id"`
	ModeratorID int64  `json:"moderator_id"`
	Action      string `json:"action"`
	Reason      string `json:"reason"`
	CreatedAt   int64  `gorm:"index" json:"created_at"`
}

// RoleMember is one row of the stored role sets. The owner is configured,
// not stored.
type RoleMember struct {
	UserID int64  `gorm:"primaryKey" json:"user_id"`
	Role   string `gorm:"primaryKey;size:16" json:"role"`
}

type Store interface {
	// Warn bumps the user's warning count and cumulative strike tally
	// atomically, records an audit entry, and returns the new warning count.
	Warn(ctx context.Context, userID, moderatorID int64, reason string, now time.Time) (int, error)
	Warnings(ctx context.Context, userID int64) (int, error)
	// ClearWarnings resets the warning count to zero; strikes are untouched.
	ClearWarnings(ctx context.Context, userID int64) error

	Strikes(ctx context.Context, userID int64) (int, error)
	ClearStrikes(ctx context.Context, userID int64) error

	// Mute/Ban upsert the TTL record (dur <= 0 means permanent) and record
	// an audit entry. Unmute/Unban delete unconditionally and are idempotent.
	Mute(ctx context.Context, userID int64, dur time.Duration, moderatorID int64, reason string, now time.Time) error
	Unmute(ctx context.Context, userID int64) error
	IsMuted(ctx context.Context, userID int64, now time.Time) (bool, int64, error)
	ListMutes(ctx context.Context, now time.Time) ([]MuteRecord, error)

	Ban(ctx context.Context, userID int64, dur time.Duration, moderatorID int64, reason string, now time.Time) error
	Unban(ctx context.Context, userID int64) error
	IsBanned(ctx context.Context, userID int64, now time.Time) (bool, int64, error)
	ListBans(ctx context.Context, now time.Time) ([]BanRecord, error)

	// AuditSince returns entries with CreatedAt >= since, oldest first.
	AuditSince(ctx context.Context, since time.Time) ([]AuditEntry, error)
	// TopOffenders orders by strike count descending, then userID ascending.
	TopOffenders(ctx context.Context, limit int) ([]StrikeRecord, error)

	Grant(ctx context.Context, userID int64, role string) error
	Revoke(ctx context.Context, userID int64, role string) error
	HasRole(ctx context.Context, userID int64, role string) (bool, error)
	ListRole(ctx context.Context, role string) ([]int64, error)

	// SweepExpired deletes expired mute/ban rows and returns how many were
	// removed. Storage hygiene only.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// sanctionUntil normalizes a duration into the stored expiry: zero or
// negative durations mean permanent.
func sanctionUntil(dur time.Duration, now time.Time) int64 {
	if dur <= 0 {
		return 0
	}
	return now.Add(dur).Unix()
}

// activeSanction applies the uniform TTL contract.
func activeSanction(until int64, now time.Time) bool {
	return until == 0 || until > now.Unix()
}
