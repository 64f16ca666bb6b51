package moderation

import (
	"context"
	"time"

	"github.com/deanogram/yagamerbot2.0/moderation/ledger"
)

// EscalationPolicy turns moderation-class denials into warnings and, past
// the threshold, an automatic timed mute. The ratchet is one-directional:
// warnings never decay on their own, only ClearWarnings (manual, or the
// auto-mute side effect) resets the count. Strikes are never reset here.
type EscalationPolicy struct {
	// warning count at which the auto-mute fires
	WarnThreshold int
	// duration of the automatic mute
	AutoMuteDuration time.Duration
	// threshold shown to the user in "count/N" messages. Historically one
	// below the real threshold; preserved because changing it changes
	// user-visible behavior.
	DisplayThreshold int
}

func DefaultEscalationPolicy() EscalationPolicy {
	return EscalationPolicy{
		WarnThreshold:    4,
		AutoMuteDuration: 24 * time.Hour,
		DisplayThreshold: 3,
	}
}

// Apply records one violation for the user and decides the outcome. On
// auto-mute the warning count resets to zero while the cumulative strike
// tally is untouched.
//
// If the mute write fails after the warning landed, the user is left merely
// warned; the error is returned so callers can retry.
func (p EscalationPolicy) Apply(ctx context.Context, store ledger.Store, userID int64, reason Reason, now time.Time) (Outcome, int, error) {
	count, err := store.Warn(ctx, userID, ledger.SystemModeratorID, string(reason), now)
	if err != nil {
		return OutcomeNone, 0, err
	}
	if count < p.WarnThreshold {
		return OutcomeWarned, count, nil
	}
	if err := store.Mute(ctx, userID, p.AutoMuteDuration, ledger.SystemModeratorID, string(reason), now); err != nil {
		return OutcomeWarned, count, err
	}
	if err := store.ClearWarnings(ctx, userID); err != nil {
		return OutcomeAutoMuted, 0, err
	}
	return OutcomeAutoMuted, 0, nil
}
