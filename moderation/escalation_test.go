package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanogram/yagamerbot2.0/moderation/ledger"
)

func TestEscalationThreshold(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	store := ledger.NewMemStore()
	policy := DefaultEscalationPolicy()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i < policy.WarnThreshold; i++ {
		outcome, count, err := policy.Apply(ctx, store, 100, ReasonBannedWord, now)
		require.NoError(err)
		assert.Equal(OutcomeWarned, outcome)
		assert.Equal(i, count)
	}

	outcome, count, err := policy.Apply(ctx, store, 100, ReasonBannedLink, now)
	require.NoError(err)
	assert.Equal(OutcomeAutoMuted, outcome)
	assert.Equal(0, count)

	muted, until, err := store.IsMuted(ctx, 100, now)
	require.NoError(err)
	assert.True(muted)
	assert.Equal(now.Add(policy.AutoMuteDuration).Unix(), until)

	// strikes survive the warning reset
	strikes, err := store.Strikes(ctx, 100)
	require.NoError(err)
	assert.Equal(policy.WarnThreshold, strikes)

	// the ratchet starts over after the auto-mute
	outcome, count, err = policy.Apply(ctx, store, 100, ReasonBannedWord, now)
	require.NoError(err)
	assert.Equal(OutcomeWarned, outcome)
	assert.Equal(1, count)
}

func TestEscalationRecordsAuditTrail(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	store := ledger.NewMemStore()
	policy := EscalationPolicy{WarnThreshold: 2, AutoMuteDuration: time.Hour, DisplayThreshold: 1}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, _, err := policy.Apply(ctx, store, 100, ReasonBannedWord, now)
	require.NoError(err)
	_, _, err = policy.Apply(ctx, store, 100, ReasonBannedWord, now.Add(time.Minute))
	require.NoError(err)

	entries, err := store.AuditSince(ctx, now.Add(-time.Minute))
	require.NoError(err)
	require.Len(entries, 3)
	assert.Equal(ledger.ActionWarn, entries[0].Action)
	assert.Equal(ledger.ActionWarn, entries[1].Action)
	assert.Equal(ledger.ActionMute, entries[2].Action)
	for _, entry := range entries {
		assert.Equal(ledger.SystemModeratorID, entry.ModeratorID)
		assert.Equal(string(ReasonBannedWord), entry.Reason)
	}
}
