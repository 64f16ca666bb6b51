package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deanogram/yagamerbot2.0/moderation"
	"github.com/deanogram/yagamerbot2.0/moderation/countstore"
)

func TestBannedWordRule(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := moderation.EngineTestFixture()
	eng.Rules = DefaultRules()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	v, err := eng.ProcessMessage(ctx, 100, "this is not junk", now)
	assert.NoError(err)
	assert.True(v.Allowed)

	// matching is case-insensitive and substring
	v, err = eng.ProcessMessage(ctx, 100, "buy SPAMMY products now", now.Add(5*time.Second))
	assert.NoError(err)
	assert.False(v.Allowed)
	assert.Equal(moderation.ReasonBannedWord, v.Reason)
	assert.Equal(moderation.OutcomeWarned, v.Outcome)
	assert.Equal(1, v.WarningCount)

	flags, err := eng.Flags.Get(ctx, "100")
	assert.NoError(err)
	assert.Equal([]string{"banned-word"}, flags)

	c, err := eng.GetCount("deny", string(moderation.ReasonBannedWord), countstore.PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestBannedWordEvasion(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := moderation.EngineTestFixture()
	eng.Rules = DefaultRules()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// spacing and punctuation stripped by the slug match
	v, err := eng.ProcessMessage(ctx, 103, "buy s p a m today", now)
	assert.NoError(err)
	assert.False(v.Allowed)
	assert.Equal(moderation.ReasonBannedWord, v.Reason)

	// diacritics folded by normalization
	v, err = eng.ProcessMessage(ctx, 103, "great spám deal", now.Add(5*time.Second))
	assert.NoError(err)
	assert.False(v.Allowed)
	assert.Equal(moderation.ReasonBannedWord, v.Reason)

	v, err = eng.ProcessMessage(ctx, 103, "s.p.a.m for cheap", now.Add(10*time.Second))
	assert.NoError(err)
	assert.False(v.Allowed)
	assert.Equal(moderation.ReasonBannedWord, v.Reason)
}

func TestBannedLinkRule(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := moderation.EngineTestFixture()
	eng.Rules = DefaultRules()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	v, err := eng.ProcessMessage(ctx, 101, "look at https://bad.example.com/page", now)
	assert.NoError(err)
	assert.False(v.Allowed)
	assert.Equal(moderation.ReasonBannedLink, v.Reason)
	assert.Equal(moderation.OutcomeWarned, v.Outcome)
}

func TestWordCheckedBeforeLink(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := moderation.EngineTestFixture()
	eng.Rules = DefaultRules()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// message trips both rules; word rule runs first and its reason sticks
	v, err := eng.ProcessMessage(ctx, 102, "spam at bad.example.com", now)
	assert.NoError(err)
	assert.False(v.Allowed)
	assert.Equal(moderation.ReasonBannedWord, v.Reason)
}
