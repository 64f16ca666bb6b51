package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deanogram/yagamerbot2.0/moderation/ratestore"
)

func testTracker(limits Limits) *Tracker {
	return NewTracker(ratestore.NewMemRateStore(), limits)
}

func TestMinInterval(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tr := testTracker(DefaultLimits())
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, _, err := tr.Admit(ctx, 1, "first", t0)
	assert.NoError(err)
	assert.True(ok)

	ok, denial, err := tr.Admit(ctx, 1, "second", t0.Add(time.Second))
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(DenialTooFast, denial)

	ok, _, err = tr.Admit(ctx, 1, "second", t0.Add(3*time.Second))
	assert.NoError(err)
	assert.True(ok)
}

func TestDailyCapResetsAtMidnightUTC(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	limits := DefaultLimits()
	limits.MinInterval = 0
	limits.FloodWindow = 0
	tr := testTracker(limits)

	t0 := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	for i := 0; i < limits.MaxPerDay; i++ {
		ok, denial, err := tr.Admit(ctx, 7, fmt.Sprintf("msg %d", i), t0.Add(time.Duration(i)*time.Minute))
		assert.NoError(err)
		assert.True(ok, "message %d should pass, denial=%s", i+1, denial)
	}

	ok, denial, err := tr.Admit(ctx, 7, "one too many", t0.Add(30*time.Minute))
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(DenialDailyCap, denial)

	// immediately after midnight the cap is gone
	ok, _, err = tr.Admit(ctx, 7, "new day", t0.Add(61*time.Minute))
	assert.NoError(err)
	assert.True(ok)
}

func TestFloodWindow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	limits := DefaultLimits()
	limits.MinInterval = 0
	limits.MaxPerDay = 100
	tr := testTracker(limits)

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// 5 messages inside 10 seconds: the 5th trips the window
	for i := 0; i < 4; i++ {
		ok, _, err := tr.Admit(ctx, 2, fmt.Sprintf("burst %d", i), t0.Add(time.Duration(i)*time.Second))
		assert.NoError(err)
		assert.True(ok)
	}
	ok, denial, err := tr.Admit(ctx, 2, "burst5", t0.Add(4*time.Second))
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(DenialFlood, denial)

	// 5 messages spread beyond the window all pass
	for i := 0; i < 5; i++ {
		ok, denial, err := tr.Admit(ctx, 3, fmt.Sprintf("calm %d", i), t0.Add(time.Duration(i*3)*time.Second))
		assert.NoError(err)
		assert.True(ok, "denial=%s", denial)
	}
}

func TestFloodWindowPersistsAcrossDenials(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	limits := DefaultLimits()
	limits.MinInterval = 0
	limits.MaxPerDay = 100
	limits.FloodMessageCount = 2
	tr := testTracker(limits)

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, _, err := tr.Admit(ctx, 4, "a", t0)
	assert.NoError(err)
	assert.True(ok)

	// denied attempts still push into the window, so the burst keeps tripping
	for i := 1; i <= 3; i++ {
		ok, denial, err := tr.Admit(ctx, 4, "b", t0.Add(time.Duration(i)*time.Second))
		assert.NoError(err)
		assert.False(ok)
		assert.Equal(DenialFlood, denial)
	}
}

func TestDuplicateContent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tr := testTracker(DefaultLimits())
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, _, err := tr.Admit(ctx, 5, "same thing", t0)
	assert.NoError(err)
	assert.True(ok)

	ok, denial, err := tr.Admit(ctx, 5, "same thing", t0.Add(5*time.Second))
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(DenialDuplicate, denial)

	ok, _, err = tr.Admit(ctx, 5, "different thing", t0.Add(10*time.Second))
	assert.NoError(err)
	assert.True(ok)
}

func TestEmptyTextNeverDuplicate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tr := testTracker(DefaultLimits())
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, _, err := tr.Admit(ctx, 6, "", t0)
	assert.NoError(err)
	assert.True(ok)

	ok, denial, err := tr.Admit(ctx, 6, "", t0.Add(5*time.Second))
	assert.NoError(err)
	assert.True(ok, "denial=%s", denial)
}

func TestCapsEmojiAbuse(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fixtures := []struct {
		name   string
		text   string
		denied bool
	}{
		{name: "caps and emoji", text: "FREE SKINS 🎉🎉🎉", denied: true},
		{name: "caps only", text: "FREE SKINS", denied: false},
		{name: "emoji only", text: "free skins 🎉🎉🎉", denied: false},
		{name: "no letters", text: "🎉🎉🎉 111", denied: false},
	}

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, fix := range fixtures {
		tr := testTracker(DefaultLimits())
		ok, denial, err := tr.Admit(ctx, int64(100+i), fix.text, t0)
		assert.NoError(err)
		if fix.denied {
			assert.False(ok, fix.name)
			assert.Equal(DenialCapsEmoji, denial, fix.name)
		} else {
			assert.True(ok, "%s: denial=%s", fix.name, denial)
		}
	}
}

func TestCheckOrderFirstFailureWins(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tr := testTracker(DefaultLimits())
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, _, err := tr.Admit(ctx, 8, "same", t0)
	assert.NoError(err)
	assert.True(ok)

	// both too-fast and duplicate apply; min-interval is checked first
	ok, denial, err := tr.Admit(ctx, 8, "same", t0.Add(time.Second))
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(DenialTooFast, denial)
}
