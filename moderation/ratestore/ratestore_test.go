package ratestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemRateStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	rs := NewMemRateStore()

	st, err := rs.Get(ctx, 123)
	assert.NoError(err)
	assert.Nil(st)

	now := time.Now().UTC()
	in := &RateState{
		Day:              now.Format(time.DateOnly),
		Count:            2,
		LastMessageAt:    now,
		RecentTimestamps: []time.Time{now.Add(-time.Second), now},
		LastText:         "hello",
	}
	assert.NoError(rs.Put(ctx, 123, in))

	out, err := rs.Get(ctx, 123)
	assert.NoError(err)
	assert.Equal(in.Day, out.Day)
	assert.Equal(2, out.Count)
	assert.Equal("hello", out.LastText)
	assert.Len(out.RecentTimestamps, 2)

	// mutating the returned copy must not touch the stored state
	out.RecentTimestamps = append(out.RecentTimestamps, now.Add(time.Second))
	out.Count = 99
	again, err := rs.Get(ctx, 123)
	assert.NoError(err)
	assert.Equal(2, again.Count)
	assert.Len(again.RecentTimestamps, 2)

	assert.NoError(rs.Delete(ctx, 123))
	st, err = rs.Get(ctx, 123)
	assert.NoError(err)
	assert.Nil(st)
}

func TestRedisRateStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	rs, err := NewRedisRateStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}

	st, err := rs.Get(ctx, 456)
	assert.NoError(err)
	assert.Nil(st)

	now := time.Now().UTC()
	assert.NoError(rs.Put(ctx, 456, &RateState{Day: now.Format(time.DateOnly), Count: 1, LastMessageAt: now, LastText: "hi"}))
	out, err := rs.Get(ctx, 456)
	assert.NoError(err)
	assert.Equal(1, out.Count)
	assert.NoError(rs.Delete(ctx, 456))
}
