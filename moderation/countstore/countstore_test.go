package countstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCount(ctx, "violations", "user1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)

	assert.NoError(cs.Increment(ctx, "violations", "user1"))
	assert.NoError(cs.Increment(ctx, "violations", "user1"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCount(ctx, "violations", "user1", period)
		assert.NoError(err)
		assert.Equal(2, c, period)
	}

	assert.NoError(cs.IncrementPeriod(ctx, "violations", "user1", PeriodDay))
	c, err = cs.GetCount(ctx, "violations", "user1", PeriodDay)
	assert.NoError(err)
	assert.Equal(3, c)
	c, err = cs.GetCount(ctx, "violations", "user1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(2, c)
}
