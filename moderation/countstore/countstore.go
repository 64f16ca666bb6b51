package countstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	PeriodTotal = "total"
	PeriodDay   = "day"
	PeriodHour  = "hour"
)

// Monotonic event counters, bucketed by time period. Used for per-user
// violation tallies and engine-wide action quotas; these are observability
// counters, not the authoritative rate-limit state (see ratestore for that).
type CountStore interface {
	GetCount(ctx context.Context, name, val, period string) (int, error)
	// Increment bumps all period buckets at once.
	Increment(ctx context.Context, name, val string) error
	// IncrementPeriod bumps only the indicated period bucket.
	IncrementPeriod(ctx context.Context, name, val, period string) error
}

func periodBucket(name, val, period string) string {
	switch period {
	case PeriodTotal:
		return fmt.Sprintf("%s/%s", name, val)
	case PeriodDay:
		t := time.Now().UTC().Format(time.DateOnly)
		return fmt.Sprintf("%s/%s/%s", name, val, t)
	case PeriodHour:
		t := time.Now().UTC().Format(time.RFC3339)[0:13]
		return fmt.Sprintf("%s/%s/%s", name, val, t)
	default:
		slog.Warn("unhandled counter period", "period", period)
		return fmt.Sprintf("%s/%s", name, val)
	}
}
