package flagstore

import (
	"context"
)

// Private per-user moderation flags (eg "banned-word", "banned-link"),
// recorded by the engine when content rules fire. Unlike sanctions these
// carry no TTL and no user-visible effect; staff tooling reads them when
// reviewing an account's history.
type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
}
