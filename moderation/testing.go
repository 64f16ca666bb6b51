package moderation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/deanogram/yagamerbot2.0/moderation/cachestore"
	"github.com/deanogram/yagamerbot2.0/moderation/countstore"
	"github.com/deanogram/yagamerbot2.0/moderation/flagstore"
	"github.com/deanogram/yagamerbot2.0/moderation/ledger"
	"github.com/deanogram/yagamerbot2.0/moderation/ratelimit"
	"github.com/deanogram/yagamerbot2.0/moderation/ratestore"
	"github.com/deanogram/yagamerbot2.0/moderation/setstore"
)

var _ MessageRuleFunc = simpleWordRule

func simpleWordRule(evt *MessageEvent) error {
	for _, word := range evt.SetMembers(SetBannedWords) {
		if word != "" && strings.Contains(evt.NormalText, word) {
			evt.Deny(ReasonBannedWord)
			break
		}
	}
	return nil
}

// EngineTestFixture returns a fully in-memory engine seeded with one banned
// word ("spam") and one banned link ("bad.example.com"), user 1 as owner, and
// default limits and escalation policy. Intentionally exported, for use in
// other packages.
func EngineTestFixture() *Engine {
	ctx := context.Background()
	rules := RuleSet{
		MessageRules: []MessageRuleFunc{
			simpleWordRule,
		},
	}
	sets := setstore.NewMemSetStore()
	_ = sets.AddToSet(ctx, SetBannedWords, "spam")
	_ = sets.AddToSet(ctx, SetBannedLinks, "bad.example.com")
	store := ledger.NewMemStore()
	engine := &Engine{
		Logger:   slog.Default(),
		Rules:    rules,
		Tracker:  ratelimit.NewTracker(ratestore.NewMemRateStore(), ratelimit.DefaultLimits()),
		Counters: countstore.NewMemCountStore(),
		Sets:     sets,
		Flags:    flagstore.NewMemFlagStore(),
		Cache:    cachestore.NewMemCacheStore(10, time.Hour),
		Ledger:   store,
		Policy:   DefaultEscalationPolicy(),
		Roles:    &Roles{OwnerID: 1, Store: store},
	}
	return engine
}
