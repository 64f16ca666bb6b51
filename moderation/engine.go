package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/deanogram/yagamerbot2.0/moderation/cachestore"
	"github.com/deanogram/yagamerbot2.0/moderation/countstore"
	"github.com/deanogram/yagamerbot2.0/moderation/flagstore"
	"github.com/deanogram/yagamerbot2.0/moderation/keyword"
	"github.com/deanogram/yagamerbot2.0/moderation/ledger"
	"github.com/deanogram/yagamerbot2.0/moderation/ratelimit"
	"github.com/deanogram/yagamerbot2.0/moderation/setstore"
)

// runtime for classifying messages, managing sanction state, and recording
// moderation actions.
//
// TODO: careful when initializing: several fields should not be null or zero, even though they are pointer type.
type Engine struct {
	Logger   *slog.Logger
	Rules    RuleSet
	Tracker  *ratelimit.Tracker
	Counters countstore.CountStore
	Sets     setstore.SetStore
	Flags    flagstore.FlagStore
	Cache    cachestore.CacheStore
	Ledger   ledger.Store
	Policy   EscalationPolicy
	Roles    *Roles

	lockInit  sync.Once
	userLocks *xsync.MapOf[int64, *sync.Mutex]
}

// lockUser serializes all state mutation for one user. Concurrent messages
// from the same user would otherwise race the flood-window eviction or
// double-increment counters; cross-user operations share no state and need
// no coordination.
func (e *Engine) lockUser(userID int64) func() {
	e.lockInit.Do(func() {
		e.userLocks = xsync.NewMapOf[int64, *sync.Mutex]()
	})
	mu, _ := e.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}

// ProcessMessage classifies one inbound message and applies any escalation
// side effects. Policy denials come back as data in the Verdict; only
// storage failures return an error, and callers must not assume any
// sanction was applied when they see one.
func (e *Engine) ProcessMessage(ctx context.Context, userID int64, text string, now time.Time) (verdict Verdict, err error) {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("moderation event execution exception", "err", r, "uid", userID)
			eventErrorCount.Inc()
			verdict = Verdict{}
			err = fmt.Errorf("rule execution panic: %v", r)
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.Observe(time.Since(start).Seconds())
	}()

	unlock := e.lockUser(userID)
	defer unlock()

	ok, denial, err := e.Tracker.Admit(ctx, userID, text, now)
	if err != nil {
		eventErrorCount.Inc()
		return Verdict{}, fmt.Errorf("rate tracker: %w", err)
	}
	if !ok {
		verdict = Verdict{Allowed: false, Reason: Reason(denial)}
		e.observeVerdict(verdict)
		e.Logger.Debug("message denied by rate tracker", "uid", userID, "reason", denial)
		return verdict, nil
	}

	evt := e.NewMessageEvent(userID, text, now)
	// sticker-only and other empty events skip content rules entirely
	if evt.NormalText != "" {
		if err := e.Rules.CallMessageRules(evt); err != nil {
			eventErrorCount.Inc()
			return Verdict{}, fmt.Errorf("message rules: %w", err)
		}
	}

	verdict = Verdict{Allowed: !evt.Denied(), Reason: evt.DenyReason()}
	if verdict.Reason.IsModerationClass() {
		outcome, count, err := e.Policy.Apply(ctx, e.Ledger, userID, verdict.Reason, now)
		if err != nil {
			eventErrorCount.Inc()
			return Verdict{}, fmt.Errorf("escalation: %w", err)
		}
		verdict.Outcome = outcome
		verdict.WarningCount = count
		if outcome == OutcomeWarned {
			verdict.WarningLimit = e.Policy.DisplayThreshold
		}
		if outcome == OutcomeAutoMuted {
			sanctionActionCount.WithLabelValues(ledger.ActionMute, "auto").Inc()
		} else {
			sanctionActionCount.WithLabelValues(ledger.ActionWarn, "auto").Inc()
		}
	}

	evt.CanonicalLogLine()
	if err := evt.PersistActions(ctx); err != nil {
		eventErrorCount.Inc()
		return Verdict{}, fmt.Errorf("persisting event actions: %w", err)
	}
	if err := evt.PersistCounters(ctx); err != nil {
		eventErrorCount.Inc()
		return Verdict{}, fmt.Errorf("persisting event counters: %w", err)
	}

	e.observeVerdict(verdict)
	return verdict, nil
}

func (e *Engine) observeVerdict(v Verdict) {
	eventProcessCount.WithLabelValues(strconv.FormatBool(v.Allowed)).Inc()
	if !v.Allowed {
		verdictReasonCount.WithLabelValues(string(v.Reason)).Inc()
	}
}

func (e *Engine) NewMessageEvent(userID int64, text string, now time.Time) *MessageEvent {
	return &MessageEvent{
		Engine:     e,
		Logger:     e.Logger.With("uid", userID),
		UserID:     userID,
		Text:       text,
		NormalText: keyword.Normalize(text),
		Now:        now,
	}
}

func (e *Engine) GetCount(name, val, period string) (int, error) {
	return e.Counters.GetCount(context.TODO(), name, val, period)
}

// checks if `val` is an element of set `name`
func (e *Engine) InSet(name, val string) (bool, error) {
	return e.Sets.InSet(context.TODO(), name, val)
}

func (e *Engine) SetMembers(name string) ([]string, error) {
	return e.Sets.Members(context.TODO(), name)
}

// Manual sanction commands. Authorization is the caller's job (see Roles);
// these methods only apply and record the action.

func (e *Engine) Mute(ctx context.Context, userID int64, dur time.Duration, moderatorID int64, reason string, now time.Time) error {
	unlock := e.lockUser(userID)
	defer unlock()
	if err := e.Ledger.Mute(ctx, userID, dur, moderatorID, reason, now); err != nil {
		return fmt.Errorf("muting user: %w", err)
	}
	sanctionActionCount.WithLabelValues(ledger.ActionMute, "manual").Inc()
	e.Logger.Info("muted user", "uid", userID, "duration", dur, "moderator", moderatorID, "reason", reason)
	return nil
}

func (e *Engine) Unmute(ctx context.Context, userID int64) error {
	unlock := e.lockUser(userID)
	defer unlock()
	if err := e.Ledger.Unmute(ctx, userID); err != nil {
		return fmt.Errorf("unmuting user: %w", err)
	}
	e.Logger.Info("unmuted user", "uid", userID)
	return nil
}

func (e *Engine) Ban(ctx context.Context, userID int64, dur time.Duration, moderatorID int64, reason string, now time.Time) error {
	unlock := e.lockUser(userID)
	defer unlock()
	if err := e.Ledger.Ban(ctx, userID, dur, moderatorID, reason, now); err != nil {
		return fmt.Errorf("banning user: %w", err)
	}
	sanctionActionCount.WithLabelValues(ledger.ActionBan, "manual").Inc()
	e.Logger.Info("banned user", "uid", userID, "duration", dur, "moderator", moderatorID, "reason", reason)
	return nil
}

func (e *Engine) Unban(ctx context.Context, userID int64) error {
	unlock := e.lockUser(userID)
	defer unlock()
	if err := e.Ledger.Unban(ctx, userID); err != nil {
		return fmt.Errorf("unbanning user: %w", err)
	}
	e.Logger.Info("unbanned user", "uid", userID)
	return nil
}

func (e *Engine) Warn(ctx context.Context, userID, moderatorID int64, reason string, now time.Time) (int, error) {
	unlock := e.lockUser(userID)
	defer unlock()
	count, err := e.Ledger.Warn(ctx, userID, moderatorID, reason, now)
	if err != nil {
		return 0, fmt.Errorf("warning user: %w", err)
	}
	sanctionActionCount.WithLabelValues(ledger.ActionWarn, "manual").Inc()
	e.Logger.Info("warned user", "uid", userID, "count", count, "moderator", moderatorID, "reason", reason)
	return count, nil
}

func (e *Engine) ClearWarnings(ctx context.Context, userID int64) error {
	unlock := e.lockUser(userID)
	defer unlock()
	return e.Ledger.ClearWarnings(ctx, userID)
}

func (e *Engine) ClearStrikes(ctx context.Context, userID int64) error {
	unlock := e.lockUser(userID)
	defer unlock()
	return e.Ledger.ClearStrikes(ctx, userID)
}

// Read-side queries used by surrounding UI and reporting.

func (e *Engine) IsMuted(ctx context.Context, userID int64, now time.Time) (bool, int64, error) {
	return e.Ledger.IsMuted(ctx, userID, now)
}

func (e *Engine) IsBanned(ctx context.Context, userID int64, now time.Time) (bool, int64, error) {
	return e.Ledger.IsBanned(ctx, userID, now)
}

func (e *Engine) GetWarnings(ctx context.Context, userID int64) (int, error) {
	return e.Ledger.Warnings(ctx, userID)
}

func (e *Engine) GetStrikes(ctx context.Context, userID int64) (int, error) {
	return e.Ledger.Strikes(ctx, userID)
}

func (e *Engine) ListMutes(ctx context.Context, now time.Time) ([]ledger.MuteRecord, error) {
	return e.Ledger.ListMutes(ctx, now)
}

func (e *Engine) ListBans(ctx context.Context, now time.Time) ([]ledger.BanRecord, error) {
	return e.Ledger.ListBans(ctx, now)
}

// Rule set administration (admin-gated by the caller).

func (e *Engine) AddBannedWord(ctx context.Context, word string) error {
	word = keyword.Normalize(word)
	if word == "" {
		return fmt.Errorf("%w: empty banned word", ErrInvalidInput)
	}
	return e.Sets.AddToSet(ctx, SetBannedWords, word)
}

func (e *Engine) AddBannedLink(ctx context.Context, link string) error {
	link = keyword.Normalize(link)
	if link == "" {
		return fmt.Errorf("%w: empty banned link", ErrInvalidInput)
	}
	return e.Sets.AddToSet(ctx, SetBannedLinks, link)
}

const modStatsCacheName = "modstats"

// number of offenders included in stats reports
var topOffendersLimit = 10

// ModStats summarizes recent moderation activity: warnings and sanctions
// inside the window, plus the all-time top offenders by strike count.
// Rendered reports are cached briefly; staleness up to the cache TTL is
// acceptable for reporting.
type ModStats struct {
	Window       string                `json:"window"`
	Warnings     int                   `json:"warnings"`
	Sanctions    int                   `json:"sanctions"`
	TopOffenders []ledger.StrikeRecord `json:"top_offenders"`
}

func (e *Engine) ModStats(ctx context.Context, window time.Duration, now time.Time) (*ModStats, error) {
	key := window.String()
	if raw, err := e.Cache.Get(ctx, modStatsCacheName, key); err == nil && raw != "" {
		var out ModStats
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return &out, nil
		}
	}

	entries, err := e.Ledger.AuditSince(ctx, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("scanning audit log: %w", err)
	}
	out := ModStats{Window: key}
	for _, entry := range entries {
		switch entry.Action {
		case ledger.ActionWarn:
			out.Warnings++
		case ledger.ActionMute, ledger.ActionBan:
			out.Sanctions++
		}
	}
	out.TopOffenders, err = e.Ledger.TopOffenders(ctx, topOffendersLimit)
	if err != nil {
		return nil, fmt.Errorf("ranking offenders: %w", err)
	}

	if raw, err := json.Marshal(&out); err == nil {
		if err := e.Cache.Set(ctx, modStatsCacheName, key, string(raw)); err != nil {
			e.Logger.Warn("failed to cache mod stats", "err", err)
		}
	}
	return &out, nil
}
