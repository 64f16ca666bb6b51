package moderation

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

type CounterRef struct {
	Name   string
	Val    string
	Period *string
}

// MessageEvent is the context for one inbound message flowing through the
// content rules.
//
// Events are both containers for data about the message itself; aggregate
// results and state (counters, flags, the deny reason) to be persisted after
// all rules are run; and act as an API for additional store reads.
type MessageEvent struct {
	// Back-reference to Engine that is processing this event. Pointer, but must not be nil.
	Engine *Engine
	// Any error encountered while processing the event can be stashed in this field and handled at the end of all processing.
	Err error
	// slog logger handle, with event-specific structured fields pre-populated. Pointer, but expected to not be nil.
	Logger *slog.Logger

	UserID int64
	// raw message text as submitted
	Text string
	// lowercased, trimmed form rules match against
	NormalText string
	Now        time.Time

	// List of counters which should be incremented as part of processing this event. These are collected during rule execution and persisted in bulk at the end.
	CounterIncrements []CounterRef
	// Moderation flags which should be recorded against the user, as a result of rule execution.
	AccountFlags []string

	denyReason Reason
}

// Deny marks the message as rejected. The first deny wins: later rules
// cannot override an earlier reason.
func (e *MessageEvent) Deny(reason Reason) {
	if e.denyReason == ReasonNone {
		e.denyReason = reason
	}
}

func (e *MessageEvent) Denied() bool {
	return e.denyReason != ReasonNone
}

func (e *MessageEvent) DenyReason() Reason {
	return e.denyReason
}

func (e *MessageEvent) UserIDString() string {
	return strconv.FormatInt(e.UserID, 10)
}

// Immediate fetches a count from the event's engine's countstore. Returns 0 by default (if counter has never been incremented).
func (e *MessageEvent) GetCount(name, val, period string) int {
	v, err := e.Engine.GetCount(name, val, period)
	if err != nil {
		e.Err = err
		return 0
	}
	return v
}

// Enqueues the named counter to be incremented at the end of all rule processing. Will automatically increment for all time periods.
func (e *MessageEvent) Increment(name, val string) {
	e.CounterIncrements = append(e.CounterIncrements, CounterRef{Name: name, Val: val})
}

// Enqueues the named counter to be incremented at the end of all rule processing. Will only increment the indicated time period bucket.
func (e *MessageEvent) IncrementPeriod(name, val string, period string) {
	e.CounterIncrements = append(e.CounterIncrements, CounterRef{Name: name, Val: val, Period: &period})
}

// Checks the Engine's setstore for whether the indicated "val" is a member of the "name" set.
func (e *MessageEvent) InSet(name, val string) bool {
	v, err := e.Engine.InSet(name, val)
	if err != nil {
		e.Err = err
		return false
	}
	return v
}

// SetMembers fetches the full contents of a named set, for substring
// matching against the message text.
func (e *MessageEvent) SetMembers(name string) []string {
	v, err := e.Engine.SetMembers(name)
	if err != nil {
		e.Err = err
		return nil
	}
	return v
}

// Enqueues the provided flag (string value) to be recorded (in the Engine's flagstore) at the end of rule processing.
func (e *MessageEvent) AddAccountFlag(val string) {
	e.AccountFlags = append(e.AccountFlags, val)
}

// Persists account flags accumulated during rule execution.
func (e *MessageEvent) PersistActions(ctx context.Context) error {
	if len(e.AccountFlags) == 0 {
		return nil
	}
	return e.Engine.Flags.Add(ctx, e.UserIDString(), dedupeStrings(e.AccountFlags))
}

func (e *MessageEvent) PersistCounters(ctx context.Context) error {
	for _, ref := range e.CounterIncrements {
		if ref.Period != nil {
			if err := e.Engine.Counters.IncrementPeriod(ctx, ref.Name, ref.Val, *ref.Period); err != nil {
				return err
			}
		} else {
			if err := e.Engine.Counters.Increment(ctx, ref.Name, ref.Val); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *MessageEvent) CanonicalLogLine() {
	e.Logger.Info("canonical-event-line",
		"denyReason", e.denyReason,
		"accountFlags", e.AccountFlags,
		"counterIncrements", len(e.CounterIncrements),
	)
}

func dedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}
