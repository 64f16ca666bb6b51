package moderation

import "errors"

// Named sets consulted by the content rules.
const (
	SetBannedWords = "banned-words"
	SetBannedLinks = "banned-links"
)

var ErrInvalidInput = errors.New("invalid input")

// Reason codes for denied messages. Rate-limit reasons deny the single
// message and nothing else; moderation-class reasons (banned word/link)
// additionally feed the warning escalation policy.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonRateTooFast  Reason = "rate-too-fast"
	ReasonRateDailyCap Reason = "rate-daily-cap"
	ReasonFlood        Reason = "flood"
	ReasonDuplicate    Reason = "duplicate"
	ReasonCapsEmoji    Reason = "caps-emoji"
	ReasonBannedWord   Reason = "banned-word"
	ReasonBannedLink   Reason = "banned-link"
)

// IsModerationClass reports whether a denial should escalate into a warning
// (and eventually an auto-mute), as opposed to just dropping the message.
func (r Reason) IsModerationClass() bool {
	return r == ReasonBannedWord || r == ReasonBannedLink
}

// Escalation outcome attached to moderation-class verdicts.
type Outcome string

const (
	OutcomeNone Outcome = ""
	// user was warned; Verdict.WarningCount carries the new count
	OutcomeWarned Outcome = "warned"
	// warning threshold crossed: user was auto-muted and warnings reset
	OutcomeAutoMuted Outcome = "auto-muted"
)

// Verdict is the outcome of classifying one inbound message.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
	// escalation side effects, set only for moderation-class denials
	Outcome      Outcome `json:"outcome,omitempty"`
	WarningCount int     `json:"warning_count,omitempty"`
	// limit shown to the user alongside WarningCount ("2/3"); set on warned
	// verdicts from the policy's DisplayThreshold
	WarningLimit int `json:"warning_limit,omitempty"`
}
