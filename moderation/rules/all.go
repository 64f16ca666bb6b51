package rules

import (
	"github.com/deanogram/yagamerbot2.0/moderation"
)

func DefaultRules() moderation.RuleSet {
	rules := moderation.RuleSet{
		MessageRules: []moderation.MessageRuleFunc{
			BannedWordRule,
			BannedLinkRule,
		},
	}
	return rules
}
