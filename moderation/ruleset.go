package moderation

type MessageRuleFunc = func(evt *MessageEvent) error

// RuleSet holds the content rules run against each admitted message.
// Rules run in slice order and the first deny wins, so ordering encodes
// priority (banned words are checked before banned links).
type RuleSet struct {
	MessageRules []MessageRuleFunc
}

func (r *RuleSet) CallMessageRules(evt *MessageEvent) error {
	for _, f := range r.MessageRules {
		if err := f(evt); err != nil {
			return err
		}
		if evt.Err != nil {
			return evt.Err
		}
		if evt.Denied() {
			return nil
		}
	}
	return nil
}
