package rules

import (
	"strings"

	"github.com/deanogram/yagamerbot2.0/moderation"
	"github.com/deanogram/yagamerbot2.0/moderation/keyword"
)

var _ moderation.MessageRuleFunc = BannedWordRule

// BannedWordRule denies any message containing a configured banned word as a
// substring of the normalized text, or of its slug (punctuation and spacing
// stripped), so "s p a m" still trips a "spam" entry. Runs before the link
// rule, so a message matching both is reported as a banned word.
func BannedWordRule(evt *moderation.MessageEvent) error {
	slug := keyword.Slugify(evt.NormalText)
	for _, word := range evt.SetMembers(moderation.SetBannedWords) {
		if word == "" {
			continue
		}
		wordSlug := keyword.Slugify(word)
		if strings.Contains(evt.NormalText, word) ||
			(wordSlug != "" && strings.Contains(slug, wordSlug)) {
			evt.Deny(moderation.ReasonBannedWord)
			evt.AddAccountFlag("banned-word")
			evt.Increment("deny", string(moderation.ReasonBannedWord))
			break
		}
	}
	return nil
}

var _ moderation.MessageRuleFunc = BannedLinkRule

// BannedLinkRule denies any message containing a configured banned link
// fragment. Matching is plain substring, the same as words; link entries are
// just domains or URL fragments the community has blocked.
func BannedLinkRule(evt *moderation.MessageEvent) error {
	for _, link := range evt.SetMembers(moderation.SetBannedLinks) {
		if link == "" {
			continue
		}
		if strings.Contains(evt.NormalText, link) {
			evt.Deny(moderation.ReasonBannedLink)
			evt.AddAccountFlag("banned-link")
			evt.Increment("deny", string(moderation.ReasonBannedLink))
			break
		}
	}
	return nil
}
