package keyword

import (
	"regexp"
	"strings"

	"golang.org/x/text/transform"
)

var nonSlugChars = regexp.MustCompile(`[^\pL\pN]+`)

// Slugify collapses text to bare lower-case letters and digits, combining
// marks folded away. The word rule matches slugs in addition to normalized
// text, which catches spacing and punctuation evasion ("s p a m",
// "s.p.a.m") that plain substring matching misses.
func Slugify(orig string) string {
	out := strings.ToLower(nonSlugChars.ReplaceAllString(orig, ""))
	folded, _, err := transform.String(foldTransform(), out)
	if err != nil {
		return out
	}
	return folded
}
