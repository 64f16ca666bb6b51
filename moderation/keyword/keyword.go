package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform strips combining marks (diacritics) after NFD
// decomposition. Must be constructed per call: norm transformers carry
// state and are not safe for concurrent reuse.
func foldTransform() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Normalizes free-form message text for rule matching: lower-case,
// surrounding whitespace trimmed, combining marks folded away so decorated
// lookalikes ("spám") match the plain entry. Substring rules match against
// this form; entries added through the engine go through the same fold on
// write.
func Normalize(text string) string {
	out := strings.ToLower(strings.TrimSpace(text))
	folded, _, err := transform.String(foldTransform(), out)
	if err != nil {
		return out
	}
	return folded
}
