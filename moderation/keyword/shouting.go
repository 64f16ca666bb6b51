package keyword

import "unicode"

// CapsRatio returns the fraction of alphabetic runes which are upper-case.
// Non-letter runes (digits, punctuation, emoji) are ignored entirely; text
// with no letters at all reports 0.0.
func CapsRatio(text string) float64 {
	var letters, upper int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0.0
	}
	return float64(upper) / float64(letters)
}

// CountEmojis counts runes in the main emoji blocks (symbols & pictographs,
// emoticons, transport). Skin-tone modifiers and ZWJ sequence components are
// not counted separately.
func CountEmojis(text string) int {
	n := 0
	for _, r := range text {
		if (r >= 0x1F300 && r <= 0x1FAD6) || (r >= 0x1F600 && r <= 0x1F6FF) {
			n++
		}
	}
	return n
}
