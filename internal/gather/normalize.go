package gather

import (
	"strings"
	"unicode"
)

// Normalize converts a display name to its canonical dedup key:
// lowercase with everything except letters and digits removed.
// "UNIQLO!", "Uniqlo " and "uniqlo" all map to "uniqlo".
//
// The same key is used for store dedup across sources and for matching
// mall names against the wiki region table, so the two sides tolerate
// each other's punctuation and spacing quirks.
func Normalize(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
