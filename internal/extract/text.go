package extract

import (
	"strings"
	"unicode/utf8"
)

// ParseText reads bytes as UTF-8 text. A leading byte order mark is dropped
// and invalid sequences are removed.
func ParseText(data []byte) (string, error) {
	s := strings.TrimPrefix(string(data), "\ufeff")
	return strings.ToValidUTF8(s, ""), nil
}

// Normalize removes control characters other than tab and line breaks, trims
// surrounding whitespace and truncates the result to maxChars runes.
// maxChars <= 0 means no limit.
func Normalize(text string, maxChars int) string {
	t := strings.TrimSpace(strings.Map(dropControl, text))
	if t == "" || maxChars <= 0 || utf8.RuneCountInString(t) <= maxChars {
		return t
	}
	n := 0
	for i := range t {
		if n == maxChars {
			return t[:i]
		}
		n++
	}
	return t
}

func dropControl(r rune) rune {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return r
	case r < 0x20, r == 0x7f:
		return -1
	}
	return r
}
