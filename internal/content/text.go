package content

import (
	"strings"
	"unicode"
)

// CleanText collapses every run of whitespace (including non-breaking spaces)
// into a single space and strips control characters.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(content))

	pendingSpace := false
	for _, r := range content {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r) || r == '\ufeff':
			continue
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Truncate shortens text to at most maxChars runes, cutting at the last word boundary when one exists.
// A non-positive maxChars returns text unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	cut := string(runes[:maxChars])
	if unicode.IsSpace(runes[maxChars]) {
		return strings.TrimRightFunc(cut, unicode.IsSpace)
	}
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		return cut[:i]
	}
	return cut
}
