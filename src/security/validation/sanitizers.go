package validation

import (
	"strings"
	"unicode"
)

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// NormalizeToken lowercases and trims an enum-like form value such as a
// category or lifecycle state before it is matched against the known set.
func NormalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(StripUnprintable(s)))
}

// CleanFreeText trims a user-typed text field like a concept or note.
func CleanFreeText(s string) string {
	return strings.TrimSpace(StripUnprintable(s))
}
