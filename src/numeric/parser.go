// Package numeric parses and renders amounts the way Spanish-locale users
// type and read them. Input is accepted in both es-ES ("1.234,56") and
// en-US ("1,234.56") shapes without the caller declaring a locale; output
// is always es-ES.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount normalizes a human-typed amount and parses it. It accepts
// currency and percent suffixes, thin and non-breaking spaces, and both
// decimal conventions. When both "." and "," appear, whichever occurs
// last is taken as the decimal separator and the other is treated as a
// grouping character.
//
// The second return is false when the text carries no numeric value at
// all (empty, lone sign, lone separator, or garbage). A false return is
// "absent", not zero; callers that want zero must opt in explicitly.
func ParseAmount(text string) (float64, bool) {
	s := strings.ReplaceAll(text, " ", " ")
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.Join(strings.Fields(s), "")

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// "1.234,56": dot groups, comma is the decimal mark.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// "1,234.56": comma groups, dot is the decimal mark.
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	s = stripNonNumeric(s)
	if s == "" || s == "-" || s == "." || s == "-." {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseEuro is ParseAmount restricted to monetary fields. It exists so
// call sites read as what they parse.
func ParseEuro(text string) (float64, bool) {
	return ParseAmount(text)
}

// ParsePercent parses a percentage figure such as "5", "5,5 %" or "5.5%".
// The returned value is the percentage itself, not a fraction.
func ParsePercent(text string) (float64, bool) {
	return ParseAmount(text)
}

// stripNonNumeric drops every rune that cannot take part in a float
// literal. Misplaced signs are kept so that ParseFloat rejects the
// whole string instead of silently reading a different number.
func stripNonNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
