package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Dash is what the UI shows for an absent value. It is deliberately not
// "0": a missing figure and a zero figure mean different things on a
// project sheet.
const Dash = "—"

// FormatNumber renders v with es-ES separators: "." groups thousands and
// "," marks decimals, so 1234.5 with two decimals becomes "1.234,50".
// Non-finite input renders as the empty string.
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if decimals < 0 {
		decimals = 0
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatEuro renders a monetary amount with two decimals and a trailing
// euro sign separated by a non-breaking space, e.g. "1.234,50 €".
func FormatEuro(v float64) string {
	return FormatNumber(v, 2) + " €"
}

// FormatPercent renders a percentage with two decimals, e.g. "15,00 %".
func FormatPercent(v float64) string {
	return FormatNumber(v, 2) + " %"
}

// FormatEuroOrDash renders the amount when present and Dash otherwise.
func FormatEuroOrDash(v float64, ok bool) string {
	if !ok {
		return Dash
	}
	return FormatEuro(v)
}

// FormatPercentOrDash renders the percentage when present and Dash otherwise.
func FormatPercentOrDash(v float64, ok bool) string {
	if !ok {
		return Dash
	}
	return FormatPercent(v)
}
