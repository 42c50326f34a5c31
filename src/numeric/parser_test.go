package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"spanish thousands and decimals", "1.234,56", 1234.56, true},
		{"english thousands and decimals", "1,234.56", 1234.56, true},
		{"comma alone is decimal", "12,5", 12.5, true},
		{"dot alone stays decimal", "12.5", 12.5, true},
		{"plain integer", "205000", 205000, true},
		{"currency suffix", "1.234,50 €", 1234.5, true},
		{"percent suffix", "5,5 %", 5.5, true},
		{"non breaking space", "1.234,50 €", 1234.5, true},
		{"narrow no break space", "1 234,50", 1234.5, true},
		{"inner spaces", " 1 234,56 ", 1234.56, true},
		{"negative spanish", "-1.234,56", -1234.56, true},
		{"large grouped spanish", "1.234.567,89", 1234567.89, true},
		{"large grouped english", "1,234,567.89", 1234567.89, true},
		{"zero", "0", 0, true},
		{"empty", "", 0, false},
		{"blank", "   ", 0, false},
		{"lone minus", "-", 0, false},
		{"lone dot", ".", 0, false},
		{"lone comma", ",", 0, false},
		{"letters only", "abc", 0, false},
		{"misplaced minus", "12-3", 0, false},
		{"currency alone", "€", 0, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseAmount(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestParseAmountLastSeparatorWins(t *testing.T) {
	t.Parallel()

	// With both separators present, whichever appears last is the
	// decimal mark regardless of digit grouping.
	got, ok := ParseAmount("1,234,567.89")
	assert.True(t, ok)
	assert.InDelta(t, 1234567.89, got, 1e-9)

	got, ok = ParseAmount("1.234.567,89")
	assert.True(t, ok)
	assert.InDelta(t, 1234567.89, got, 1e-9)
}

func TestParsePercent(t *testing.T) {
	t.Parallel()

	got, ok := ParsePercent("15 %")
	assert.True(t, ok)
	assert.InDelta(t, 15.0, got, 1e-9)

	_, ok = ParsePercent("")
	assert.False(t, ok)
}
