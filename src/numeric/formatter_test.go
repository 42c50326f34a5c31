package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatEuro(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"thousands", 1234.5, "1.234,50 €"},
		{"millions", 1234567.891, "1.234.567,89 €"},
		{"small", 12.3, "12,30 €"},
		{"zero", 0, "0,00 €"},
		{"negative", -1234.5, "-1.234,50 €"},
		{"exact thousand", 1000, "1.000,00 €"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FormatEuro(tc.in))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.234", FormatNumber(1234, 0))
	assert.Equal(t, "1.234,6", FormatNumber(1234.56, 1))
	assert.Equal(t, "999", FormatNumber(999, 0))
	assert.Equal(t, "-999", FormatNumber(-999, 0))
	assert.Equal(t, "100.000.000,00", FormatNumber(1e8, 2))
}

func TestFormatNumberNonFinite(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatNumber(math.NaN(), 2))
	assert.Empty(t, FormatNumber(math.Inf(1), 2))
	assert.Empty(t, FormatNumber(math.Inf(-1), 0))
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "15,00 %", FormatPercent(15))
	assert.Equal(t, "7,50 %", FormatPercent(7.5))
}

func TestFormatOrDash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Dash, FormatEuroOrDash(0, false))
	assert.Equal(t, "0,00 €", FormatEuroOrDash(0, true))
	assert.Equal(t, Dash, FormatPercentOrDash(0, false))
}

func TestParseFormatRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{0, 1, 999.99, 1234.5, 1234567.89, -205000} {
		got, ok := ParseAmount(FormatEuro(v))
		assert.True(t, ok)
		assert.InDelta(t, v, got, 0.005)
	}
}
