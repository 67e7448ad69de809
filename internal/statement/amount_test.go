package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"500.00", "500.00"},
		{"1,200.00", "1200.00"},
		{"-77.00", "77.00"},
		{"$1,234.56", "1234.56"},
		{"(45.10)", "45.10"},
		{"₦ 12,000", "12000.00"},
		{"0.00", "0.00"},
		{"  19.99 CR", "19.99"},
		{"1,234,567.8", "1234567.80"},
		{"12,500", "12500.00"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.raw)
		require.NoError(t, err, "ParseAmount(%q)", tt.raw)
		assert.Equal(t, tt.want, got.StringFixed(2), "ParseAmount(%q)", tt.raw)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, raw := range []string{"", "n/a", "Total", ".", "1.2.3", "12,50", "1.200,00", "1,2345"} {
		_, err := ParseAmount(raw)
		assert.ErrorIs(t, err, ErrInvalidAmount, "ParseAmount(%q)", raw)
	}
}
