package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-03-15", date(2024, 3, 15)},
		{"2024-03-15T09:30:00Z", date(2024, 3, 15)},
		{"2024-03-15 09:30:00", date(2024, 3, 15)},
		{"15 Mar 2024", date(2024, 3, 15)},
		{"15-Mar-2024", date(2024, 3, 15)},
		{"March 15, 2024", date(2024, 3, 15)},
		{"15/03/2024", date(2024, 3, 15)},
		{"15-03-2024", date(2024, 3, 15)},
		{"03/05/2024", date(2024, 3, 5)},
		{"3/5/2024", date(2024, 3, 5)},
		{"12/31/2024", date(2024, 12, 31)},
		{"31/12/2024 23:59", date(2024, 12, 31)},
		{"2024-3-5", date(2024, 3, 5)},
		{"  2024-04-10  ", date(2024, 4, 10)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.raw)
		require.NoError(t, err, "ParseDate(%q)", tt.raw)
		assert.True(t, tt.want.Equal(got), "ParseDate(%q) = %s, want %s", tt.raw, got, tt.want)
	}
}

func TestParseDate_DayGreaterThanTwelveIsDay(t *testing.T) {
	got, err := ParseDate("15/03/2024")
	require.NoError(t, err)
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, time.March, got.Month())
}

func TestParseDate_AmbiguousIsMonthFirst(t *testing.T) {
	got, err := ParseDate("03/05/2024")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 5, got.Day())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, raw := range []string{"", "not a date", "Subtotal", "13/13/2024", "02/30/2024", "2024-02-30", "2024-13-01", "45366", "1/2/24"} {
		_, err := ParseDate(raw)
		assert.ErrorIs(t, err, ErrInvalidDate, "ParseDate(%q)", raw)
	}
}

func TestParseDate_UTCMidnight(t *testing.T) {
	got, err := ParseDate("2024-03-15T23:30:00+05:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 15, got.Day(), "calendar date as written, not shifted to UTC")
}
