package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when no supported representation matches.
var ErrInvalidDate = errors.New("invalid date")

// nativeLayouts are tried first, before the numeric patterns.
var nativeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2 Jan 2006",
	"02 Jan 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006",
	"Mon Jan 2 2006",
}

var (
	// D/M/YYYY or M/D/YYYY with / or - separators and an optional time suffix.
	slashDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})(?:[ T].*)?$`)
	// YYYY-M-D with single-digit parts allowed.
	isoLoose = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T].*)?$`)
)

// ParseDate converts a raw date cell into a calendar date at UTC midnight.
//
// For D/M/YYYY-style values a first group above 12 can only be a day;
// otherwise the value is read month first. 03/05/2024 is therefore
// 5 March, which is wrong for day-first exports. No locale is guessed.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	for _, layout := range nativeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t.Year(), int(t.Month()), t.Day()), nil
		}
	}

	if m := slashDate.FindStringSubmatch(s); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		day, month := second, first
		if first > 12 {
			day, month = first, second
		}
		return calendarDate(s, year, month, day)
	}

	if m := isoLoose.FindStringSubmatch(s); m != nil {
		return calendarDate(s, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// calendarDate rejects components time.Date would silently normalize.
func calendarDate(raw string, year, month, day int) (time.Time, error) {
	t := midnight(year, month, day)
	if month < 1 || month > 12 || t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

func midnight(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
