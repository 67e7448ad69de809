package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for cells that hold no usable number.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount returns the magnitude of a formatted money cell. Currency
// symbols, thousands separators, signs and accounting parentheses are
// stripped; direction is not kept. A comma only ever separates thousands,
// so a group that is not three digits wide, as in the decimal comma of
// "12,50", is rejected rather than read as 1250.
func ParseAmount(raw string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	whole, frac, hasFrac := strings.Cut(strings.Trim(b.String(), ","), ".")
	groups := strings.Split(whole, ",")
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
	}
	digits := strings.Join(groups, "")
	if hasFrac {
		digits += "." + frac
	}
	if strings.Trim(digits, ".") == "" || strings.Contains(frac, ",") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}
