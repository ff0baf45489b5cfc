package extract

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseMoney parses a currency amount captured from message text. Both "." and
// "," are accepted as the fractional separator. A matched-but-unparsable value
// (e.g. multiple separators) reports no match rather than an error, so the
// caller falls through to the next tier of its chain.
func parseMoney(raw string) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}
