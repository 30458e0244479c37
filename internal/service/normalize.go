package service

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeDecimal converts a heterogeneous upstream scalar into a
// canonical decimal. The feed ships monetary values as numbers, plain
// strings, strings with grouping punctuation or currency noise, empty
// strings and nulls. The function is total: it never fails. A missing
// or empty value is zero with ok=true; a malformed one is zero with
// ok=false so the caller can log the anomaly.
func NormalizeDecimal(raw interface{}) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		return normalizeString(v)
	default:
		return decimal.Zero, false
	}
}

func normalizeString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return decimal.Zero, true
	}

	// Keep only digits, separators and the sign; drops currency
	// symbols, spaces and other stray characters.
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, false
	}

	if strings.Contains(cleaned, ".") {
		// Dot is the decimal point; any commas are grouping.
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	} else {
		// No dot: a comma acts as the decimal point.
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
