package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Per-record repair runs on every object that parsed, regardless of which
// stage produced it. It fixes the shapes the model gets wrong most often
// without judging validity — that is the validator's job.

const placeholderDescription = "(no description)"

func repairRecord(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	if v, ok := out["date"]; ok {
		if date, ok := normalizeDate(v); ok {
			out["date"] = date
		}
	}
	if _, ok := out["description"]; ok {
		out["description"] = coerceDescription(out["description"])
	}
	for _, key := range []string{"amount", "balance"} {
		if v, ok := out[key]; ok {
			if n, ok := coerceNumber(v); ok {
				out[key] = n
			}
		}
	}
	if v, ok := out["category"].(string); ok {
		out["category"] = strings.ToUpper(strings.TrimSpace(v))
	}
	if v, ok := out["name"].(string); ok {
		out["name"] = strings.TrimSpace(v)
	}
	if v, ok := out["currency"].(string); ok {
		out["currency"] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}

const canonicalDateLayout = "2006-01-02"

// Date layouts the model emits despite instructions. Order matters:
// DD/MM/YYYY is tried before YYYY/MM/DD so an ambiguous short year never
// swallows a day field.
var repairableDateLayouts = []string{
	canonicalDateLayout,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// normalizeDate canonicalizes the supported date shapes to YYYY-MM-DD.
// Unrecognized values are left untouched for the validator to reject.
func normalizeDate(v any) (string, bool) {
	switch val := v.(type) {
	case float64:
		return epochToDate(val)
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range repairableDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(canonicalDateLayout), true
			}
		}
		if epoch, err := strconv.ParseFloat(s, 64); err == nil {
			return epochToDate(epoch)
		}
		return "", false
	default:
		return "", false
	}
}

func epochToDate(epoch float64) (string, bool) {
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) || epoch <= 0 {
		return "", false
	}
	// Milliseconds past roughly 2001-09-09 read as seconds; disambiguate.
	sec := int64(epoch)
	if sec > 1e12 {
		sec /= 1000
	}
	return time.Unix(sec, 0).UTC().Format(canonicalDateLayout), true
}

// coerceDescription forces the description to a string, substituting a
// placeholder when the model emitted null or a non-text value.
func coerceDescription(v any) string {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return placeholderDescription
		}
		return strings.TrimSpace(val)
	case nil:
		return placeholderDescription
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// coerceNumber converts model-emitted numerics — including comma/space
// formatted strings like "1,234.56" and "1 234,56" — to a decimal.
func coerceNumber(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(val), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), " ", "")
		if strings.Contains(s, ",") {
			if strings.Contains(s, ".") {
				// Comma is a thousands separator.
				s = strings.ReplaceAll(s, ",", "")
			} else {
				// Comma is the decimal point.
				s = strings.ReplaceAll(s, ",", ".")
			}
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}
