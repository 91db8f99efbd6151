package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// dateLayouts are tried in order when reading a transaction date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
}

// toDecimal reads a JSON number or numeric string. Anything else is zero.
func toDecimal(r gjson.Result) decimal.Decimal {
	var s string
	switch r.Type {
	case gjson.Number:
		s = r.Raw
	case gjson.String:
		s = strings.ReplaceAll(strings.TrimSpace(r.Str), ",", "")
	default:
		return decimal.Zero
	}
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// number returns a finite float64 for r, defaulting to 0.
func number(r gjson.Result) float64 {
	f, _ := toDecimal(r).Float64()
	return finite(f)
}

// money reads a Fi money value {units, nanos}.
func money(v gjson.Result) float64 {
	units := toDecimal(v.Get("units"))
	nanos := toDecimal(v.Get("nanos"))
	f, _ := units.Add(nanos.Shift(-9)).Float64()
	return finite(f)
}

// maxCount bounds counters so IntPart cannot overflow.
var maxCount = decimal.NewFromInt(math.MaxInt32)

// count reads a non-negative integer counter. Values out of range read as zero,
// like non-finite amounts.
func count(r gjson.Result) int {
	d := toDecimal(r)
	if d.IsNegative() || d.GreaterThan(maxCount) {
		return 0
	}
	return int(d.IntPart())
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseDate reads a transaction date in UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// displayCategory turns ASSET_TYPE_MUTUAL_FUND into "MUTUAL FUND".
func displayCategory(attribute, prefix string) string {
	name := strings.TrimPrefix(strings.TrimSpace(attribute), prefix)
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return "OTHER"
	}
	return name
}
