package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// missingTokens are cell values read as missing, in addition to the empty string.
var missingTokens = map[string]struct{}{
	"NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "NAN": {},
	"null": {}, "NULL": {}, "Null": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

// IsMissing reports whether a trimmed cell should be treated as missing.
func IsMissing(s string) bool {
	if s == "" {
		return true
	}
	_, ok := missingTokens[s]
	return ok
}

// timeLayouts is tried in order; month-first for slashes, day-first for dots.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"02.01.2006",
	"2.1.2006",
	"02.01.2006 15:04",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"2006-01",
}

// ParseTime parses a timestamp in any of the supported layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if IsMissing(s) {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a decimal number. dec selects the decimal separator; when
// it is ',' any '.' is treated as a thousands separator. Hexadecimal and
// underscore forms accepted by strconv are rejected, as are infinities and NaN.
func ParseNumber(s string, dec rune) (float64, bool) {
	raw := strings.TrimSpace(s)
	if IsMissing(raw) {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, " ", "")
	if strings.ContainsAny(raw, "xX_pP") {
		return 0, false
	}
	if dec == ',' {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
