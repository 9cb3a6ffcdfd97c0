package promexpo

import "strings"

// oldUnits maps legacy netdata unit strings to the Prometheus-conventional
// names scrapers expect, for backward compatibility with dashboards built
// against the older naming (§4.6 point 6). Table sourced from the
// exposition path's prometheus_units_copy alias list.
var oldUnits = map[string]string{
	"percentage":   "percent",
	"per_second":   "persec",
	"KB/s":         "KBps",
	"MB/s":         "MBps",
	"GB/s":         "GBps",
	"kilobits/s":   "kilobitsps",
	"megabits/s":   "megabitsps",
	"gigabits/s":   "gigabitsps",
	"milliseconds": "ms",
	"seconds":      "s",
	"number":       "num",
}

// NormalizeUnits rewrites a chart's configured units through the OLDUNITS
// alias table when a known alias exists, otherwise returns units unchanged.
func NormalizeUnits(units string) string {
	if alias, ok := oldUnits[units]; ok {
		return alias
	}
	return units
}

// MetricUnitSuffix returns the Prometheus metric-name suffix for units,
// lower-cased and sanitized to an identifier-safe form, or empty for units
// that carry no meaningful suffix. When oldUnits is true, units first pass
// through the OLDUNITS alias table (FlagOldUnits, §4.6 point 6); otherwise
// "%" and a trailing "/s" get their own literal suffixes ("percent",
// "persec") the way the newer naming convention spells them, instead of the
// character-sanitized "_" and "s" the generic fallback would produce.
func MetricUnitSuffix(units string, oldUnits bool) string {
	u := units
	if oldUnits {
		u = NormalizeUnits(units)
	}
	switch strings.ToLower(u) {
	case "", "num", "number":
		return ""
	default:
		return "_" + sanitizeUnit(u)
	}
}

func sanitizeUnit(s string) string {
	lower := strings.ToLower(s)
	switch {
	case lower == "%":
		return "percent"
	case strings.HasSuffix(lower, "/s"):
		return "persec"
	}

	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
