// Package sanitize rewrites chart, dimension, and label text into the
// character sets each wire formatter accepts, mirroring the netdata
// exporting engine's name-cleanup helpers (§4.2, §4.6).
package sanitize

import "strings"

// isAllowed reports whether r is safe to emit unescaped in a Graphite-style
// dotted metric name: letters, digits, dot, underscore, and hyphen.
func isAllowed(r rune, keepDot bool) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	case r == '.':
		return keepDot
	default:
		return false
	}
}

// Name replaces every character outside [A-Za-z0-9_-] with an underscore.
// Used for OpenTSDB/JSON metric and tag names, where dots have no special
// meaning and are sanitized away like any other separator.
func Name(s string) string {
	return rewrite(s, false)
}

// NameKeepDot is like Name but additionally preserves '.' — used for
// Graphite-style dotted metric paths, where the dot is the path separator
// and must survive sanitization.
func NameKeepDot(s string) string {
	return rewrite(s, true)
}

func rewrite(s string, keepDot bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isAllowed(r, keepDot) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// LabelValue escapes a label value for inclusion in the Prometheus text
// exposition format: backslash, double-quote, and newline are escaped,
// everything else passes through untouched (unlike Name/NameKeepDot, label
// values are not restricted to an identifier charset).
func LabelValue(s string) string {
	if !strings.ContainsAny(s, "\\\"\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
