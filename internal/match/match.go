// Package match implements the "simple pattern" matching the exporting
// engine uses for hosts_pattern/charts_pattern (§3, §4.3, §6): a
// whitespace-separated list of shell-style wildcard terms, each optionally
// prefixed with '!' to negate it, evaluated left to right with the first
// matching term deciding the result.
package match

import (
	"path/filepath"
	"strings"
)

// Pattern is a compiled simple pattern.
type Pattern struct {
	terms []term
}

type term struct {
	negate bool
	glob   string
}

// Compile parses pattern into a Pattern. An empty or all-whitespace
// pattern compiles to one that matches everything, so an unset
// hosts_pattern/charts_pattern is equivalent to "export everything".
func Compile(pattern string) Pattern {
	fields := strings.Fields(pattern)
	terms := make([]term, 0, len(fields))
	for _, f := range fields {
		t := term{glob: f}
		if strings.HasPrefix(f, "!") {
			t.negate = true
			t.glob = f[1:]
		}
		terms = append(terms, t)
	}
	return Pattern{terms: terms}
}

// Match reports whether s matches p. The terms are tried in order; the
// first glob that matches s decides the outcome, so a negated term can
// carve an exception out of a broader positive term that comes after it.
// A pattern with no terms matches everything.
func (p Pattern) Match(s string) bool {
	if len(p.terms) == 0 {
		return true
	}
	for _, t := range p.terms {
		if ok, _ := filepath.Match(t.glob, s); ok {
			return !t.negate
		}
	}
	return false
}
