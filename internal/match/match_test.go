package match

import "testing"

func TestEmptyPatternMatchesEverything(t *testing.T) {
	p := Compile("")
	if !p.Match("anything") {
		t.Fatalf("expected empty pattern to match everything")
	}
}

func TestWildcardMatches(t *testing.T) {
	p := Compile("system.*")
	if !p.Match("system.cpu") {
		t.Fatalf("expected system.* to match system.cpu")
	}
	if p.Match("apps.nginx") {
		t.Fatalf("did not expect system.* to match apps.nginx")
	}
}

func TestNegationExcludesBeforeBroaderMatch(t *testing.T) {
	p := Compile("!system.cpu *")
	if p.Match("system.cpu") {
		t.Fatalf("expected negated term to win over the broader wildcard")
	}
	if !p.Match("system.net") {
		t.Fatalf("expected the trailing wildcard to still match everything else")
	}
}
