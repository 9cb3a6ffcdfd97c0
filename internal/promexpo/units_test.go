package promexpo

import "testing"

func TestNormalizeUnitsAppliesKnownAlias(t *testing.T) {
	if got := NormalizeUnits("percentage"); got != "percent" {
		t.Fatalf("got %q want percent", got)
	}
}

func TestNormalizeUnitsPassesThroughUnknown(t *testing.T) {
	if got := NormalizeUnits("widgets"); got != "widgets" {
		t.Fatalf("got %q want widgets", got)
	}
}

func TestMetricUnitSuffixEmptyForBareNumber(t *testing.T) {
	if got := MetricUnitSuffix("number", false); got != "" {
		t.Fatalf("got %q want empty suffix", got)
	}
}

func TestMetricUnitSuffixPercentLiteral(t *testing.T) {
	if got := MetricUnitSuffix("%", false); got != "_percent" {
		t.Fatalf("got %q want _percent", got)
	}
}

func TestMetricUnitSuffixPerSecondLiteral(t *testing.T) {
	if got := MetricUnitSuffix("requests/s", false); got != "_persec" {
		t.Fatalf("got %q want _persec", got)
	}
}

func TestMetricUnitSuffixOldUnitsAliasesBeforeSanitizing(t *testing.T) {
	if got := MetricUnitSuffix("KB/s", true); got != "_kbps" {
		t.Fatalf("got %q want _kbps", got)
	}
}

func TestMetricUnitSuffixWithoutOldUnitsUsesPerSecLiteral(t *testing.T) {
	if got := MetricUnitSuffix("KB/s", false); got != "_persec" {
		t.Fatalf("got %q want _persec", got)
	}
}

func TestMetricUnitSuffixSanitizesOtherPunctuation(t *testing.T) {
	if got := MetricUnitSuffix("widget count", false); got != "_widget_count" {
		t.Fatalf("got %q want _widget_count", got)
	}
}
