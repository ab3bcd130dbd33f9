package env

import "testing"

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("STOREFRONT_LOG_FORMAT", "  ")
	t.Setenv("LOG_FORMAT", "console")

	if got := First("json", "STOREFRONT_LOG_FORMAT", "LOG_FORMAT"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
	t.Setenv("STOREFRONT_LOG_FORMAT", "json")
	if got := First("console", "STOREFRONT_LOG_FORMAT", "LOG_FORMAT"); got != "json" {
		t.Fatalf("expected json, got %q", got)
	}
	if got := Get("STOREFRONT_UNSET_KEY", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
