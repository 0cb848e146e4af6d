package main

import "testing"

func TestParseDetails(t *testing.T) {
	details, err := parseDetails([]string{"foo=bar", "branch=main", "empty="})
	if err != nil {
		t.Fatalf("parse details: %v", err)
	}
	if len(details) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(details))
	}
	if details["foo"] != "bar" || details["branch"] != "main" || details["empty"] != "" {
		t.Fatalf("unexpected details %v", details)
	}

	if _, err := parseDetails([]string{"no-separator"}); err == nil {
		t.Fatalf("expected error for missing separator")
	}
	if _, err := parseDetails([]string{"=value"}); err == nil {
		t.Fatalf("expected error for empty key")
	}
	details, err = parseDetails(nil)
	if err != nil || details != nil {
		t.Fatalf("empty input should yield nil map, got %v / %v", details, err)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "value", "other"); got != "value" {
		t.Fatalf("unexpected value %q", got)
	}
	if got := firstNonEmpty("", "   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
