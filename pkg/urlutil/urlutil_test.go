package urlutil

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return *u
}

func TestResolveLocation(t *testing.T) {
	base := mustParse(t, "https://archiveofourown.org")

	tests := []struct {
		name     string
		location string
		expected string
	}{
		{
			name:     "absolute location passes through",
			location: "https://example.com/elsewhere",
			expected: "https://example.com/elsewhere",
		},
		{
			name:     "root-relative location resolved against base",
			location: "/works/123456",
			expected: "https://archiveofourown.org/works/123456",
		},
		{
			name:     "relative location with query preserved",
			location: "/works?page=2",
			expected: "https://archiveofourown.org/works?page=2",
		},
		{
			name:     "leading whitespace trimmed",
			location: " /works/123456",
			expected: "https://archiveofourown.org/works/123456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLocation(base, tt.location)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.expected {
				t.Errorf("ResolveLocation(%q) = %q, want %q", tt.location, got.String(), tt.expected)
			}
		})
	}
}

func TestResolveLocation_EmptyLocation(t *testing.T) {
	base := mustParse(t, "https://archiveofourown.org")

	_, err := ResolveLocation(base, "")
	if err == nil {
		t.Fatal("expected error for empty location, got nil")
	}

	_, err = ResolveLocation(base, "   ")
	if err == nil {
		t.Fatal("expected error for blank location, got nil")
	}
}
