package guard

import (
	"strings"
	"testing"
)

func TestHasLink(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"http link", "check http://spam.example/x out", true},
		{"https link", "https://spam.example", true},
		{"www link", "visit www.spam.example now", true},
		{"uppercase scheme", "HTTPS://SPAM.EXAMPLE", true},
		{"plain text", "just a normal message", false},
		{"www without suffix is still a link", "www.a", true},
		{"mention is not a link", "hello @someone", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasLink(tt.text); got != tt.want {
				t.Errorf("HasLink(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestLongTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no long tokens", "short words only here", nil},
		{"one long token", "look " + strings.Repeat("a", 15) + " here", []string{strings.Repeat("a", 15)}},
		{"fourteen chars is fine", strings.Repeat("b", 14), nil},
		{"two long tokens", strings.Repeat("x", 20) + " and " + strings.Repeat("y", 16),
			[]string{strings.Repeat("x", 20), strings.Repeat("y", 16)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LongTokens(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("LongTokens(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
