package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"leading and trailing spaces", "  Ceylon Sapphire  ", "Ceylon Sapphire"},
		{"internal whitespace collapsed", "Blue   Sapphire", "Blue Sapphire"},
		{"tabs and newlines", "Star\tRuby\nfrom Ratnapura", "Star Ruby from Ratnapura"},
		{"case preserved", "Padparadscha", "Padparadscha"},
		{"unicode letters kept", "Améthyste  naturelle", "Améthyste naturelle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTrimAndNormalizeIdempotent(t *testing.T) {
	inputs := []string{"  Blue   Sapphire ", "Star\tRuby", "plain"}
	for _, in := range inputs {
		once := TrimAndNormalize(in)
		twice := TrimAndNormalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestSanitizeSpecies(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Corundum", "corundum"},
		{"spaces to underscore", "Blue Sapphire", "blue_sapphire"},
		{"hyphens removed", "cats-eye", "cats_eye"},
		{"digits stripped", "moonstone2", "moonstone"},
		{"empty", "", ""},
		{"only punctuation", "---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeSpecies(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeSpecies(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeSearchKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"keeps digits", "Ruby 5ct", "ruby_5ct"},
		{"collapses separators", "star -- ruby", "star_ruby"},
		{"trims underscores", "  !sapphire!  ", "sapphire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeSearchKey(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeSearchKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "dedupes after normalization",
			input:    []string{"Blue Sapphire", "blue sapphire", "Ruby"},
			expected: []string{"blue_sapphire", "ruby"},
		},
		{
			name:     "drops empties",
			input:    []string{"", "  ", "garnet"},
			expected: []string{"garnet"},
		},
		{
			name:     "preserves order",
			input:    []string{"zircon", "amethyst", "zircon"},
			expected: []string{"zircon", "amethyst"},
		},
		{
			name:     "empty input",
			input:    []string{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeSlice(tt.input, SanitizeSearchKey)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SanitizeSlice(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"adds https", "gemlab.lk/certificates/123", "https://gemlab.lk/certificates/123"},
		{"strips www", "https://www.gemlab.lk/cert", "https://gemlab.lk/cert"},
		{"drops utm params", "https://gemlab.lk/cert?utm_source=mail&id=9", "https://gemlab.lk/cert?id=9"},
		{"empty input", "", ""},
		{"garbage", "ht!tp://%%%", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeURL(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
