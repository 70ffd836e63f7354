package strutil

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"empty string", "", 10, ""},
		{"short string", "Louvre", 10, "Louvre"},
		{"exact length", "Paris", 5, "Paris"},
		{"needs truncation", "Palace of Versailles", 6, "Palace..."},

		{"zero max", "Paris", 0, ""},
		{"negative max", "Paris", -1, ""},

		// Rune safety: accented names count by rune, not byte.
		{"accented exact", "Musée", 5, "Musée"},
		{"accented truncated", "Musée d'Orsay", 5, "Musée..."},
		{"accent at boundary", "Café de Flore", 4, "Café..."},

		{"max 1", "abc", 1, "a..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.max); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
			}
		})
	}
}
