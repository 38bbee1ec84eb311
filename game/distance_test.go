package game

import "testing"

func TestDamerauLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"питон", "питон", 0},
		{"питон", "питoн", 1}, // latin o for cyrillic о
		{"питон", "питн", 1},
		{"питон", "питонн", 1},
		{"питон", "питно", 1},
		{"питон", "пион", 1},
		{"питон", "пито", 1},
		{"питон", "пит", 2},
		{"кот", "ток", 2},
		{"", "кот", 3},
		{"кот", "", 3},
		{"", "", 0},
	}
	for _, tt := range tests {
		if got := DamerauLevenshtein(tt.a, tt.b); got != tt.want {
			t.Fatalf("DamerauLevenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
	for _, tt := range tests {
		if got := DamerauLevenshtein(tt.b, tt.a); got != tt.want {
			t.Fatalf("DamerauLevenshtein(%q, %q) = %d, want %d", tt.b, tt.a, got, tt.want)
		}
	}
}
