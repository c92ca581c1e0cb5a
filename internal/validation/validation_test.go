package validation

import (
	"strings"
	"testing"
)

func TestIsValidDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"four chars too short", "Milk", false},
		{"five chars minimum", "Bread", true},
		{"typical description", "K50 for 2L Milk", true},
		{"empty", "", false},
		{"max length", strings.Repeat("a", 1000), true},
		{"over max length", strings.Repeat("a", 1001), false},
		{"cyrillic counted as runes", "Хлеб и молоко", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidDescription(tt.in); got != tt.want {
				t.Fatalf("IsValidDescription(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidInstructions(t *testing.T) {
	if !IsValidInstructions("") {
		t.Fatalf("empty instructions must be valid")
	}
	if !IsValidInstructions("leave at the gate") {
		t.Fatalf("short instructions must be valid")
	}
	if IsValidInstructions(strings.Repeat("x", 501)) {
		t.Fatalf("instructions over limit must be rejected")
	}
}

func TestIsValidTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"14:30", true},
		{"00:00", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"14:30:00", false},
		{"half past two", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidTimeOfDay(tt.in); got != tt.want {
			t.Fatalf("IsValidTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
