package tokens

import (
	"strings"
	"testing"
)

func TestEstimatingCounter_Count(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "single char rounds up", text: "a", expected: 1},
		{name: "exactly one token", text: "abcd", expected: 1},
		{name: "five chars rounds up", text: "abcde", expected: 2},
		{name: "eight chars", text: "abcdefgh", expected: 2},
		{name: "hundred chars", text: strings.Repeat("x", 100), expected: 25},
	}

	counter := NewEstimatingCounter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counter.Count(tt.text); got != tt.expected {
				t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestEstimatingCounter_CountRunes(t *testing.T) {
	// Multibyte runes must be counted as single characters.
	counter := NewEstimatingCounter()
	text := strings.Repeat("é", 8)
	if got := counter.Count(text); got != 2 {
		t.Errorf("Count(8 multibyte runes) = %d, want 2", got)
	}
}

func TestEstimatingCounter_FitsInLimit(t *testing.T) {
	counter := NewEstimatingCounter()
	text := strings.Repeat("x", 40) // 10 tokens

	if !counter.FitsInLimit(text, 10) {
		t.Error("expected 10-token text to fit in limit 10")
	}
	if counter.FitsInLimit(text, 9) {
		t.Error("expected 10-token text not to fit in limit 9")
	}
}

func TestEstimatingCounter_CharsForTokens(t *testing.T) {
	counter := NewEstimatingCounter()

	if got := counter.CharsForTokens(100); got != 400 {
		t.Errorf("CharsForTokens(100) = %d, want 400", got)
	}
	if got := counter.CharsForTokens(0); got != 0 {
		t.Errorf("CharsForTokens(0) = %d, want 0", got)
	}
	if got := counter.CharsForTokens(-5); got != 0 {
		t.Errorf("CharsForTokens(-5) = %d, want 0", got)
	}
}

func TestEstimatingCounter_CustomRatio(t *testing.T) {
	counter := NewEstimatingCounterWithRatio(2)
	if got := counter.Count("abcdef"); got != 3 {
		t.Errorf("Count with ratio 2 = %d, want 3", got)
	}

	// Invalid ratio falls back to the default.
	fallback := NewEstimatingCounterWithRatio(-1)
	if fallback.CharsPerToken != DefaultCharsPerToken {
		t.Errorf("expected fallback ratio %d, got %d", DefaultCharsPerToken, fallback.CharsPerToken)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens("abcdefgh"); got != 2 {
		t.Errorf("EstimateTokens = %d, want 2", got)
	}
}
