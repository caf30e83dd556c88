package segment

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{0, -1, -100} {
		_, err := Split("hello", size)
		if !errors.Is(err, ErrInvalidChunkSize) {
			t.Errorf("Split with size %d: expected ErrInvalidChunkSize, got %v", size, err)
		}
	}
}

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split("", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_FitsInOneChunk(t *testing.T) {
	chunks, err := Split("hello world", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Errorf("expected single chunk, got %q", chunks)
	}
}

func TestSplit_WordBoundaries(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	chunks, err := Split(text, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, c := range chunks {
		// No chunk may start or end mid-word unless the word itself is
		// longer than the budget (not the case here).
		trimmed := strings.TrimSpace(c)
		if trimmed == "" {
			t.Errorf("chunk %d is whitespace only: %q", i, c)
		}
		if !strings.Contains(text, trimmed) {
			t.Errorf("chunk %d content %q not found in original", i, trimmed)
		}
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Errorf("concatenation mismatch:\n got %q\nwant %q", got, text)
	}
}

func TestSplit_LongUnbrokenWord(t *testing.T) {
	// A single word longer than the budget must be hard-cut, not looped on.
	text := strings.Repeat("x", 25)
	chunks, err := Split(text, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Error("concatenation mismatch for unbroken word")
	}
}

func TestSplit_Properties(t *testing.T) {
	texts := []string{
		"short",
		"the quick brown fox jumps over the lazy dog",
		strings.Repeat("word ", 200),
		strings.Repeat("antidisestablishmentarianism ", 40),
		"line one\nline two\n\nline four\ttabbed",
		"unicode résumé naïve 日本語のテキスト and more words here",
		strings.Repeat("x", 100) + " " + strings.Repeat("y", 100),
	}
	budgets := []int{1, 3, 7, 16, 50, 1000}

	for _, text := range texts {
		for _, budget := range budgets {
			chunks, err := Split(text, budget)
			if err != nil {
				t.Fatalf("Split(%q, %d): %v", text, budget, err)
			}

			if strings.Join(chunks, "") != text {
				t.Errorf("budget %d: concatenation does not reconstruct original", budget)
			}
			for i, c := range chunks {
				if c == "" {
					t.Errorf("budget %d: chunk %d is empty", budget, i)
				}
				if n := utf8.RuneCountInString(c); n > budget {
					t.Errorf("budget %d: chunk %d has %d chars", budget, i, n)
				}
			}
		}
	}
}
