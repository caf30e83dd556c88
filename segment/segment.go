// Package segment splits oversized prompts into ordered sub-prompts.
//
// Splitting is purely size-driven: chunk boundaries fall on whitespace near
// the character budget so words are not cut in half, but no attempt is made
// to respect semantic structure. Concatenating the chunks reproduces the
// original text exactly, including its whitespace.
package segment

import (
	"errors"
	"unicode"
)

// ErrInvalidChunkSize indicates a non-positive chunk budget. This is a
// configuration error, not a runtime condition.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Split divides text into ordered chunks of at most maxChars characters.
//
// Guarantees: every chunk is non-empty, no chunk exceeds maxChars, and the
// chunks concatenate back to the original text. The greedy cut keeps the
// chunk count minimal for the whitespace-boundary rule. Splitting text that
// already fits returns a single chunk.
func Split(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	var chunks []string

	for start := 0; start < len(runes); {
		end := start + maxChars
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := end
		if !unicode.IsSpace(runes[cut-1]) && !unicode.IsSpace(runes[cut]) {
			// The budget line falls mid-word. Back up to the last
			// whitespace in the window; the space stays with the left
			// chunk so concatenation remains lossless.
			if ws := lastSpace(runes, start, cut); ws >= start {
				cut = ws + 1
			}
			// No whitespace in the window means one unbroken word
			// longer than the budget; hard-cut at maxChars.
		}

		chunks = append(chunks, string(runes[start:cut]))
		start = cut
	}

	return chunks, nil
}

// lastSpace returns the index of the last whitespace rune in [start, end),
// or start-1 if there is none.
func lastSpace(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return start - 1
}
