package tokens

import (
	"unicode/utf8"
)

// DefaultCharsPerToken is the assumed character-to-token ratio: roughly
// four characters of English text per token.
const DefaultCharsPerToken = 4

// Counter estimates token counts for text.
type Counter interface {
	// Count estimates the number of tokens in the text.
	Count(text string) int

	// FitsInLimit reports whether the text's estimate is within limit.
	FitsInLimit(text string, limit int) bool
}

// EstimatingCounter estimates by dividing the rune count by a fixed ratio.
// Counts are rounded up so an estimate never undershoots a budget check.
type EstimatingCounter struct {
	// CharsPerToken is the ratio; non-positive values fall back to the
	// default of 4.
	CharsPerToken int
}

// NewEstimatingCounter creates a counter with the default ratio.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{CharsPerToken: DefaultCharsPerToken}
}

// NewEstimatingCounterWithRatio creates a counter with a custom ratio.
// A ratio <= 0 uses the default.
func NewEstimatingCounterWithRatio(charsPerToken int) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{CharsPerToken: charsPerToken}
}

// Count estimates the token count as ceil(runes / ratio). Runes rather than
// bytes, so multi-byte text is not over-counted. Real tokenizers will
// disagree on exact numbers; routing only needs a conservative estimate.
func (c *EstimatingCounter) Count(text string) int {
	runeCount := utf8.RuneCountInString(text)
	if runeCount == 0 {
		return 0
	}
	ratio := c.ratio()
	return (runeCount + ratio - 1) / ratio
}

// FitsInLimit reports whether the text's estimate is within limit.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// CharsForTokens converts a token budget back into a character budget.
// It is the inverse of Count and is used when a character-oriented
// operation (such as prompt splitting) must honor a token limit.
func (c *EstimatingCounter) CharsForTokens(tokenLimit int) int {
	if tokenLimit <= 0 {
		return 0
	}
	return tokenLimit * c.ratio()
}

func (c *EstimatingCounter) ratio() int {
	if c.CharsPerToken <= 0 {
		return DefaultCharsPerToken
	}
	return c.CharsPerToken
}

// EstimateTokens counts with the default ratio.
func EstimateTokens(text string) int {
	return NewEstimatingCounter().Count(text)
}
