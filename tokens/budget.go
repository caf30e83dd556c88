package tokens

// DefaultCompletionReservePercent is the share of a model's context window
// held back for the completion when sizing a prompt.
const DefaultCompletionReservePercent = 25

// ContextBudget divides a model's context window between the prompt and the
// completion. The reserve keeps the model from running out of room for its
// own output when the prompt is sized close to the window.
type ContextBudget struct {
	// MaxTokens is the model's full context window.
	MaxTokens int

	// ReservePercent is the percentage of MaxTokens reserved for the
	// completion. Default is 25.
	ReservePercent int
}

// NewContextBudget creates a budget for the given context window using the
// default completion reserve.
func NewContextBudget(maxTokens int) ContextBudget {
	return ContextBudget{
		MaxTokens:      maxTokens,
		ReservePercent: DefaultCompletionReservePercent,
	}
}

// PromptTokens returns the number of tokens available for the prompt after
// the completion reserve is subtracted.
func (b ContextBudget) PromptTokens() int {
	reserve := b.ReservePercent
	if reserve <= 0 || reserve >= 100 {
		reserve = DefaultCompletionReservePercent
	}
	budget := b.MaxTokens * (100 - reserve) / 100
	if budget < 0 {
		return 0
	}
	return budget
}

// FitsPrompt returns true if the estimated token count fits within the
// prompt budget.
func (b ContextBudget) FitsPrompt(estimated int) bool {
	return estimated <= b.PromptTokens()
}
