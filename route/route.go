// Package route selects a concrete model for a chat request and decides
// whether the prompt must be segmented to fit the model's context window.
package route

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/llmroute/catalog"
	"github.com/randalmurphal/llmroute/classify"
	"github.com/randalmurphal/llmroute/segment"
	"github.com/randalmurphal/llmroute/tokens"
)

// Sentinel errors for routing failures.
var (
	// ErrTierForbidden indicates the caller's tier does not grant access
	// to the requested model.
	ErrTierForbidden = errors.New("model tier forbidden for caller")

	// ErrNoEligibleModel indicates no catalog model matches the task
	// within the caller's tier.
	ErrNoEligibleModel = errors.New("no eligible model")
)

// Decision is the outcome of routing one request. It is created once per
// request, consumed immediately by the orchestrator, and never persisted.
type Decision struct {
	// Model is the selected model.
	Model catalog.Model

	// Task is the classified task category of the prompt.
	Task classify.TaskType

	// EstimatedPromptTokens is the size estimate the routing and quota
	// decisions were based on.
	EstimatedPromptTokens int

	// Segments holds the ordered sub-prompts when the prompt exceeds the
	// model's prompt budget. Nil means single-shot mode.
	Segments []string
}

// Segmented reports whether the prompt was split.
func (d Decision) Segmented() bool {
	return len(d.Segments) > 0
}

// SegmentCount returns the number of sub-prompts (0 for single-shot).
func (d Decision) SegmentCount() int {
	return len(d.Segments)
}

// Router routes prompts against a model catalog.
type Router struct {
	catalog *catalog.Catalog
	counter *tokens.EstimatingCounter
}

// NewRouter creates a router over the given catalog.
func NewRouter(cat *catalog.Catalog) *Router {
	return &Router{
		catalog: cat,
		counter: tokens.NewEstimatingCounter(),
	}
}

// Route picks a model for the prompt and sizes it against the model's
// context window.
//
// With preferredModelID set, the named model is used if it exists
// (catalog.ErrModelNotFound otherwise) and the caller's tier allows it
// (ErrTierForbidden otherwise). Without a preference, the prompt's task
// category selects the most capable tier-eligible model; ErrNoEligibleModel
// when there is none.
//
// When the estimated prompt size exceeds the model's prompt budget (the
// context window minus the completion reserve), the prompt is split into
// ordered segments each within budget.
func (r *Router) Route(prompt string, callerTier catalog.Tier, preferredModelID string) (Decision, error) {
	task := classify.Classify(prompt)

	var model catalog.Model
	if preferredModelID != "" {
		m, err := r.catalog.ModelByID(preferredModelID)
		if err != nil {
			return Decision{}, err
		}
		if !callerTier.Allows(m.Tier) {
			return Decision{}, fmt.Errorf("%w: model %s requires tier %s, caller has %s",
				ErrTierForbidden, m.ID, m.Tier, callerTier)
		}
		model = m
	} else {
		eligible := r.catalog.ModelsForTask(task, callerTier)
		if len(eligible) == 0 {
			return Decision{}, fmt.Errorf("%w for task %s on tier %s", ErrNoEligibleModel, task, callerTier)
		}
		model = eligible[0]
	}

	decision := Decision{
		Model:                 model,
		Task:                  task,
		EstimatedPromptTokens: r.counter.Count(prompt),
	}

	budget := tokens.NewContextBudget(model.MaxTokens)
	if !budget.FitsPrompt(decision.EstimatedPromptTokens) {
		maxChars := r.counter.CharsForTokens(budget.PromptTokens())
		segments, err := segment.Split(prompt, maxChars)
		if err != nil {
			// Only reachable with a non-positive budget, which means a
			// misconfigured model entry.
			return Decision{}, fmt.Errorf("segment prompt for model %s: %w", model.ID, err)
		}
		decision.Segments = segments
	}

	return decision, nil
}
