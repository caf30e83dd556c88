package catalog

import "github.com/randalmurphal/llmroute/classify"

// taskAll lists every task category; used by general-purpose models.
var taskAll = []string{
	string(classify.TaskCode),
	string(classify.TaskMath),
	string(classify.TaskCreative),
	string(classify.TaskGeneral),
}

// Default returns the compiled-in model set. It is used when no catalog file
// is configured and mirrors a typical multi-provider deployment.
func Default() *Catalog {
	c, err := New([]Model{
		{
			ID:           "gpt-4-turbo",
			Name:         "GPT-4 Turbo",
			Provider:     "openai",
			Tier:         TierEnterprise,
			MaxTokens:    128000,
			Capabilities: taskAll,
		},
		{
			ID:           "claude-3-opus",
			Name:         "Claude 3 Opus",
			Provider:     "anthropic",
			Tier:         TierEnterprise,
			MaxTokens:    200000,
			Capabilities: taskAll,
		},
		{
			ID:           "claude-3-sonnet",
			Name:         "Claude 3 Sonnet",
			Provider:     "anthropic",
			Tier:         TierPro,
			MaxTokens:    200000,
			Capabilities: taskAll,
		},
		{
			ID:           "gpt-4o",
			Name:         "GPT-4o",
			Provider:     "openai",
			Tier:         TierPro,
			MaxTokens:    128000,
			Capabilities: taskAll,
		},
		{
			ID:       "codestral",
			Name:     "Codestral",
			Provider: "mistral",
			Tier:     TierPro,
			MaxTokens: 32000,
			Capabilities: []string{
				string(classify.TaskCode),
			},
		},
		{
			ID:           "claude-3-haiku",
			Name:         "Claude 3 Haiku",
			Provider:     "anthropic",
			Tier:         TierFree,
			MaxTokens:    200000,
			Capabilities: taskAll,
		},
		{
			ID:           "gpt-3.5-turbo",
			Name:         "GPT-3.5 Turbo",
			Provider:     "openai",
			Tier:         TierFree,
			MaxTokens:    16385,
			Capabilities: taskAll,
		},
		{
			ID:           "mistral-small",
			Name:         "Mistral Small",
			Provider:     "mistral",
			Tier:         TierFree,
			MaxTokens:    32000,
			Capabilities: taskAll,
		},
	})
	if err != nil {
		// The compiled-in set is validated by tests; reaching this is a bug.
		panic("catalog: invalid default model set: " + err.Error())
	}
	return c
}
