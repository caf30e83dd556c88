// Package catalog is the static registry of routable models.
//
// The catalog is loaded once at process start (from the compiled-in default
// set or a YAML file) and never mutated afterwards, so concurrent reads need
// no synchronization. Each model belongs to exactly one provider and exactly
// one subscription tier.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/randalmurphal/llmroute/classify"
)

// ErrModelNotFound indicates the requested model id is not in the catalog.
var ErrModelNotFound = errors.New("model not found")

// Tier is a subscription level. Callers on a given tier may use models of
// that tier and every tier below it.
type Tier string

// Subscription tiers, least capable first.
const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// rank orders tiers for access checks and capability sorting.
// Unknown tiers rank below free so they never grant access.
func (t Tier) rank() int {
	switch t {
	case TierFree:
		return 1
	case TierPro:
		return 2
	case TierEnterprise:
		return 3
	default:
		return 0
	}
}

// Valid returns true if the tier is one of the known subscription levels.
func (t Tier) Valid() bool {
	return t.rank() > 0
}

// Allows returns true if a caller on tier t may use a model on modelTier.
func (t Tier) Allows(modelTier Tier) bool {
	if !t.Valid() || !modelTier.Valid() {
		return false
	}
	return t.rank() >= modelTier.rank()
}

// Model describes one routable model. Identity is ID.
type Model struct {
	// ID is the unique model identifier used in requests.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable model name.
	Name string `json:"name" yaml:"name"`

	// Provider is the adapter name that serves this model.
	Provider string `json:"provider" yaml:"provider"`

	// Tier is the minimum subscription level required to use the model.
	Tier Tier `json:"tier" yaml:"tier"`

	// MaxTokens is the model's context window size.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Capabilities lists the task categories the model handles well.
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
}

// SupportsTask returns true if the model lists the task among its capabilities.
func (m Model) SupportsTask(task classify.TaskType) bool {
	for _, c := range m.Capabilities {
		if c == string(task) {
			return true
		}
	}
	return false
}

// Catalog holds the model set. Construct with New or Load; read-only after.
type Catalog struct {
	models []Model
	byID   map[string]Model
}

// New builds a catalog from the given models. It fails on duplicate ids and
// on models with an unknown tier, since both break routing invariants.
func New(models []Model) (*Catalog, error) {
	byID := make(map[string]Model, len(models))
	ordered := make([]Model, 0, len(models))
	for _, m := range models {
		if m.ID == "" {
			return nil, errors.New("catalog: model with empty id")
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate model id %q", m.ID)
		}
		if !m.Tier.Valid() {
			return nil, fmt.Errorf("catalog: model %q has unknown tier %q", m.ID, m.Tier)
		}
		if m.Provider == "" {
			return nil, fmt.Errorf("catalog: model %q has no provider", m.ID)
		}
		byID[m.ID] = m
		ordered = append(ordered, m)
	}

	// Most capable first: higher tier, then larger context window.
	// ID breaks ties so the order is stable across loads.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Tier.rank() != ordered[j].Tier.rank() {
			return ordered[i].Tier.rank() > ordered[j].Tier.rank()
		}
		if ordered[i].MaxTokens != ordered[j].MaxTokens {
			return ordered[i].MaxTokens > ordered[j].MaxTokens
		}
		return ordered[i].ID < ordered[j].ID
	})

	return &Catalog{models: ordered, byID: byID}, nil
}

// ModelByID looks up a model. Returns ErrModelNotFound if absent.
func (c *Catalog) ModelByID(id string) (Model, error) {
	m, ok := c.byID[id]
	if !ok {
		return Model{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	return m, nil
}

// ModelsForTask returns the models that support the task and are accessible
// to a caller on the given tier, most capable first. The slice is a copy;
// callers may not mutate the catalog through it.
func (c *Catalog) ModelsForTask(task classify.TaskType, callerTier Tier) []Model {
	var out []Model
	for _, m := range c.models {
		if !callerTier.Allows(m.Tier) {
			continue
		}
		if !m.SupportsTask(task) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ModelsForTier returns every model accessible to the tier, most capable first.
func (c *Catalog) ModelsForTier(callerTier Tier) []Model {
	var out []Model
	for _, m := range c.models {
		if callerTier.Allows(m.Tier) {
			out = append(out, m)
		}
	}
	return out
}

// List returns all models, most capable first.
func (c *Catalog) List() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Len returns the number of models in the catalog.
func (c *Catalog) Len() int {
	return len(c.models)
}
