package provider

import "time"

// Config holds configuration for creating a provider client.
// Common fields apply to all providers; use Options for provider-specific
// settings.
type Config struct {
	// Provider is the name the client reports from Provider(). Adapters
	// that serve several upstream brands (such as the simulator) use this
	// to take on the name of the provider they stand in for.
	Provider string `json:"provider" yaml:"provider"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates against the upstream provider.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Timeout is the maximum duration for a single streaming call.
	// 0 uses the provider default.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Options holds provider-specific configuration.
	Options map[string]string `json:"options" yaml:"options"`
}

// Option returns a provider-specific option value, or def if unset.
func (c Config) Option(key, def string) string {
	if v, ok := c.Options[key]; ok {
		return v
	}
	return def
}
