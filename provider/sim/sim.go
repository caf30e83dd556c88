// Package sim implements a simulated provider adapter.
//
// The simulator streams a deterministic reply derived from the request, so
// the full routing pipeline can run end to end without network access or
// upstream credentials. The daemon registers one simulator per catalog
// provider when no real adapter is configured; tests use it for
// reproducible streams.
package sim

import (
	"context"
	"strings"
	"time"

	"github.com/randalmurphal/llmroute/provider"
	"github.com/randalmurphal/llmroute/tokens"
)

func init() {
	provider.Register("sim", func(cfg provider.Config) (provider.Client, error) {
		return New(cfg), nil
	})
}

// Client is a simulated provider adapter.
type Client struct {
	name    string
	delay   time.Duration
	counter tokens.Counter
}

// New creates a simulator. cfg.Provider sets the name reported from
// Provider() (default "sim"); the "delay" option inserts a pause between
// fragments for manual testing of slow consumers.
func New(cfg provider.Config) *Client {
	name := cfg.Provider
	if name == "" {
		name = "sim"
	}
	var delay time.Duration
	if raw := cfg.Option("delay", ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			delay = d
		}
	}
	return &Client{
		name:    name,
		delay:   delay,
		counter: tokens.NewEstimatingCounter(),
	}
}

// Provider returns the simulated provider name.
func (c *Client) Provider() string { return c.name }

// Close is a no-op; the simulator holds no resources.
func (c *Client) Close() error { return nil }

// Stream echoes the last user message back word by word, then reports
// usage computed with the estimating counter. The echo makes stream
// contents predictable: concatenating the fragments reproduces the input.
func (c *Client) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	if req.Model == "" || len(req.Messages) == 0 {
		return nil, provider.NewError(c.name, "stream", provider.ErrInvalidRequest, false)
	}

	out := make(chan provider.StreamChunk)
	go func() {
		defer close(out)

		prompt := promptText(req.Messages)
		reply := c.reply(req)

		var streamed strings.Builder
		for _, frag := range fragments(reply) {
			if c.delay > 0 {
				select {
				case <-time.After(c.delay):
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- provider.StreamChunk{Content: frag}:
				streamed.WriteString(frag)
			case <-ctx.Done():
				return
			}
		}

		usage := provider.Usage{
			PromptTokens:     c.counter.Count(prompt),
			CompletionTokens: c.counter.Count(streamed.String()),
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

		select {
		case out <- provider.StreamChunk{Usage: &usage, Done: true}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

// reply produces the simulated completion: the content of the last
// user-role message.
func (c *Client) reply(req provider.Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == provider.RoleUser {
			return req.Messages[i].Content
		}
	}
	return "(no user message)"
}

// promptText joins all message contents for prompt-token accounting.
func promptText(messages []provider.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// fragments splits a reply into word-sized pieces with their trailing
// whitespace attached, so the pieces concatenate back to the reply.
func fragments(reply string) []string {
	if reply == "" {
		return []string{""}
	}
	return strings.SplitAfter(reply, " ")
}
