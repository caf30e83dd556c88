// Package provider defines the unified interface for LLM provider adapters.
//
// An adapter turns "stream tokens for model M given messages" into a channel
// of chunks. The routing pipeline consumes adapters through this interface
// and never talks to a provider's network API directly; each adapter is
// registered under its provider name and constructed through the registry.
//
// # Streaming protocol
//
// Stream returns a receive-only channel. Text fragments arrive as chunks
// with Content set; the final chunk has Done set and carries the request's
// Usage record. A failed stream delivers a chunk with Error set (and Done
// true) instead. The channel is always closed after the final chunk.
//
//	ch, err := client.Stream(ctx, req)
//	if err != nil { ... }
//	for chunk := range ch {
//	    if chunk.Error != nil { ... }
//	    if chunk.Done { usage = chunk.Usage }
//	    emit(chunk.Content)
//	}
package provider

import "context"

// Client is the unified interface for LLM provider adapters.
// Implementations must be safe for concurrent use.
type Client interface {
	// Stream sends a request and returns a channel of response chunks.
	// The channel is closed when streaming completes (check chunk.Done).
	// Errors during streaming are returned via chunk.Error.
	Stream(ctx context.Context, req Request) (<-chan StreamChunk, error)

	// Provider returns the provider name (e.g., "openai", "anthropic").
	Provider() string

	// Close releases any resources held by the client.
	Close() error
}
