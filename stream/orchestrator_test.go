package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/llmroute/catalog"
	"github.com/randalmurphal/llmroute/classify"
	"github.com/randalmurphal/llmroute/provider"
	"github.com/randalmurphal/llmroute/route"
)

// scriptedClient replays canned chunk sequences, one script per Stream call.
// The last script repeats if there are more calls than scripts.
type scriptedClient struct {
	mu       sync.Mutex
	name     string
	scripts  [][]provider.StreamChunk
	startErr error
	hang     bool
	calls    int
}

func (c *scriptedClient) Provider() string { return c.name }
func (c *scriptedClient) Close() error     { return nil }

func (c *scriptedClient) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	if c.startErr != nil {
		return nil, c.startErr
	}
	c.mu.Lock()
	idx := c.calls
	if idx >= len(c.scripts) {
		idx = len(c.scripts) - 1
	}
	script := c.scripts[idx]
	c.calls++
	c.mu.Unlock()

	ch := make(chan provider.StreamChunk)
	go func() {
		defer close(ch)
		if c.hang {
			<-ctx.Done()
			return
		}
		for _, chunk := range script {
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func usageChunk(prompt, completion int) provider.StreamChunk {
	return provider.StreamChunk{
		Done: true,
		Usage: &provider.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}
}

func testModel() catalog.Model {
	return catalog.Model{
		ID: "free-1", Name: "Free One", Provider: "acme",
		Tier: catalog.TierFree, MaxTokens: 8000,
		Capabilities: []string{"general"},
	}
}

func userMessages(content string) []provider.Message {
	return []provider.Message{{Role: provider.RoleUser, Content: content}}
}

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestRun_SingleShot(t *testing.T) {
	client := &scriptedClient{name: "acme", scripts: [][]provider.StreamChunk{{
		{Content: "roses "},
		{Content: "are "},
		{Content: "red"},
		usageChunk(7, 3),
	}}}

	o := New(Config{
		Client:   client,
		Decision: route.Decision{Model: testModel(), Task: classify.TaskCreative, EstimatedPromptTokens: 7},
		Messages: userMessages("write a poem"),
	})
	events := collect(t, o.Run(context.Background()))

	require.Equal(t,
		[]EventType{EventMetadata, EventChunk, EventChunk, EventChunk, EventUsage, EventDone},
		eventTypes(events))

	md := events[0].Metadata
	assert.Equal(t, "free-1", md.ModelID)
	assert.Equal(t, "acme", md.Provider)
	assert.Equal(t, "creative", md.TaskType)
	assert.False(t, md.Segmented)
	assert.Zero(t, md.SegmentCount)

	var content strings.Builder
	for _, e := range events {
		if e.Type == EventChunk {
			content.WriteString(e.Chunk.Content)
		}
	}
	assert.Equal(t, "roses are red", content.String(), "fragments forwarded in arrival order")

	usage := events[len(events)-2].Usage
	assert.Equal(t, &UsageEvent{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10}, usage)
	assert.Equal(t, provider.Usage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10}, o.Usage())
}

func TestRun_MultiSegment(t *testing.T) {
	client := &scriptedClient{name: "acme", scripts: [][]provider.StreamChunk{
		{{Content: "part one"}, usageChunk(40, 11)},
		{{Content: "part two"}, usageChunk(35, 22)},
		{{Content: "part three"}, usageChunk(30, 33)},
	}}

	o := New(Config{
		Client: client,
		Decision: route.Decision{
			Model:                 testModel(),
			Task:                  classify.TaskGeneral,
			EstimatedPromptTokens: 100,
			Segments:              []string{"seg a", "seg b", "seg c"},
		},
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "be thorough"},
			{Role: provider.RoleUser, Content: "seg a seg b seg c"},
		},
	})
	events := collect(t, o.Run(context.Background()))

	require.Equal(t, []EventType{
		EventMetadata,
		EventSegment, EventChunk,
		EventSegment, EventChunk,
		EventSegment, EventChunk,
		EventUsage, EventDone,
	}, eventTypes(events))

	md := events[0].Metadata
	assert.True(t, md.Segmented)
	assert.Equal(t, 3, md.SegmentCount)

	var segs []SegmentEvent
	for _, e := range events {
		if e.Type == EventSegment {
			segs = append(segs, *e.Segment)
		}
	}
	require.Len(t, segs, 3)
	for i, s := range segs {
		assert.Equal(t, i+1, s.Index, "segment index is 1-based")
		assert.Equal(t, 3, s.Total)
	}

	// Prompt side stays at the router's estimate; completions are summed.
	usage := events[len(events)-2].Usage
	assert.Equal(t, &UsageEvent{PromptTokens: 100, CompletionTokens: 66, TotalTokens: 166}, usage)
}

func TestRun_SegmentRequestsCarrySystemContextOnly(t *testing.T) {
	var mu sync.Mutex
	var seen []provider.Request

	client := &recordingClient{onStream: func(req provider.Request) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
	}}

	o := New(Config{
		Client: client,
		Decision: route.Decision{
			Model:                 testModel(),
			EstimatedPromptTokens: 50,
			Segments:              []string{"first segment", "second segment"},
		},
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "system rule"},
			{Role: provider.RoleUser, Content: "old turn"},
			{Role: provider.RoleAssistant, Content: "old reply"},
			{Role: provider.RoleUser, Content: "first segment second segment"},
		},
	})
	collect(t, o.Run(context.Background()))

	require.Len(t, seen, 2)
	for i, req := range seen {
		require.Len(t, req.Messages, 2, "system messages plus the segment text only")
		assert.Equal(t, provider.RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "system rule", req.Messages[0].Content)
		assert.Equal(t, provider.RoleUser, req.Messages[1].Role)
		if i == 0 {
			assert.Equal(t, "first segment", req.Messages[1].Content)
		} else {
			assert.Equal(t, "second segment", req.Messages[1].Content)
		}
	}
}

// recordingClient notes each request and completes immediately.
type recordingClient struct {
	onStream func(provider.Request)
}

func (c *recordingClient) Provider() string { return "recorder" }
func (c *recordingClient) Close() error     { return nil }

func (c *recordingClient) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	c.onStream(req)
	ch := make(chan provider.StreamChunk, 1)
	ch <- usageChunk(1, 1)
	close(ch)
	return ch, nil
}

func TestRun_ProviderErrorMidStream(t *testing.T) {
	client := &scriptedClient{name: "acme", scripts: [][]provider.StreamChunk{{
		{Content: "partial "},
		{Error: errors.New("connection reset"), Done: true},
	}}}

	o := New(Config{
		Client:   client,
		Decision: route.Decision{Model: testModel(), EstimatedPromptTokens: 5},
		Messages: userMessages("hi"),
	})
	events := collect(t, o.Run(context.Background()))

	require.Equal(t,
		[]EventType{EventMetadata, EventChunk, EventError, EventDone},
		eventTypes(events))
	assert.Contains(t, events[2].Error.Message, "connection reset")
	assert.Zero(t, o.Usage().TotalTokens, "no usage for a failed single shot")
}

func TestRun_StreamSetupError(t *testing.T) {
	client := &scriptedClient{name: "acme", startErr: provider.ErrUnavailable}

	o := New(Config{
		Client:   client,
		Decision: route.Decision{Model: testModel(), EstimatedPromptTokens: 5},
		Messages: userMessages("hi"),
	})
	events := collect(t, o.Run(context.Background()))

	require.Equal(t, []EventType{EventMetadata, EventError, EventDone}, eventTypes(events))
	assert.Contains(t, events[1].Error.Message, "unavailable")
}

func TestRun_IncompleteStream(t *testing.T) {
	// Channel closes without a done chunk: protocol violation.
	client := &scriptedClient{name: "acme", scripts: [][]provider.StreamChunk{{
		{Content: "text"},
	}}}

	o := New(Config{
		Client:   client,
		Decision: route.Decision{Model: testModel(), EstimatedPromptTokens: 5},
		Messages: userMessages("hi"),
	})
	events := collect(t, o.Run(context.Background()))

	require.Equal(t, []EventType{EventMetadata, EventChunk, EventError, EventDone}, eventTypes(events))
	assert.Contains(t, events[2].Error.Message, "without usage")
}

func TestRun_SegmentTimeout(t *testing.T) {
	client := &scriptedClient{name: "acme", hang: true, scripts: [][]provider.StreamChunk{nil}}

	o := New(Config{
		Client:         client,
		Decision:       route.Decision{Model: testModel(), EstimatedPromptTokens: 5},
		Messages:       userMessages("hi"),
		SegmentTimeout: 20 * time.Millisecond,
	})
	events := collect(t, o.Run(context.Background()))

	require.Equal(t, []EventType{EventMetadata, EventError, EventDone}, eventTypes(events))
	assert.Contains(t, events[1].Error.Message, "timed out")
}

func TestRun_MultiSegmentPartialFailure(t *testing.T) {
	client := &scriptedClient{name: "acme", scripts: [][]provider.StreamChunk{
		{{Content: "ok"}, usageChunk(10, 25)},
		{{Error: errors.New("boom"), Done: true}},
	}}

	o := New(Config{
		Client: client,
		Decision: route.Decision{
			Model:                 testModel(),
			EstimatedPromptTokens: 80,
			Segments:              []string{"a", "b", "c"},
		},
		Messages: userMessages("a b c"),
	})
	events := collect(t, o.Run(context.Background()))

	types := eventTypes(events)
	require.Equal(t, []EventType{
		EventMetadata, EventSegment, EventChunk, EventSegment, EventError, EventDone,
	}, types)
	assert.Contains(t, events[4].Error.Message, "segment 2/3")

	// Completed segments keep their completion tokens (undercount, never
	// overcount).
	assert.Equal(t, 25, o.Usage().CompletionTokens)
}

func TestRun_ConsumerCancellation(t *testing.T) {
	long := make([]provider.StreamChunk, 0, 101)
	for i := 0; i < 100; i++ {
		long = append(long, provider.StreamChunk{Content: "x"})
	}
	long = append(long, usageChunk(1, 100))
	client := &scriptedClient{name: "acme", scripts: [][]provider.StreamChunk{long}}

	ctx, cancel := context.WithCancel(context.Background())
	o := New(Config{
		Client:   client,
		Decision: route.Decision{Model: testModel(), EstimatedPromptTokens: 5},
		Messages: userMessages("hi"),
	})
	ch := o.Run(ctx)

	// Read a few events, then disconnect.
	<-ch
	<-ch
	cancel()

	// The orchestrator must close the channel promptly rather than block
	// on the departed consumer.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after cancellation")
		}
	}
}

func TestRun_DoneIsAlwaysLast(t *testing.T) {
	scripts := map[string]*scriptedClient{
		"success": {name: "acme", scripts: [][]provider.StreamChunk{{{Content: "a"}, usageChunk(1, 1)}}},
		"failure": {name: "acme", scripts: [][]provider.StreamChunk{{{Error: errors.New("x"), Done: true}}}},
	}

	for name, client := range scripts {
		t.Run(name, func(t *testing.T) {
			o := New(Config{
				Client:   client,
				Decision: route.Decision{Model: testModel(), EstimatedPromptTokens: 1},
				Messages: userMessages("hi"),
			})
			events := collect(t, o.Run(context.Background()))
			require.NotEmpty(t, events)
			assert.Equal(t, EventDone, events[len(events)-1].Type)
			for _, e := range events[:len(events)-1] {
				assert.NotEqual(t, EventDone, e.Type, "done must appear exactly once, last")
			}
		})
	}
}
