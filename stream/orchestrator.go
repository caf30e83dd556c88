package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/llmroute/provider"
	"github.com/randalmurphal/llmroute/route"
)

// DefaultSegmentTimeout bounds one provider invocation. Slow providers are
// reported as a provider error rather than hanging the request forever.
const DefaultSegmentTimeout = 2 * time.Minute

// ErrIncompleteStream indicates the provider closed its channel without a
// final usage chunk.
var ErrIncompleteStream = errors.New("provider stream ended without usage")

// Config assembles the inputs for one orchestrated request.
type Config struct {
	// Client is the provider adapter serving the selected model.
	Client provider.Client

	// Decision is the routing outcome to execute.
	Decision route.Decision

	// Messages is the full conversation, ordered. In segmented mode only
	// the system messages are carried into each segment.
	Messages []provider.Message

	// Temperature is passed through to the provider.
	Temperature float64

	// SegmentTimeout bounds each provider invocation.
	// 0 uses DefaultSegmentTimeout.
	SegmentTimeout time.Duration
}

// state is the orchestrator's position in the event grammar.
type state int

const (
	stateStart state = iota
	stateEmitMetadata
	stateSingleShot
	stateMultiSegment
	stateEmitUsage
	stateEmitError
	stateEmitDone
	stateClosed
)

// Orchestrator drives the provider adapter for one request and frames its
// output into an ordered event stream.
//
// The orchestrator is an explicit state machine:
//
//	Start -> EmitMetadata -> {SingleShot | MultiSegment}
//	      -> EmitUsage -> EmitDone -> Closed
//
// with Error reachable from any state after Start. Keeping the transitions
// explicit makes the two structural guarantees checkable in isolation: done
// is always the last event written, and the output channel is closed exactly
// once. A cancelled consumer short-circuits straight to Closed, since there
// is nobody left to read a done frame.
type Orchestrator struct {
	cfg Config

	usage provider.Usage
}

// New creates an orchestrator for one request. The orchestrator is single
// use: Run may be called once.
func New(cfg Config) *Orchestrator {
	if cfg.SegmentTimeout <= 0 {
		cfg.SegmentTimeout = DefaultSegmentTimeout
	}
	return &Orchestrator{cfg: cfg}
}

// Run executes the request and returns the event channel. The channel is
// unbuffered: a slow consumer blocks the orchestrator, which in turn stops
// pulling fragments from the provider. That back-pressure is intentional —
// the adapter must not run unbounded ahead of the consumer.
//
// The channel is closed exactly once, after the final event.
func (o *Orchestrator) Run(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go o.run(ctx, out)
	return out
}

// Usage returns the token consumption actually observed. In segmented mode
// failed segments contribute nothing, so a partial run undercounts rather
// than overcounts. Valid only after the event channel has closed.
func (o *Orchestrator) Usage() provider.Usage {
	return o.usage
}

func (o *Orchestrator) run(ctx context.Context, out chan<- Event) {
	defer close(out)

	st := stateStart
	var runErr error

	for st != stateClosed {
		switch st {
		case stateStart:
			st = stateEmitMetadata

		case stateEmitMetadata:
			if !o.send(ctx, out, o.metadataEvent()) {
				st = stateClosed
				continue
			}
			if o.cfg.Decision.Segmented() {
				st = stateMultiSegment
			} else {
				st = stateSingleShot
			}

		case stateSingleShot:
			runErr = o.runSingleShot(ctx, out)
			st = o.afterStreaming(ctx, runErr)

		case stateMultiSegment:
			runErr = o.runMultiSegment(ctx, out)
			st = o.afterStreaming(ctx, runErr)

		case stateEmitUsage:
			u := o.usage
			ok := o.send(ctx, out, Event{Type: EventUsage, Usage: &UsageEvent{
				PromptTokens:     u.PromptTokens,
				CompletionTokens: u.CompletionTokens,
				TotalTokens:      u.TotalTokens,
			}})
			if !ok {
				st = stateClosed
				continue
			}
			st = stateEmitDone

		case stateEmitError:
			ok := o.send(ctx, out, Event{Type: EventError, Error: &ErrorEvent{
				Message: runErr.Error(),
			}})
			if !ok {
				st = stateClosed
				continue
			}
			st = stateEmitDone

		case stateEmitDone:
			o.send(ctx, out, Event{Type: EventDone})
			st = stateClosed
		}
	}
}

// afterStreaming picks the next state once a streaming branch returns.
func (o *Orchestrator) afterStreaming(ctx context.Context, runErr error) state {
	if ctx.Err() != nil {
		// Consumer is gone; nothing further can be delivered.
		return stateClosed
	}
	if runErr != nil {
		return stateEmitError
	}
	return stateEmitUsage
}

// runSingleShot invokes the provider once with the full message list and
// forwards fragments in arrival order. The adapter's final usage record is
// taken verbatim.
func (o *Orchestrator) runSingleShot(ctx context.Context, out chan<- Event) error {
	req := provider.Request{
		Messages:    o.cfg.Messages,
		Model:       o.cfg.Decision.Model.ID,
		Temperature: o.cfg.Temperature,
	}
	return o.streamOne(ctx, out, req, func(u provider.Usage) {
		o.usage = u
	})
}

// runMultiSegment processes the prompt segments strictly in order. Each
// segment sees only the system messages plus its own text; prior
// conversation turns are not replayed. Completion tokens accumulate across
// segments, while the prompt side stays fixed at the router's estimate.
func (o *Orchestrator) runMultiSegment(ctx context.Context, out chan<- Event) error {
	systems := systemMessages(o.cfg.Messages)
	total := o.cfg.Decision.SegmentCount()

	o.usage = provider.Usage{
		PromptTokens: o.cfg.Decision.EstimatedPromptTokens,
		TotalTokens:  o.cfg.Decision.EstimatedPromptTokens,
	}

	for i, segText := range o.cfg.Decision.Segments {
		ok := o.send(ctx, out, Event{Type: EventSegment, Segment: &SegmentEvent{
			Index: i + 1,
			Total: total,
		}})
		if !ok {
			return ctx.Err()
		}

		req := provider.Request{
			Messages:    append(append([]provider.Message{}, systems...), provider.Message{Role: provider.RoleUser, Content: segText}),
			Model:       o.cfg.Decision.Model.ID,
			Temperature: o.cfg.Temperature,
		}
		err := o.streamOne(ctx, out, req, func(u provider.Usage) {
			o.usage.CompletionTokens += u.CompletionTokens
			o.usage.TotalTokens += u.CompletionTokens
		})
		if err != nil {
			return fmt.Errorf("segment %d/%d: %w", i+1, total, err)
		}
	}
	return nil
}

// streamOne drives a single provider invocation under the segment timeout,
// forwarding each fragment as a chunk event. record is called with the
// adapter's usage when the invocation completes.
func (o *Orchestrator) streamOne(ctx context.Context, out chan<- Event, req provider.Request, record func(provider.Usage)) error {
	segCtx, cancel := context.WithTimeout(ctx, o.cfg.SegmentTimeout)
	defer cancel()

	name := o.cfg.Client.Provider()
	ch, err := o.cfg.Client.Stream(segCtx, req)
	if err != nil {
		return provider.NewError(name, "stream", err, provider.IsRetryable(err))
	}

	sawDone := false
	for {
		select {
		case chunk, open := <-ch:
			if !open {
				if !sawDone {
					return provider.NewError(name, "stream", ErrIncompleteStream, true)
				}
				return nil
			}
			if chunk.Error != nil {
				return provider.NewError(name, "stream", chunk.Error, provider.IsRetryable(chunk.Error))
			}
			if chunk.Content != "" {
				if !o.send(ctx, out, Event{Type: EventChunk, Chunk: &ChunkEvent{Content: chunk.Content}}) {
					return ctx.Err()
				}
			}
			if chunk.Done {
				sawDone = true
				if chunk.Usage != nil {
					record(*chunk.Usage)
				}
			}

		case <-segCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return provider.NewError(name, "stream", provider.ErrTimeout, true)
		}
	}
}

// send delivers one event, honoring consumer cancellation. Returns false
// when the context is done before the event could be written.
func (o *Orchestrator) send(ctx context.Context, out chan<- Event, e Event) bool {
	select {
	case out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) metadataEvent() Event {
	d := o.cfg.Decision
	md := &MetadataEvent{
		ModelID:   d.Model.ID,
		ModelName: d.Model.Name,
		Provider:  d.Model.Provider,
		TaskType:  d.Task.String(),
		Segmented: d.Segmented(),
	}
	if d.Segmented() {
		md.SegmentCount = d.SegmentCount()
	}
	return Event{Type: EventMetadata, Metadata: md}
}

// systemMessages filters the conversation down to system-role entries,
// preserving order.
func systemMessages(messages []provider.Message) []provider.Message {
	var out []provider.Message
	for _, m := range messages {
		if m.Role == provider.RoleSystem {
			out = append(out, m)
		}
	}
	return out
}
