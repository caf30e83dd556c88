package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// EventType identifies the type of a framed output event.
type EventType string

// Event types in the order they may appear on the wire.
const (
	EventMetadata EventType = "metadata"
	EventSegment  EventType = "segment"
	EventChunk    EventType = "chunk"
	EventUsage    EventType = "usage"
	EventError    EventType = "error"
	EventDone     EventType = "done"
)

// MetadataEvent describes the routing outcome. Emitted once, first.
type MetadataEvent struct {
	ModelID   string `json:"model_id"`
	ModelName string `json:"model_name"`
	Provider  string `json:"provider"`
	TaskType  string `json:"task_type"`
	Segmented bool   `json:"segmented"`

	// SegmentCount is set only when Segmented is true.
	SegmentCount int `json:"segment_count,omitempty"`
}

// SegmentEvent announces the start of one prompt segment.
type SegmentEvent struct {
	// Index is 1-based.
	Index int `json:"index"`
	Total int `json:"total"`
}

// ChunkEvent carries one text fragment from the provider.
type ChunkEvent struct {
	Content string `json:"content"`
}

// UsageEvent reports token consumption for the whole request.
type UsageEvent struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorEvent carries a human-readable failure message.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Event is one framed unit of the output stream.
// Check Type to determine which payload field is populated.
type Event struct {
	// Type identifies which field is populated.
	Type EventType

	// Metadata is populated when Type == EventMetadata.
	Metadata *MetadataEvent

	// Segment is populated when Type == EventSegment.
	Segment *SegmentEvent

	// Chunk is populated when Type == EventChunk.
	Chunk *ChunkEvent

	// Usage is populated when Type == EventUsage.
	Usage *UsageEvent

	// Error is populated when Type == EventError.
	Error *ErrorEvent
}

// frame is the wire envelope: one JSON object per event.
type frame struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MarshalJSON encodes the event as its wire frame.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case EventMetadata:
		payload = e.Metadata
	case EventSegment:
		payload = e.Segment
	case EventChunk:
		payload = e.Chunk
	case EventUsage:
		payload = e.Usage
	case EventError:
		payload = e.Error
	case EventDone:
		payload = struct{}{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if payload == nil {
		return nil, fmt.Errorf("event %s has no payload", e.Type)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Event: e.Type, Data: data})
}

// UnmarshalJSON decodes a wire frame back into an event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*e = Event{Type: f.Event}
	switch f.Event {
	case EventMetadata:
		e.Metadata = &MetadataEvent{}
		return json.Unmarshal(f.Data, e.Metadata)
	case EventSegment:
		e.Segment = &SegmentEvent{}
		return json.Unmarshal(f.Data, e.Segment)
	case EventChunk:
		e.Chunk = &ChunkEvent{}
		return json.Unmarshal(f.Data, e.Chunk)
	case EventUsage:
		e.Usage = &UsageEvent{}
		return json.Unmarshal(f.Data, e.Usage)
	case EventError:
		e.Error = &ErrorEvent{}
		return json.Unmarshal(f.Data, e.Error)
	case EventDone:
		return nil
	default:
		return fmt.Errorf("unknown event type %q", f.Event)
	}
}

// flusher is the subset of http.Flusher the frame writer needs. Declared
// locally so the package does not depend on net/http.
type flusher interface {
	Flush()
}

// FrameWriter writes events as newline-delimited JSON frames. If the
// underlying writer supports flushing (as HTTP response writers do), every
// frame is flushed so the consumer sees fragments as they arrive.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps an io.Writer for frame output.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// Write frames one event: the JSON object followed by a newline delimiter.
func (fw *FrameWriter) Write(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", e.Type, err)
	}
	data = append(data, '\n')
	if _, err := fw.w.Write(data); err != nil {
		return fmt.Errorf("write %s frame: %w", e.Type, err)
	}
	if f, ok := fw.w.(flusher); ok {
		f.Flush()
	}
	return nil
}
