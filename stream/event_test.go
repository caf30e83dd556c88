package stream

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMarshalRoundTrip(t *testing.T) {
	events := []Event{
		{Type: EventMetadata, Metadata: &MetadataEvent{
			ModelID: "m1", ModelName: "Model One", Provider: "acme",
			TaskType: "creative", Segmented: true, SegmentCount: 3,
		}},
		{Type: EventSegment, Segment: &SegmentEvent{Index: 1, Total: 3}},
		{Type: EventChunk, Chunk: &ChunkEvent{Content: "hello "}},
		{Type: EventUsage, Usage: &UsageEvent{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}},
		{Type: EventError, Error: &ErrorEvent{Message: "upstream failed"}},
		{Type: EventDone},
	}

	for _, e := range events {
		data, err := json.Marshal(e)
		require.NoError(t, err, "marshal %s", e.Type)

		var decoded Event
		require.NoError(t, json.Unmarshal(data, &decoded), "unmarshal %s", e.Type)
		assert.Equal(t, e, decoded)
	}
}

func TestEventWireShape(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventChunk, Chunk: &ChunkEvent{Content: "hi"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"chunk","data":{"content":"hi"}}`, string(data))

	data, err = json.Marshal(Event{Type: EventDone})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"done","data":{}}`, string(data))

	// Segment count is omitted for single-shot metadata.
	data, err = json.Marshal(Event{Type: EventMetadata, Metadata: &MetadataEvent{
		ModelID: "m", ModelName: "M", Provider: "p", TaskType: "general",
	}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "segment_count")
}

func TestEventMarshal_Unknown(t *testing.T) {
	_, err := json.Marshal(Event{Type: EventType("bogus")})
	assert.Error(t, err)

	var e Event
	assert.Error(t, json.Unmarshal([]byte(`{"event":"bogus","data":{}}`), &e))
}

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() { f.flushes++ }

func TestFrameWriter(t *testing.T) {
	rec := &flushRecorder{}
	fw := NewFrameWriter(rec)

	require.NoError(t, fw.Write(Event{Type: EventChunk, Chunk: &ChunkEvent{Content: "a"}}))
	require.NoError(t, fw.Write(Event{Type: EventDone}))

	lines := strings.Split(strings.TrimRight(rec.String(), "\n"), "\n")
	require.Len(t, lines, 2, "one frame per line")
	assert.Equal(t, 2, rec.flushes, "every frame is flushed")

	var first Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, EventChunk, first.Type)
}
