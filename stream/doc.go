// Package stream frames provider output into an ordered event stream.
//
// One request produces one stream with a fixed grammar:
//
//	metadata (segment chunk*)* usage done        segmented, on success
//	metadata chunk* usage done                   single-shot, on success
//	metadata ... error done                      on provider failure
//
// Events exist only on the wire: each is one JSON object, newline
// delimited. The Orchestrator writes synchronously so a slow consumer
// applies back-pressure all the way to the provider adapter, and the event
// channel is closed exactly once whatever the outcome.
package stream
