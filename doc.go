// Package llmroute routes chat requests to LLM providers and streams the
// responses back as newline-delimited JSON frames.
//
// The pipeline is assembled from independent subpackages:
//
//   - classify: keyword-based task categorization of prompts
//   - catalog: the model registry with tier gating and capability matching
//   - tokens: token estimation and context-window budgets
//   - segment: splitting oversized prompts at word boundaries
//   - route: model selection and segmentation decisions
//   - provider: the adapter interface and registry for upstream backends
//   - quota: per-caller token accounting with soft-cap admission
//   - stream: the orchestrator and the framed event protocol
//   - accounts: caller identities loaded from YAML with hot reload
//   - ledger: the SQLite usage journal
//   - gateway: the HTTP surface tying the pipeline together
//
// # Quick Start
//
// Routing a prompt:
//
//	import "github.com/randalmurphal/llmroute/route"
//	router := route.NewRouter(catalog.Default())
//	decision, _ := router.Route("write a haiku", catalog.TierFree, "")
//
// Streaming a routed request:
//
//	import "github.com/randalmurphal/llmroute/stream"
//	orch := stream.New(stream.Config{Client: client, Decision: decision, Messages: msgs})
//	for ev := range orch.Run(ctx) {
//		_ = frameWriter.Write(ev)
//	}
//
// The llmrouted command in cmd/llmrouted wires the full gateway from a TOML
// configuration file.
package llmroute
