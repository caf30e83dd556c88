package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/llmroute/ledger"
	"github.com/randalmurphal/llmroute/provider"
	"github.com/randalmurphal/llmroute/route"
	"github.com/randalmurphal/llmroute/stream"
)

// ChatRequest is the body of POST /api/v1/chat/stream.
type ChatRequest struct {
	// Messages is the conversation, ordered oldest first. At least one
	// user-role message is required; the newest one is the routed prompt.
	Messages []ChatMessage `json:"messages" jsonschema:"minItems=1"`

	// ModelID pins the request to a specific catalog model. Empty lets the
	// router pick by task category.
	ModelID string `json:"model_id,omitempty"`

	// Temperature is passed through to the provider.
	Temperature float64 `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2"`
}

// ChatMessage is one conversation turn.
type ChatMessage struct {
	Role    string `json:"role" jsonschema:"enum=user,enum=assistant,enum=system"`
	Content string `json:"content"`
}

// handleChatStream is the admission-then-stream pipeline. Every failure
// before the first frame is an HTTP error response; once streaming starts,
// failures travel inside the stream.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	acct, err := s.authenticate(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "malformed request body: "+err.Error())
		return
	}
	messages, prompt, err := validateMessages(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	estimated := s.counter.Count(prompt)
	allowed, err := s.guard.Admit(r.Context(), acct.ID, int64(estimated))
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "quota check failed")
		s.log.Error("quota admit failed", "caller", acct.ID, "error", err)
		return
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, codeQuotaExceeded, "token quota exceeded")
		return
	}

	decision, err := s.router.Route(prompt, acct.Tier, req.ModelID)
	if err != nil {
		writeRouteError(w, err)
		return
	}

	client, err := s.clients.ClientFor(decision.Model.Provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "provider not configured: "+decision.Model.Provider)
		s.log.Error("provider lookup failed", "provider", decision.Model.Provider, "error", err)
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	orch := stream.New(stream.Config{
		Client:         client,
		Decision:       decision,
		Messages:       messages,
		Temperature:    req.Temperature,
		SegmentTimeout: s.segmentTimeout,
	})
	fw := stream.NewFrameWriter(w)

	writeFailed := false
	for ev := range orch.Run(ctx) {
		if writeFailed {
			continue // drain so the orchestrator can finish
		}
		if err := fw.Write(ev); err != nil {
			writeFailed = true
			cancel()
		}
	}

	s.settle(requestID, acct.ID, decision, orch.Usage())

	s.log.Info("chat stream served",
		"request_id", requestID,
		"caller", acct.ID,
		"model", decision.Model.ID,
		"task", decision.Task,
		"segments", decision.SegmentCount(),
		"tokens", orch.Usage().TotalTokens,
		"duration", time.Since(started),
	)
}

// settle commits the actual token cost and journals the request. Runs after
// the stream has closed, detached from the request context so accounting
// survives a caller that hung up mid-stream.
func (s *Server) settle(requestID, callerID string, decision route.Decision, usage provider.Usage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if usage.TotalTokens > 0 {
		if err := s.guard.Commit(ctx, callerID, int64(usage.TotalTokens)); err != nil {
			s.log.Error("quota commit failed", "request_id", requestID, "caller", callerID, "error", err)
		}
	}

	if s.recorder == nil {
		return
	}
	entry := ledger.Entry{
		RequestID:        requestID,
		CallerID:         callerID,
		ModelID:          decision.Model.ID,
		Provider:         decision.Model.Provider,
		TaskType:         string(decision.Task),
		SegmentCount:     decision.SegmentCount(),
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.log.Error("usage record failed", "request_id", requestID, "caller", callerID, "error", err)
	}
}

// validateMessages checks roles and presence of a user turn, converts to
// provider messages, and extracts the newest user message as the prompt.
func validateMessages(in []ChatMessage) ([]provider.Message, string, error) {
	if len(in) == 0 {
		return nil, "", errors.New("at least one message is required")
	}
	messages := make([]provider.Message, 0, len(in))
	prompt := ""
	for i, m := range in {
		role := provider.Role(m.Role)
		if !role.Valid() {
			return nil, "", fmt.Errorf("message %d: invalid role %q", i, m.Role)
		}
		if role == provider.RoleUser {
			prompt = m.Content
		}
		messages = append(messages, provider.Message{Role: role, Content: m.Content})
	}
	if prompt == "" {
		return nil, "", errors.New("at least one user message with content is required")
	}
	return messages, prompt, nil
}
