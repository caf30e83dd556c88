// Package gateway exposes the routing pipeline over HTTP.
//
// One endpoint does the real work: POST /api/v1/chat/stream runs admission
// (auth, input validation, quota pre-check), routes the prompt, streams the
// provider's output back as newline-delimited JSON frames, and commits the
// actual token cost afterwards. Admission failures are ordinary JSON error
// responses with a status code; the event stream begins only once
// processing has actually started, and from that point failures travel
// inside the stream as error frames.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/randalmurphal/llmroute/accounts"
	"github.com/randalmurphal/llmroute/catalog"
	"github.com/randalmurphal/llmroute/ledger"
	"github.com/randalmurphal/llmroute/provider"
	"github.com/randalmurphal/llmroute/quota"
	"github.com/randalmurphal/llmroute/route"
	"github.com/randalmurphal/llmroute/tokens"
)

// Identities resolves API keys to caller accounts. *accounts.Store
// satisfies this; tests substitute fixtures.
type Identities interface {
	Resolve(ctx context.Context, apiKey string) (accounts.Account, error)
}

// Clients resolves a catalog provider name to its adapter.
type Clients interface {
	ClientFor(providerName string) (provider.Client, error)
}

// StaticClients is a fixed provider-name-to-adapter mapping.
type StaticClients map[string]provider.Client

// ClientFor returns the adapter for a provider name.
func (c StaticClients) ClientFor(name string) (provider.Client, error) {
	client, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnknownProvider, name)
	}
	return client, nil
}

// Recorder journals final usage records. *ledger.Store satisfies this.
type Recorder interface {
	Record(ctx context.Context, e ledger.Entry) error
}

// Config assembles the gateway's collaborators.
type Config struct {
	// Catalog is the model registry. Required.
	Catalog *catalog.Catalog

	// Guard performs quota admission and commits. Required.
	Guard *quota.Guard

	// Identities authenticates callers. Required.
	Identities Identities

	// Clients maps catalog providers to adapters. Required.
	Clients Clients

	// Recorder journals usage. Optional; nil disables journaling.
	Recorder Recorder

	// Logger receives request and accounting logs. Nil uses slog.Default.
	Logger *slog.Logger

	// SegmentTimeout bounds each provider invocation.
	// 0 uses stream.DefaultSegmentTimeout.
	SegmentTimeout time.Duration
}

// Server is the HTTP gateway.
type Server struct {
	cat            *catalog.Catalog
	router         *route.Router
	guard          *quota.Guard
	identities     Identities
	clients        Clients
	recorder       Recorder
	log            *slog.Logger
	counter        *tokens.EstimatingCounter
	segmentTimeout time.Duration
}

// New validates the configuration and builds the gateway.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("gateway: catalog is required")
	}
	if cfg.Guard == nil {
		return nil, errors.New("gateway: quota guard is required")
	}
	if cfg.Identities == nil {
		return nil, errors.New("gateway: identities are required")
	}
	if cfg.Clients == nil {
		return nil, errors.New("gateway: provider clients are required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cat:            cfg.Catalog,
		router:         route.NewRouter(cfg.Catalog),
		guard:          cfg.Guard,
		identities:     cfg.Identities,
		clients:        cfg.Clients,
		recorder:       cfg.Recorder,
		log:            log,
		counter:        tokens.NewEstimatingCounter(),
		segmentTimeout: cfg.SegmentTimeout,
	}, nil
}

// Handler returns the gateway's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /api/v1/models", s.handleModels)
	mux.HandleFunc("GET /api/v1/schema", s.handleSchema)
	return mux
}

// Start serves HTTP on addr until the context is cancelled or the listener
// fails, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: streaming responses are open-ended.
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// authenticate resolves the bearer token on the request.
func (s *Server) authenticate(r *http.Request) (accounts.Account, error) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return accounts.Account{}, accounts.ErrUnknownKey
	}
	return s.identities.Resolve(r.Context(), header[len(prefix):])
}

// writeJSON sends a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
