// Command llmrouted serves the chat routing gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/randalmurphal/llmroute/accounts"
	"github.com/randalmurphal/llmroute/catalog"
	"github.com/randalmurphal/llmroute/config"
	"github.com/randalmurphal/llmroute/gateway"
	"github.com/randalmurphal/llmroute/ledger"
	"github.com/randalmurphal/llmroute/logging"
	"github.com/randalmurphal/llmroute/provider"
	"github.com/randalmurphal/llmroute/quota"

	// Registers the simulated provider adapter.
	_ "github.com/randalmurphal/llmroute/provider/sim"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "path to TOML configuration (empty uses defaults)")
	flag.Parse()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("llmrouted: %v", err)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	store, err := newQuotaStore(cfg.Quota)
	if err != nil {
		return err
	}

	ids, err := accounts.Load(cfg.Accounts.Path)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	// Account limits are the source of truth for quota allowances; push
	// them into the store now and again on every reload.
	ids.SetReloadHook(func(accts []accounts.Account) {
		for _, a := range accts {
			if err := store.SetLimit(ctx, a.ID, a.UsageLimit); err != nil {
				logger.Error("set quota limit", "caller", a.ID, "error", err)
			}
		}
	})
	if cfg.Accounts.Watch {
		go func() {
			if err := ids.Watch(ctx, func(err error) {
				logger.Error("accounts reload", "path", cfg.Accounts.Path, "error", err)
			}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("accounts watcher stopped", "error", err)
			}
		}()
	}

	var recorder gateway.Recorder
	if cfg.Ledger.Path != "" {
		journal, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return fmt.Errorf("open usage ledger: %w", err)
		}
		defer journal.Close()
		recorder = journal
	}

	clients, err := buildClients(cfg.Provider)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()

	srv, err := gateway.New(gateway.Config{
		Catalog:        cat,
		Guard:          quota.NewGuard(store),
		Identities:     ids,
		Clients:        clients,
		Recorder:       recorder,
		Logger:         logger,
		SegmentTimeout: cfg.Stream.SegmentTimeout.Std(),
	})
	if err != nil {
		return err
	}

	logger.Info("llmrouted listening",
		"addr", cfg.Listen,
		"models", cat.Len(),
		"quota_store", cfg.Quota.Store,
		"ledger", cfg.Ledger.Path != "",
	)
	return srv.Start(ctx, cfg.Listen)
}

// loadCatalog reads the model catalog file, or falls back to the
// compiled-in catalog when no path is configured.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

func newQuotaStore(cfg config.QuotaStore) (quota.Store, error) {
	switch cfg.Store {
	case "redis":
		return quota.NewRedisStore(quota.RedisStoreConfig{
			Address:  cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case "memory", "":
		return quota.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown quota store %q", cfg.Store)
	}
}

// buildClients instantiates one adapter per configured provider, keyed by
// the provider name the catalog refers to.
func buildClients(providers map[string]config.Provider) (gateway.StaticClients, error) {
	clients := make(gateway.StaticClients, len(providers))
	for name, p := range providers {
		client, err := provider.New(p.Type, provider.Config{
			Provider: name,
			BaseURL:  p.BaseURL,
			APIKey:   p.APIKey,
			Timeout:  p.Timeout.Std(),
			Options:  p.Options,
		})
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		clients[name] = client
	}
	return clients, nil
}
