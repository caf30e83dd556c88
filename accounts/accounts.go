// Package accounts resolves API keys to callers and their subscription
// terms.
//
// Accounts live in a YAML file so operators can grant keys, change tiers,
// and raise limits without a restart: the store watches the file and
// reloads on change. A reload that fails to parse keeps the previous
// account set, so a bad edit degrades to stale data rather than an outage.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/llmroute/catalog"
)

// ErrUnknownKey indicates no account matches the presented API key.
var ErrUnknownKey = errors.New("unknown api key")

// Account is one caller's identity and subscription terms.
type Account struct {
	// ID is the stable caller identifier used for quota accounting.
	ID string `yaml:"id"`

	// APIKey authenticates the caller.
	APIKey string `yaml:"api_key"`

	// Tier is the caller's subscription level.
	Tier catalog.Tier `yaml:"tier"`

	// UsageLimit is the caller's token allowance.
	UsageLimit int64 `yaml:"usage_limit"`
}

type accountsFile struct {
	Callers []Account `yaml:"callers"`
}

// Store holds the current account set. Safe for concurrent use.
type Store struct {
	path string

	mu       sync.RWMutex
	byKey    map[string]Account
	accounts []Account

	// onReload, when set, runs after every successful (re)load with the
	// new account set. The daemon uses it to push limits into the quota
	// store.
	onReload func([]Account)
}

// Load reads the accounts file and builds the store.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetReloadHook registers fn to run after every successful reload, and runs
// it once immediately with the current set.
func (s *Store) SetReloadHook(fn func([]Account)) {
	s.mu.Lock()
	s.onReload = fn
	current := s.accounts
	s.mu.Unlock()
	if fn != nil {
		fn(current)
	}
}

// Resolve returns the account for an API key, or ErrUnknownKey.
func (s *Store) Resolve(ctx context.Context, apiKey string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acct, ok := s.byKey[apiKey]; ok {
		return acct, nil
	}
	return Account{}, ErrUnknownKey
}

// Accounts returns a copy of the current account set.
func (s *Store) Accounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Watch reloads the store whenever the accounts file changes, until the
// context is cancelled. Reload failures are reported through errf and the
// previous account set stays active. The parent directory is watched, not
// the file, because most editors and config pushers replace the file
// atomically.
func (s *Store) Watch(ctx context.Context, errf func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create accounts watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch accounts directory %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			// Writers may still be mid-write when the first event
			// lands; a short settle avoids reading half a file.
			time.Sleep(50 * time.Millisecond)
			if err := s.reload(); err != nil && errf != nil {
				errf(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errf != nil {
				errf(fmt.Errorf("accounts watcher: %w", err))
			}
		}
	}
}

// reload parses the file and swaps in the new account set.
func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read accounts file: %w", err)
	}

	var file accountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse accounts file: %w", err)
	}

	byKey := make(map[string]Account, len(file.Callers))
	for _, acct := range file.Callers {
		if acct.ID == "" || acct.APIKey == "" {
			return fmt.Errorf("account entry missing id or api_key")
		}
		if !acct.Tier.Valid() {
			return fmt.Errorf("account %s has unknown tier %q", acct.ID, acct.Tier)
		}
		if _, dup := byKey[acct.APIKey]; dup {
			return fmt.Errorf("duplicate api key for account %s", acct.ID)
		}
		byKey[acct.APIKey] = acct
	}

	s.mu.Lock()
	s.byKey = byKey
	s.accounts = file.Callers
	hook := s.onReload
	s.mu.Unlock()

	if hook != nil {
		hook(file.Callers)
	}
	return nil
}
