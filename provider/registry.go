package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a Client from its configuration. Adapters register one
// factory per adapter name, normally from an init function:
//
//	func init() {
//		provider.Register("sim", func(cfg provider.Config) (provider.Client, error) {
//			return New(cfg), nil
//		})
//	}
type Factory func(cfg Config) (Client, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register installs a factory under the given adapter name. Registering the
// same name twice is a programming error and panics.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, taken := factories[name]; taken {
		panic(fmt.Sprintf("provider %q already registered", name))
	}
	factories[name] = factory
}

// New instantiates a client through the named adapter's factory. Returns
// ErrUnknownProvider when nothing is registered under the name.
func New(name string, cfg Config) (Client, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return factory(cfg)
}

// MustNew is New for wiring code that controls its own registrations, such
// as tests and compiled-in defaults. It panics instead of returning an error.
func MustNew(name string, cfg Config) Client {
	client, err := New(name, cfg)
	if err != nil {
		panic(fmt.Sprintf("provider.MustNew(%q): %v", name, err))
	}
	return client
}

// Available lists the registered adapter names in sorted order.
func Available() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether an adapter name has a factory.
func IsRegistered(name string) bool {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Unregister removes an adapter. Tests use this to clean up after
// registering fixtures.
func Unregister(name string) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	delete(factories, name)
}
