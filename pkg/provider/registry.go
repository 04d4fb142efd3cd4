package provider

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Factory builds a Provider sharing the given HTTP client.
type Factory func(hc *http.Client) (Provider, error)

// Registry maps provider names to factories.
type Registry struct {
	mu          sync.RWMutex
	factories   map[string]Factory
	unsupported []string
}

// NewRegistry returns a Registry with every built-in provider.
func NewRegistry() *Registry {
	r := &Registry{
		factories:   map[string]Factory{},
		unsupported: []string{"amazon", "bedrock"},
	}
	for name, v := range vendors {
		r.Register(name, func(hc *http.Client) (Provider, error) { return newVendor(v, hc) })
	}
	// togetherai is an alias of together.
	r.Register("togetherai", func(hc *http.Client) (Provider, error) { return newVendor(vendors["together"], hc) })
	r.Register("azure", func(hc *http.Client) (Provider, error) { return NewAzure(hc) })
	r.Register("google", func(hc *http.Client) (Provider, error) { return NewGoogle(hc) })
	r.Register("anthropic", func(hc *http.Client) (Provider, error) { return NewAnthropic(hc) })
	r.Register("ollama", func(hc *http.Client) (Provider, error) { return NewOllama(hc) })
	r.Register("echo", func(*http.Client) (Provider, error) { return Echo{}, nil })
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Names returns the sorted names of registered providers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns := lo.Keys(r.factories)
	slices.Sort(ns)
	return ns
}

// Lookup constructs the named provider.
func (r *Registry) Lookup(name string, c HTTPConfig) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		if slices.Contains(r.unsupported, name) {
			return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
		}
		return nil, fmt.Errorf("%q: %w (known: %s)", name, ErrUnknownProvider, strings.Join(r.Names(), ", "))
	}

	hc, err := c.Client()
	if err != nil {
		return nil, err
	}
	return f(hc)
}
