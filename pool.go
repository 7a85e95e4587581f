package gomedia

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Pool is the registry of providers, contexts and download strategies.
// It is filled at boot and read on every request.
type Pool struct {
	mu                 sync.RWMutex
	providers          map[string]MediaProvider
	contexts           map[string]Context
	downloadStrategies map[string]DownloadStrategy
	defaultContext     string
}

// NewPool creates an empty pool whose default context is defaultContext.
func NewPool(defaultContext string) *Pool {
	return &Pool{
		providers:          map[string]MediaProvider{},
		contexts:           map[string]Context{},
		downloadStrategies: map[string]DownloadStrategy{},
		defaultContext:     defaultContext,
	}
}

// AddProvider registers provider under name, replacing any previous one.
func (p *Pool) AddProvider(name string, provider MediaProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.providers[name] = provider
}

// Provider returns the provider registered under name.
func (p *Pool) Provider(name string) (MediaProvider, error) {
	if name == "" {
		return nil, ErrEmptyProviderName
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.providers) == 0 {
		return nil, fmt.Errorf("%w: unable to retrieve provider named %q since there are no providers configured yet", ErrNoProviders, name)
	}

	provider, ok := p.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unable to retrieve the provider named %q, available providers are %s",
			ErrUnknownProvider, name, quoteList(p.providerNames()))
	}

	return provider, nil
}

// Providers returns a copy of the registry.
func (p *Pool) Providers() map[string]MediaProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return maps.Clone(p.providers)
}

// ProviderList returns the sorted names of the registered providers.
func (p *Pool) ProviderList() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.providerNames()
}

func (p *Pool) providerNames() []string {
	return slices.Sorted(maps.Keys(p.providers))
}

// AddContext registers or replaces the context name.
func (p *Pool) AddContext(name string, providers []string, formats map[string]Format, download *DownloadPolicy) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if formats == nil {
		formats = map[string]Format{}
	}

	p.contexts[name] = Context{
		Providers: slices.Clone(providers),
		Formats:   maps.Clone(formats),
		Download:  download,
	}
}

// HasContext reports whether a context is registered under name.
func (p *Pool) HasContext(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.contexts[name]
	return ok
}

// Context returns the context registered under name.
func (p *Pool) Context(name string) (Context, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.contexts[name]
	if !ok {
		return Context{}, fmt.Errorf("%w: %q", ErrUnknownContext, name)
	}
	return c, nil
}

// Contexts returns a copy of every registered context.
func (p *Pool) Contexts() map[string]Context {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return maps.Clone(p.contexts)
}

// ProviderNamesByContext returns the provider names allowed in a context.
func (p *Pool) ProviderNamesByContext(name string) ([]string, error) {
	c, err := p.Context(name)
	if err != nil {
		return nil, err
	}
	return c.Providers, nil
}

// FormatNamesByContext returns the formats of a context keyed by their
// qualified name.
func (p *Pool) FormatNamesByContext(name string) (map[string]Format, error) {
	c, err := p.Context(name)
	if err != nil {
		return nil, err
	}
	return c.Formats, nil
}

// ProvidersByContext resolves the providers allowed in a context.
func (p *Pool) ProvidersByContext(name string) ([]MediaProvider, error) {
	names, err := p.ProviderNamesByContext(name)
	if err != nil {
		return nil, err
	}

	providers := make([]MediaProvider, 0, len(names))
	for _, n := range names {
		provider, err := p.Provider(n)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, nil
}

// AddDownloadStrategy registers a download authorization strategy.
func (p *Pool) AddDownloadStrategy(name string, strategy DownloadStrategy) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.downloadStrategies[name] = strategy
}

// DownloadStrategy resolves the strategy of the media's context.
func (p *Pool) DownloadStrategy(m *Media) (DownloadStrategy, error) {
	policy, err := p.downloadPolicy(m)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	strategy, ok := p.downloadStrategies[policy.Strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDownloadStrategy, policy.Strategy)
	}
	return strategy, nil
}

// DownloadMode resolves the download mode of the media's context.
func (p *Pool) DownloadMode(m *Media) (DownloadMode, error) {
	policy, err := p.downloadPolicy(m)
	if err != nil {
		return "", err
	}
	return policy.Mode, nil
}

func (p *Pool) downloadPolicy(m *Media) (*DownloadPolicy, error) {
	if m.Context == "" {
		return nil, ErrEmptyContext
	}

	c, err := p.Context(m.Context)
	if err != nil {
		return nil, err
	}

	if c.Download == nil || c.Download.Strategy == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoDownloadPolicy, m.Context)
	}
	return c.Download, nil
}

// DefaultContext returns the name of the default context.
func (p *Pool) DefaultContext() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.defaultContext
}

// SetDefaultContext sets the context returned by DefaultContext.
func (p *Pool) SetDefaultContext(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.defaultContext = name
}

// Validate delegates to the media's provider. Media without a provider name
// are not validated.
func (p *Pool) Validate(errs *ErrorElement, m *Media) error {
	if m.ProviderName == "" {
		return nil
	}

	provider, err := p.Provider(m.ProviderName)
	if err != nil {
		return err
	}

	provider.Validate(errs, m)
	return nil
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
