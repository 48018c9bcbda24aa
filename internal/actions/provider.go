package actions

import (
	"fmt"
	"sync"

	"tools4ai/internal/logging"
)

// Provider is a self-describing capability. Describe must fail when the
// capability carries no usable action metadata.
type Provider interface {
	Describe() (*Descriptor, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (*Descriptor, error)

// Describe calls f.
func (f ProviderFunc) Describe() (*Descriptor, error) {
	return f()
}

// Static wraps an already built descriptor as a Provider.
func Static(d *Descriptor) Provider {
	return ProviderFunc(func() (*Descriptor, error) { return d, nil })
}

// Loader produces descriptors from a declarative source (shell manifest,
// HTTP manifest, Swagger document).
type Loader interface {
	Name() string
	Load() ([]*Descriptor, error)
}

// Populate registers providers first, then every loader in the order given.
// A provider that cannot describe itself aborts population; a loader that
// fails is logged and skipped.
func Populate(r *Registry, providers []Provider, loaders []Loader) error {
	for i, p := range providers {
		d, err := p.Describe()
		if err != nil {
			return fmt.Errorf("provider %d: %w", i, err)
		}
		if err := r.Register(d); err != nil {
			return fmt.Errorf("provider %d: %w", i, err)
		}
	}

	for _, l := range loaders {
		loaded, err := l.Load()
		if err != nil {
			logging.LoaderWarn("%s loader skipped: %v", l.Name(), err)
			continue
		}
		registered := 0
		for _, d := range loaded {
			if err := r.Register(d); err != nil {
				logging.LoaderWarn("%s loader: %v", l.Name(), err)
				continue
			}
			registered++
		}
		logging.Loader("%s loader registered %d actions", l.Name(), registered)
	}

	logging.Boot("Registry populated with %d actions", r.Count())
	return nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the process-wide registry. The first caller runs populate;
// concurrent callers block until it finishes and then share its result.
// Later populate arguments are ignored.
func Default(populate func(*Registry) error) (*Registry, error) {
	defaultOnce.Do(func() {
		r := NewRegistry()
		if populate != nil {
			defaultErr = populate(r)
		}
		defaultRegistry = r
	})
	return defaultRegistry, defaultErr
}
