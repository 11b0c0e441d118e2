package market

import "github.com/pkg/errors"

// Registry holds the configured providers keyed by exchange name.
type Registry struct {
	providers map[string]Provider
	names     []string
}

// NewRegistry builds a registry from the given providers, preserving order.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if _, ok := r.providers[p.Name()]; ok {
			continue
		}
		r.providers[p.Name()] = p
		r.names = append(r.names, p.Name())
	}
	return r
}

// Exchanges lists the registered exchange names.
func (r *Registry) Exchanges() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Get returns the provider for the exchange name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownExchange, "%q", name)
	}
	return p, nil
}
