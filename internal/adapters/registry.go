package adapters

import (
	"github.com/aristath/tankintel/internal/config"
)

// Registry is the closed dispatch table from country id to adapter,
// built once at startup. Countries without a bespoke adapter get the
// config-driven default, so the supported set stays statically auditable.
type Registry struct {
	adapters map[string]SchemaAdapter
}

// NewRegistry builds the dispatch table for every configured country.
func NewRegistry(countries *config.Registry) (*Registry, error) {
	reg := &Registry{adapters: make(map[string]SchemaAdapter)}
	for _, name := range countries.Countries() {
		country, err := countries.Get(name)
		if err != nil {
			return nil, err
		}
		reg.adapters[country.ID()] = newAdapter(country)
	}
	return reg, nil
}

// newAdapter is the explicit per-country match. Add new overrides here.
func newAdapter(country *config.Country) SchemaAdapter {
	switch country.ID() {
	case "india":
		return NewIndiaAdapter(country)
	default:
		return NewDefaultAdapter(country)
	}
}

// Get resolves the adapter for a country document.
func (r *Registry) Get(country *config.Country) SchemaAdapter {
	if a, ok := r.adapters[country.ID()]; ok {
		return a
	}
	// Countries registered after startup are not expected, but the
	// mapping-driven default still satisfies the contract.
	return NewDefaultAdapter(country)
}
