// Package runtime evaluates lowered population loader plans.
package runtime

import (
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// Bindings maps names (user variables and placeholders) to collections.
// It is append-only: a name is bound at most once per pass, and a bound
// collection is never modified afterwards.
type Bindings struct {
	vars  map[string]types.Collection
	order []string
}

// NewBindings creates an empty binding table.
func NewBindings() *Bindings {
	return &Bindings{
		vars: make(map[string]types.Collection),
	}
}

// Get returns the collection bound to name.
func (b *Bindings) Get(name string) (types.Collection, error) {
	c, ok := b.vars[name]
	if !ok {
		return nil, types.NewBindingError(name, "unrecognized name '%s'", name)
	}
	return c, nil
}

// Has reports whether name is bound.
func (b *Bindings) Has(name string) bool {
	_, ok := b.vars[name]
	return ok
}

// Set binds name to c. Binding a name twice is an error.
func (b *Bindings) Set(name string, c types.Collection) error {
	if _, exists := b.vars[name]; exists {
		return types.NewBindingError(name, "name '%s' is already bound", name)
	}
	b.vars[name] = c
	b.order = append(b.order, name)
	return nil
}

// Names returns the bound names in binding order.
func (b *Bindings) Names() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}
