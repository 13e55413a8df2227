// Package keywords implements the selection and filter operators of the
// population loader language. Every operator reads a resource collection and
// returns a new one; inputs are never modified.
package keywords

import (
	"math/rand/v2"

	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// Attributes gives operators read access to record attributes.
type Attributes interface {
	// Attribute returns attr of the record ref points at. ok is false for
	// synthetic organisms and for records without the attribute.
	Attribute(ref types.Ref, attr string) (value string, ok bool)
}

// Shuffler is the random source used by `any`. *rand.Rand from math/rand and
// math/rand/v2 both satisfy it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Args carries the operands of one keyword application.
type Args struct {
	// Resource is the name the source collection is bound to (for messages).
	Resource  string
	Source    types.Collection
	Count     int
	Attribute string
	Value     string
}

// Operator is one keyword implementation.
type Operator func(args Args) (types.Collection, error)

// Registry holds the keyword operators.
type Registry struct {
	attrs    Attributes
	shuffler Shuffler
	ops      map[string]Operator
}

// NewRegistry creates a registry with every built-in keyword registered.
// A nil shuffler means an unseeded source, so `any` differs between runs.
func NewRegistry(attrs Attributes, shuffler Shuffler) *Registry {
	if shuffler == nil {
		shuffler = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	r := &Registry{
		attrs:    attrs,
		shuffler: shuffler,
		ops:      make(map[string]Operator),
	}
	r.Register("collapse", Collapse)
	r.Register("random", Random)
	r.Register("default", Default)
	r.Register("greatest", r.greatest)
	r.Register("least", r.least)
	r.Register("any", r.sample)
	r.Register("match", r.match)
	r.Register("*", Duplicate)
	return r
}

// Register adds or replaces an operator.
func (r *Registry) Register(name string, op Operator) {
	r.ops[name] = op
}

// Apply runs the named operator.
func (r *Registry) Apply(name string, args Args) (types.Collection, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, types.NewSyntaxError(-1, "unknown keyword '%s'", name)
	}
	return op(args)
}
