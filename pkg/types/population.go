// Package types defines the reference, population, and collection types shared
// by the population loader, along with its error model.
package types

import "fmt"

// RefKind identifies what an organism reference points at.
type RefKind int

const (
	RefLoaded  RefKind = iota // record in the store
	RefRandom                 // synthetic organism generated with no prior data
	RefDefault                // synthetic organism in the default configuration
)

// String returns the name used in summaries and serialized output.
func (k RefKind) String() string {
	switch k {
	case RefLoaded:
		return "loaded"
	case RefRandom:
		return "random"
	case RefDefault:
		return "default"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k RefKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Ref is a reference to one organism. Index is only meaningful for RefLoaded
// and is the record's position in the store.
type Ref struct {
	Kind  RefKind
	Index int
}

// Loaded returns a reference to the record at index i.
func Loaded(i int) Ref {
	return Ref{Kind: RefLoaded, Index: i}
}

// Random returns a random-organism sentinel.
func Random() Ref {
	return Ref{Kind: RefRandom}
}

// Default returns a default-organism sentinel.
func Default() Ref {
	return Ref{Kind: RefDefault}
}

// IsLoaded reports whether r points at a stored record.
func (r Ref) IsLoaded() bool {
	return r.Kind == RefLoaded
}

// String returns a debug-friendly representation of the reference.
func (r Ref) String() string {
	if r.Kind == RefLoaded {
		return fmt.Sprintf("#%d", r.Index)
	}
	return r.Kind.String()
}

// Population is an ordered group of organism references.
type Population []Ref

// Collection is an ordered list of populations, the value of one named
// expression.
type Collection []Population

// Len returns the number of populations in the collection.
func (c Collection) Len() int {
	return len(c)
}

// Size returns the total number of references across all populations.
func (c Collection) Size() int {
	n := 0
	for _, p := range c {
		n += len(p)
	}
	return n
}

// Flatten concatenates every population in collection order.
func (c Collection) Flatten() Population {
	out := make(Population, 0, c.Size())
	for _, p := range c {
		out = append(out, p...)
	}
	return out
}

// Concat returns a new collection holding c's populations followed by other's.
func (c Collection) Concat(other Collection) Collection {
	out := make(Collection, 0, len(c)+len(other))
	out = append(out, c...)
	return append(out, other...)
}

// Repeat returns a population holding n copies of ref.
func Repeat(ref Ref, n int) Population {
	p := make(Population, n)
	for i := range p {
		p[i] = ref
	}
	return p
}
