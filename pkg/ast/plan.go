package ast

import (
	"fmt"
	"io"
	"strings"
)

// PlaceholderPrefix starts every generated binding name. User variables may
// not use it.
const PlaceholderPrefix = "__tk"

// Master is the variable a script must assign its final population to.
const Master = "MASTER"

// Binding is one entry of an evaluation plan. Exactly one of File and Expr is
// set: file bindings are filled by the resolver, expression bindings by the
// evaluator.
type Binding struct {
	Name string `json:"name"`

	// File is the quoted pattern this placeholder stands for.
	File string `json:"file,omitempty"`

	// Expr is a flat expression: its terms never contain Group or FileRef
	// nodes, only references to names bound earlier in the plan.
	Expr *Expr `json:"expr,omitempty"`

	// User is true for script variables and false for placeholders.
	User bool `json:"user"`
}

// IsFile reports whether the binding is produced by file resolution.
func (b *Binding) IsFile() bool {
	return b.Expr == nil
}

// Plan is the flat, dependency-ordered list of bindings produced by lowering
// a Script. Every name referenced by a binding is bound by an earlier entry,
// a file binding, or a user statement that appears earlier in the script.
type Plan struct {
	Bindings []*Binding `json:"bindings"`
}

// Files returns the distinct quoted patterns in first-appearance order.
func (p *Plan) Files() []string {
	var files []string
	for _, b := range p.Bindings {
		if b.IsFile() {
			files = append(files, b.File)
		}
	}
	return files
}

// Lookup returns the binding with the given name.
func (p *Plan) Lookup(name string) (*Binding, bool) {
	for _, b := range p.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// WriteTo prints one binding per line.
func (p *Plan) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for _, b := range p.Bindings {
		if b.IsFile() {
			fmt.Fprintf(&sb, "%s = '%s'\n", b.Name, b.File)
			continue
		}
		fmt.Fprintf(&sb, "%s = %s\n", b.Name, b.Expr)
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// IsPlaceholder reports whether name was generated during lowering.
func IsPlaceholder(name string) bool {
	return strings.HasPrefix(name, PlaceholderPrefix)
}
