// Package ast defines the syntax tree for parsed population loader scripts
// and the flat evaluation plan the tree is lowered into.
package ast

import (
	"fmt"
	"strings"
)

// Script is a complete parsed .plf script.
type Script struct {
	// Statements holds the user assignments in source order.
	Statements []*Statement
}

// Statement is a single `name = expression` assignment.
type Statement struct {
	// Name is the user-chosen variable.
	Name string

	// Expr is the right-hand side. Its outermost braces are implicit.
	Expr *Expr

	// Pos is the byte offset of Name in the script.
	Pos int
}

// Expr is a colon-separated sequence of terms. Evaluating it concatenates
// the collections of its terms in order.
type Expr struct {
	Terms []Term
	Pos   int
}

// String renders the expression in script syntax.
func (e *Expr) String() string {
	parts := make([]string, len(e.Terms))
	for i, t := range e.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " : ")
}

// MarshalText encodes the expression in script syntax.
func (e *Expr) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Term is one element of an Expr.
type Term interface {
	// Position returns the byte offset of the term in the script.
	Position() int
	String() string
	termNode()
}

// Group is a braced sub-expression.
type Group struct {
	Expr *Expr
	Pos  int
}

func (n *Group) termNode() {}
func (n *Group) Position() int { return n.Pos }
func (n *Group) String() string { return "{ " + n.Expr.String() + " }" }

// FileRef is a quoted, possibly wildcarded, file pattern.
type FileRef struct {
	Pattern string
	Pos     int
}

func (n *FileRef) termNode() {}
func (n *FileRef) Position() int { return n.Pos }
func (n *FileRef) String() string { return "'" + n.Pattern + "'" }

// NameRef refers to a previously bound name.
type NameRef struct {
	Name string
	Pos  int
}

func (n *NameRef) termNode() {}
func (n *NameRef) Position() int { return n.Pos }
func (n *NameRef) String() string { return n.Name }

// Collapse merges every population of Source into one.
type Collapse struct {
	Source Term
	Pos    int
}

func (n *Collapse) termNode() {}
func (n *Collapse) Position() int { return n.Pos }
func (n *Collapse) String() string { return "collapse " + n.Source.String() }

// Synthetic produces Count sentinel organisms of the given kind
// ("random" or "default").
type Synthetic struct {
	Keyword string
	Count   int
	Pos     int
}

func (n *Synthetic) termNode() {}
func (n *Synthetic) Position() int { return n.Pos }
func (n *Synthetic) String() string { return fmt.Sprintf("%s %d", n.Keyword, n.Count) }

// Rank selects the Count records with the greatest or least numeric value of
// Attribute from each population of Source.
type Rank struct {
	// Keyword is "greatest" or "least".
	Keyword   string
	Count     int
	Attribute string
	Source    Term
	Pos       int
}

func (n *Rank) termNode() {}
func (n *Rank) Position() int { return n.Pos }
func (n *Rank) String() string {
	return fmt.Sprintf("%s %d by %s from %s", n.Keyword, n.Count, n.Attribute, n.Source)
}

// Any selects Count records at random from each population of Source.
type Any struct {
	Count  int
	Source Term
	Pos    int
}

func (n *Any) termNode() {}
func (n *Any) Position() int { return n.Pos }
func (n *Any) String() string { return fmt.Sprintf("any %d from %s", n.Count, n.Source) }

// Match keeps the records of each population of Source whose Attribute
// equals Value.
type Match struct {
	Attribute string
	Value     string
	Source    Term
	Pos       int
}

func (n *Match) termNode() {}
func (n *Match) Position() int { return n.Pos }
func (n *Match) String() string {
	return fmt.Sprintf("match %s = '%s' from %s", n.Attribute, n.Value, n.Source)
}

// Duplicate repeats each population of Source Count times back to back.
type Duplicate struct {
	Count  int
	Source Term
	Pos    int
}

func (n *Duplicate) termNode() {}
func (n *Duplicate) Position() int { return n.Pos }
func (n *Duplicate) String() string { return fmt.Sprintf("%d * %s", n.Count, n.Source) }
