package parser

import (
	"strconv"
	"strings"

	"github.com/lemonberrylabs/population-loader/pkg/ast"
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// lowerer rewrites nested groups and quoted files into placeholder bindings.
type lowerer struct {
	plan    *ast.Plan
	counter int
	files   map[string]string // pattern -> placeholder
	defined map[string]bool   // user names assigned so far
}

// Lower flattens a script into an evaluation plan. Each braced group and each
// distinct quoted pattern is bound to a fresh placeholder, innermost first,
// so every binding only refers to names bound before it. Statement order is
// preserved: a user variable may only be referenced after its assignment.
func Lower(script *ast.Script) (*ast.Plan, error) {
	l := &lowerer{
		plan:    &ast.Plan{},
		files:   make(map[string]string),
		defined: make(map[string]bool),
	}
	for _, stmt := range script.Statements {
		if l.defined[stmt.Name] {
			return nil, types.NewBindingError(stmt.Name, "variable '%s' is assigned more than once", stmt.Name)
		}
		expr, err := l.lowerExpr(stmt.Expr)
		if err != nil {
			return nil, err
		}
		l.plan.Bindings = append(l.plan.Bindings, &ast.Binding{Name: stmt.Name, Expr: expr, User: true})
		l.defined[stmt.Name] = true
	}
	return l.plan, nil
}

// ParseAndLower parses input and lowers it in one step.
func ParseAndLower(input string) (*ast.Plan, error) {
	script, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return Lower(script)
}

func (l *lowerer) mint() string {
	name := ast.PlaceholderPrefix + strconv.Itoa(l.counter)
	l.counter++
	return name
}

func (l *lowerer) lowerExpr(e *ast.Expr) (*ast.Expr, error) {
	out := &ast.Expr{Pos: e.Pos, Terms: make([]ast.Term, 0, len(e.Terms))}
	for _, t := range e.Terms {
		lt, err := l.lowerTerm(t)
		if err != nil {
			return nil, err
		}
		out.Terms = append(out.Terms, lt)
	}
	return out, nil
}

// lowerTerm returns t with every nested group or file replaced by a
// reference to its placeholder.
func (l *lowerer) lowerTerm(t ast.Term) (ast.Term, error) {
	switch n := t.(type) {
	case *ast.Group:
		inner, err := l.lowerExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		name := l.mint()
		l.plan.Bindings = append(l.plan.Bindings, &ast.Binding{Name: name, Expr: inner})
		return &ast.NameRef{Name: name, Pos: n.Pos}, nil
	case *ast.FileRef:
		name, ok := l.files[n.Pattern]
		if !ok {
			name = l.mint()
			l.files[n.Pattern] = name
			l.plan.Bindings = append(l.plan.Bindings, &ast.Binding{Name: name, File: n.Pattern})
		}
		return &ast.NameRef{Name: name, Pos: n.Pos}, nil
	case *ast.NameRef:
		if strings.HasPrefix(n.Name, "__") {
			return nil, types.NewSyntaxError(n.Pos, "name '%s' is reserved", n.Name)
		}
		if !l.defined[n.Name] {
			return nil, types.NewBindingError(n.Name, "unrecognized name '%s' (not assigned before use)", n.Name)
		}
		return n, nil
	case *ast.Synthetic:
		return n, nil
	case *ast.Collapse:
		src, err := l.lowerTerm(n.Source)
		if err != nil {
			return nil, err
		}
		return &ast.Collapse{Source: src, Pos: n.Pos}, nil
	case *ast.Rank:
		src, err := l.lowerTerm(n.Source)
		if err != nil {
			return nil, err
		}
		c := *n
		c.Source = src
		return &c, nil
	case *ast.Any:
		src, err := l.lowerTerm(n.Source)
		if err != nil {
			return nil, err
		}
		return &ast.Any{Count: n.Count, Source: src, Pos: n.Pos}, nil
	case *ast.Match:
		src, err := l.lowerTerm(n.Source)
		if err != nil {
			return nil, err
		}
		c := *n
		c.Source = src
		return &c, nil
	case *ast.Duplicate:
		src, err := l.lowerTerm(n.Source)
		if err != nil {
			return nil, err
		}
		return &ast.Duplicate{Count: n.Count, Source: src, Pos: n.Pos}, nil
	default:
		return nil, types.NewSyntaxError(t.Position(), "unsupported term %T", t)
	}
}
