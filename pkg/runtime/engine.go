package runtime

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lemonberrylabs/population-loader/pkg/ast"
	"github.com/lemonberrylabs/population-loader/pkg/keywords"
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// Engine evaluates a plan into a binding table.
type Engine struct {
	plan     *ast.Plan
	keywords *keywords.Registry
	bindings *Bindings
	logger   logrus.FieldLogger

	// display maps placeholders to the source text they replaced.
	display map[string]string
}

// NewEngine creates an engine for plan. Keyword operators come from kw.
func NewEngine(plan *ast.Plan, kw *keywords.Registry, logger logrus.FieldLogger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := &Engine{
		plan:     plan,
		keywords: kw,
		bindings: NewBindings(),
		logger:   logger,
		display:  make(map[string]string),
	}
	for _, b := range plan.Bindings {
		if b.User {
			continue
		}
		if b.IsFile() {
			e.display[b.Name] = "'" + b.File + "'"
		} else {
			e.display[b.Name] = "{ " + e.render(b.Expr) + " }"
		}
	}
	return e
}

// Bindings returns the engine's binding table.
func (e *Engine) Bindings() *Bindings {
	return e.bindings
}

// Execute binds every plan entry in order. files supplies the collection for
// each quoted pattern.
func (e *Engine) Execute(files map[string]types.Collection) (*Bindings, error) {
	for _, b := range e.plan.Bindings {
		var (
			coll types.Collection
			err  error
		)
		if b.IsFile() {
			var ok bool
			coll, ok = files[b.File]
			if !ok {
				return nil, types.NewFileError(b.File, nil, "file pattern '%s' was not resolved", b.File)
			}
		} else {
			coll, err = e.EvalExpr(b.Expr)
			if err != nil {
				return nil, err
			}
		}
		if err := e.bindings.Set(b.Name, coll); err != nil {
			return nil, err
		}
		if b.User {
			e.logger.WithFields(logrus.Fields{
				"name":        b.Name,
				"populations": coll.Len(),
				"organisms":   coll.Size(),
			}).Debug("Bound variable")
		}
	}
	return e.bindings, nil
}

// EvalExpr evaluates a flat expression: the collections of its terms are
// concatenated in order.
func (e *Engine) EvalExpr(expr *ast.Expr) (types.Collection, error) {
	var out types.Collection
	for _, t := range expr.Terms {
		c, err := e.evalTerm(t)
		if err != nil {
			return nil, err
		}
		out = out.Concat(c)
	}
	if out == nil {
		out = types.Collection{}
	}
	return out, nil
}

// evalTerm evaluates one term. Bound names are reused as they are; keyword
// forms are evaluated fresh.
func (e *Engine) evalTerm(t ast.Term) (types.Collection, error) {
	switch n := t.(type) {
	case *ast.NameRef:
		return e.bindings.Get(n.Name)
	case *ast.Synthetic:
		return e.keywords.Apply(n.Keyword, keywords.Args{Count: n.Count})
	case *ast.Collapse:
		return e.apply("collapse", n.Source, keywords.Args{})
	case *ast.Rank:
		return e.apply(n.Keyword, n.Source, keywords.Args{Count: n.Count, Attribute: n.Attribute})
	case *ast.Any:
		return e.apply("any", n.Source, keywords.Args{Count: n.Count})
	case *ast.Match:
		return e.apply("match", n.Source, keywords.Args{Attribute: n.Attribute, Value: n.Value})
	case *ast.Duplicate:
		return e.apply("*", n.Source, keywords.Args{Count: n.Count})
	default:
		return nil, types.NewSyntaxError(t.Position(), "unexpected term %s in lowered expression", t)
	}
}

// apply resolves the source resource and runs the keyword on it.
func (e *Engine) apply(keyword string, source ast.Term, args keywords.Args) (types.Collection, error) {
	ref, ok := source.(*ast.NameRef)
	if !ok {
		return nil, types.NewSyntaxError(source.Position(), "'%s' source %s was not lowered to a name", keyword, source)
	}
	coll, err := e.bindings.Get(ref.Name)
	if err != nil {
		return nil, err
	}
	args.Source = coll
	args.Resource = e.name(ref.Name)
	return e.keywords.Apply(keyword, args)
}

// name returns a user-facing name for a binding.
func (e *Engine) name(n string) string {
	if d, ok := e.display[n]; ok {
		return d
	}
	return n
}

// render prints a lowered expression with placeholders replaced by the text
// they stand for.
func (e *Engine) render(expr *ast.Expr) string {
	s := ""
	for i, t := range expr.Terms {
		if i > 0 {
			s += " : "
		}
		s += e.renderTerm(t)
	}
	return s
}

func (e *Engine) renderTerm(t ast.Term) string {
	switch n := t.(type) {
	case *ast.NameRef:
		return e.name(n.Name)
	case *ast.Collapse:
		return "collapse " + e.renderTerm(n.Source)
	case *ast.Rank:
		return fmt.Sprintf("%s %d by %s from %s", n.Keyword, n.Count, n.Attribute, e.renderTerm(n.Source))
	case *ast.Any:
		return fmt.Sprintf("any %d from %s", n.Count, e.renderTerm(n.Source))
	case *ast.Match:
		return fmt.Sprintf("match %s = '%s' from %s", n.Attribute, n.Value, e.renderTerm(n.Source))
	case *ast.Duplicate:
		return fmt.Sprintf("%d * %s", n.Count, e.renderTerm(n.Source))
	default:
		return t.String()
	}
}
