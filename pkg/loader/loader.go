// Package loader runs a population loader script end to end: parse, resolve
// files, evaluate, validate MASTER, and convert the result into the organisms
// a simulation starts from.
package loader

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lemonberrylabs/population-loader/pkg/ast"
	"github.com/lemonberrylabs/population-loader/pkg/keywords"
	"github.com/lemonberrylabs/population-loader/pkg/parser"
	"github.com/lemonberrylabs/population-loader/pkg/resolver"
	"github.com/lemonberrylabs/population-loader/pkg/runtime"
	"github.com/lemonberrylabs/population-loader/pkg/store"
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// ScriptExtension marks a loader argument as a path rather than inline text.
const ScriptExtension = ".plf"

// Options configures a Loader.
type Options struct {
	// Shuffler drives `any`. Nil means unseeded.
	Shuffler keywords.Shuffler

	// Dir is the directory relative file patterns are resolved against.
	// Empty means the working directory.
	Dir string

	Logger logrus.FieldLogger
}

// Organism is one entry of the final population.
type Organism struct {
	Kind types.RefKind `json:"kind" yaml:"kind"`

	// Attributes is empty for random and default organisms.
	Attributes map[string]string `json:"attributes" yaml:"attributes"`

	// File and ID identify where a loaded organism came from.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
}

// Result is the outcome of one successful pass.
type Result struct {
	Organisms []Organism `json:"organisms" yaml:"organisms"`
	Summary   Summary    `json:"summary" yaml:"summary"`
}

// Loader interprets scripts. Each call to Load is an independent pass with
// its own record store and bindings.
type Loader struct {
	opts Options
}

// New creates a loader.
func New(opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Loader{opts: opts}
}

// LoadScript interprets source, which is either the path of a .plf file or
// inline script text.
func (l *Loader) LoadScript(source string) (*Result, error) {
	text, err := ReadSource(source, l.opts.Logger)
	if err != nil {
		return nil, err
	}
	return l.Load(text)
}

// ReadSource returns the script text for source: the contents of the file
// when source names a .plf file, otherwise source itself.
func ReadSource(source string, logger logrus.FieldLogger) (string, error) {
	trimmed := strings.TrimSpace(source)
	if !strings.HasSuffix(trimmed, ScriptExtension) {
		return source, nil
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", types.NewScriptNotFoundError(trimmed, nil)
		}
		return "", types.NewScriptNotFoundError(trimmed, err)
	}
	if logger != nil {
		logger.WithField("script", trimmed).Info("Creating population")
	}
	return string(data), nil
}

// Check parses and lowers text without touching the file system.
func (l *Loader) Check(text string) (*ast.Plan, error) {
	plan, err := parser.ParseAndLower(text)
	if err != nil {
		return nil, err
	}
	if _, ok := plan.Lookup(ast.Master); !ok {
		return nil, types.NewBindingError(ast.Master, "must load from variable named %s", ast.Master)
	}
	return plan, nil
}

// Load interprets script text.
func (l *Loader) Load(text string) (*Result, error) {
	plan, err := l.Check(text)
	if err != nil {
		return nil, err
	}

	s := store.New()
	res := resolver.New(s, l.opts.Dir, l.opts.Logger)
	files, err := res.Resolve(plan.Files())
	if err != nil {
		return nil, err
	}

	kw := keywords.NewRegistry(s, l.opts.Shuffler)
	bindings, err := runtime.NewEngine(plan, kw, l.opts.Logger).Execute(files)
	if err != nil {
		return nil, err
	}

	master, err := bindings.Get(ast.Master)
	if err != nil {
		return nil, types.NewBindingError(ast.Master, "must load from variable named %s", ast.Master)
	}
	if master.Len() != 1 {
		return nil, types.NewBindingError(ast.Master,
			"variable named %s must contain exactly one population, got %d", ast.Master, master.Len())
	}

	orgs, err := convert(s, master[0])
	if err != nil {
		return nil, err
	}
	result := &Result{Organisms: orgs, Summary: Summarize(orgs)}
	l.opts.Logger.WithFields(logrus.Fields{
		"organisms": len(orgs),
		"random":    result.Summary.Random,
		"default":   result.Summary.Default,
		"files":     len(result.Summary.Files),
	}).Info("Population loaded")
	return result, nil
}

// convert turns a population into organisms: sentinels carry no attributes,
// loaded references carry a copy of their record's attributes.
func convert(s *store.Store, pop types.Population) ([]Organism, error) {
	out := make([]Organism, len(pop))
	for i, ref := range pop {
		if !ref.IsLoaded() {
			out[i] = Organism{Kind: ref.Kind, Attributes: map[string]string{}}
			continue
		}
		rec, err := s.Get(ref.Index)
		if err != nil {
			return nil, types.NewDataError(ref.String(), "%v", err)
		}
		attrs := make(map[string]string, len(rec.Attributes))
		for k, v := range rec.Attributes {
			attrs[k] = v
		}
		out[i] = Organism{Kind: types.RefLoaded, Attributes: attrs, File: rec.File, ID: rec.OrigID}
	}
	return out, nil
}
