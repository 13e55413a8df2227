// Package resolver expands quoted file patterns from a script and loads every
// matching organisms file into the record store exactly once.
package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/lemonberrylabs/population-loader/pkg/store"
	"github.com/lemonberrylabs/population-loader/pkg/table"
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// Resolver turns file patterns into collections backed by the store.
type Resolver struct {
	store  *store.Store
	dir    string
	logger logrus.FieldLogger

	// reads counts how many times each file was read from disk.
	reads map[string]int
}

// New creates a resolver that loads into s. Relative patterns are resolved
// against dir; an empty dir means the working directory.
func New(s *store.Store, dir string, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		store:  s,
		dir:    dir,
		logger: logger,
		reads:  make(map[string]int),
	}
}

// Expand returns the files matching pattern in sorted order. Patterns may use
// *, ?, [...], {a,b} and **. A pattern that matches nothing is a FileError.
func (r *Resolver) Expand(pattern string) ([]string, error) {
	full := pattern
	if r.dir != "" && !filepath.IsAbs(pattern) {
		full = filepath.Join(r.dir, pattern)
	}

	matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
	if err != nil {
		return nil, types.NewFileError(pattern, err, "invalid file pattern '%s'", pattern)
	}
	if len(matches) == 0 {
		return nil, types.NewFileError(pattern, nil, "'%s' does not match any files", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// Resolve expands every pattern, loads each distinct file once (in order of
// first appearance), and returns one collection per pattern. Each collection
// holds one population per expanded file covering all of that file's records.
func (r *Resolver) Resolve(patterns []string) (map[string]types.Collection, error) {
	expanded := make(map[string][]string, len(patterns))
	var order []string
	seen := make(map[string]bool)

	for _, p := range patterns {
		files, err := r.Expand(p)
		if err != nil {
			return nil, err
		}
		expanded[p] = files
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				order = append(order, f)
			}
		}
	}

	for _, f := range order {
		if _, loaded := r.store.Range(f); loaded {
			continue
		}
		if err := r.load(f); err != nil {
			return nil, err
		}
	}

	out := make(map[string]types.Collection, len(patterns))
	for _, p := range patterns {
		coll := make(types.Collection, 0, len(expanded[p]))
		for _, f := range expanded[p] {
			pop, err := r.store.Population(f)
			if err != nil {
				return nil, types.NewFileError(f, err, "file '%s' was not loaded", f)
			}
			coll = append(coll, pop)
		}
		out[p] = coll
	}
	return out, nil
}

// Reads returns how many times file was read from disk.
func (r *Resolver) Reads(file string) int {
	return r.reads[file]
}

// load reads an organisms file, joins its data file if present, and appends
// the resulting records to the store.
func (r *Resolver) load(file string) error {
	r.logger.WithField("file", file).Info("Parsing file")
	r.reads[file]++

	t, err := table.Read(file)
	if err != nil {
		return types.NewFileError(file, err, "unable to load '%s'", file)
	}

	dataFile := table.DataFileName(file)
	if dataFile != file {
		if info, statErr := os.Stat(dataFile); statErr == nil && !info.IsDir() {
			r.logger.WithFields(logrus.Fields{"file": file, "data": dataFile}).Debug("Merging data file")
			d, err := table.Read(dataFile)
			if err != nil {
				return types.NewFileError(dataFile, err, "unable to load data file '%s'", dataFile)
			}
			if err := t.Merge(d, table.KeyColumn); err != nil {
				return types.NewFileError(dataFile, err, "unable to merge '%s' into '%s'", dataFile, file)
			}
		}
	}

	ids, err := t.Column(table.KeyColumn)
	if err != nil {
		return types.NewFileError(file, err, "no %s column for organisms in '%s'", table.KeyColumn, file)
	}

	records := make([]store.Record, len(t.Rows))
	for i, id := range ids {
		orig, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return types.NewFileError(file, err, "row %d of '%s' has non-integer %s %q", i+1, file, table.KeyColumn, id)
		}
		records[i] = store.Record{Attributes: t.RowMap(i), OrigID: orig}
	}

	rng, err := r.store.AppendFile(file, records)
	if err != nil {
		return types.NewFileError(file, err, "unable to store '%s'", file)
	}
	r.logger.WithFields(logrus.Fields{"file": file, "organisms": rng.Count, "start": rng.Start}).Debug("Loaded organisms")
	return nil
}
