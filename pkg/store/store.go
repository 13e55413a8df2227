// Package store provides the append-only record store that holds every
// organism loaded during one interpretation pass.
package store

import (
	"fmt"

	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// Record is one row pulled from an organisms file (joined with its data file
// when one exists).
type Record struct {
	Attributes map[string]string `json:"attributes"`
	File       string            `json:"file"`
	OrigID     int64             `json:"id"`
}

// Range is the contiguous span of store indices contributed by one file.
type Range struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

// End returns the index one past the last record of the range.
func (r Range) End() int {
	return r.Start + r.Count
}

// Store holds records in load order. A record's index is assigned once, when
// its file is appended, and is never reused.
type Store struct {
	records []Record
	ranges  map[string]Range
	files   []string
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		ranges: make(map[string]Range),
	}
}

// AppendFile adds all records of a file and returns the range they occupy.
// A file may only be appended once.
func (s *Store) AppendFile(file string, records []Record) (Range, error) {
	if _, exists := s.ranges[file]; exists {
		return Range{}, fmt.Errorf("file '%s' already loaded", file)
	}

	r := Range{Start: len(s.records), Count: len(records)}
	for _, rec := range records {
		rec.File = file
		s.records = append(s.records, rec)
	}
	s.ranges[file] = r
	s.files = append(s.files, file)
	return r, nil
}

// Get returns the record at index i.
func (s *Store) Get(i int) (*Record, error) {
	if i < 0 || i >= len(s.records) {
		return nil, fmt.Errorf("record index %d out of range (store holds %d)", i, len(s.records))
	}
	return &s.records[i], nil
}

// Range returns the span loaded from file.
func (s *Store) Range(file string) (Range, bool) {
	r, ok := s.ranges[file]
	return r, ok
}

// Population returns every record of file as one population, in file order.
func (s *Store) Population(file string) (types.Population, error) {
	r, ok := s.ranges[file]
	if !ok {
		return nil, fmt.Errorf("file '%s' not loaded", file)
	}
	pop := make(types.Population, r.Count)
	for i := range pop {
		pop[i] = types.Loaded(r.Start + i)
	}
	return pop, nil
}

// Files returns the loaded files in load order.
func (s *Store) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// Attribute returns the value of attr for the record referenced by ref.
// ok is false when the reference is synthetic or the attribute is missing.
func (s *Store) Attribute(ref types.Ref, attr string) (string, bool) {
	if !ref.IsLoaded() || ref.Index < 0 || ref.Index >= len(s.records) {
		return "", false
	}
	v, ok := s.records[ref.Index].Attributes[attr]
	return v, ok
}
