package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lemonberrylabs/population-loader/pkg/types"
)

func records(ids ...int64) []Record {
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = Record{Attributes: map[string]string{"ID": "x"}, OrigID: id}
	}
	return out
}

func TestAppendFileAssignsContiguousRanges(t *testing.T) {
	s := New()

	ra, err := s.AppendFile("a.csv", records(10, 11, 12))
	if err != nil {
		t.Fatalf("AppendFile a: %v", err)
	}
	rb, err := s.AppendFile("b.csv", records(20, 21))
	if err != nil {
		t.Fatalf("AppendFile b: %v", err)
	}

	if ra != (Range{Start: 0, Count: 3}) {
		t.Errorf("range a = %+v", ra)
	}
	if rb != (Range{Start: 3, Count: 2}) || rb.End() != 5 {
		t.Errorf("range b = %+v", rb)
	}
	if s.Len() != 5 {
		t.Errorf("Len = %d, want 5", s.Len())
	}
	if diff := cmp.Diff([]string{"a.csv", "b.csv"}, s.Files()); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}

	rec, err := s.Get(4)
	if err != nil {
		t.Fatal(err)
	}
	if rec.File != "b.csv" || rec.OrigID != 21 {
		t.Errorf("record 4 = %+v", rec)
	}
}

func TestAppendFileTwice(t *testing.T) {
	s := New()
	if _, err := s.AppendFile("a.csv", records(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendFile("a.csv", records(1)); err == nil {
		t.Fatal("expected error appending the same file twice")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d after rejected append, want 1", s.Len())
	}
}

func TestPopulation(t *testing.T) {
	s := New()
	s.AppendFile("a.csv", records(1, 2))
	s.AppendFile("b.csv", records(3, 4, 5))

	pop, err := s.Population("b.csv")
	if err != nil {
		t.Fatal(err)
	}
	want := types.Population{types.Loaded(2), types.Loaded(3), types.Loaded(4)}
	if diff := cmp.Diff(want, pop); diff != "" {
		t.Errorf("Population mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Population("c.csv"); err == nil {
		t.Error("expected error for a file that was never loaded")
	}
}

func TestAttribute(t *testing.T) {
	s := New()
	s.AppendFile("a.csv", []Record{{Attributes: map[string]string{"ID": "1", "score": "4.5"}, OrigID: 1}})

	if v, ok := s.Attribute(types.Loaded(0), "score"); !ok || v != "4.5" {
		t.Errorf("Attribute(score) = %q, %v", v, ok)
	}
	if _, ok := s.Attribute(types.Loaded(0), "missing"); ok {
		t.Error("missing attribute reported present")
	}
	if _, ok := s.Attribute(types.Random(), "score"); ok {
		t.Error("random sentinel must have no attributes")
	}
	if _, ok := s.Attribute(types.Default(), "ID"); ok {
		t.Error("default sentinel must have no attributes")
	}
	if _, ok := s.Attribute(types.Loaded(9), "score"); ok {
		t.Error("out of range index reported present")
	}
	if _, err := s.Get(-1); err == nil {
		t.Error("Get(-1) should fail")
	}
}
