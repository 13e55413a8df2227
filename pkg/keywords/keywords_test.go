package keywords

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lemonberrylabs/population-loader/pkg/store"
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// reverser is a Shuffler that reverses the population.
type reverser struct{}

func (reverser) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

// newStore loads one file per attribute list. Each map becomes a record with
// a sequential ID.
func newStore(t *testing.T, files ...[]map[string]string) (*store.Store, types.Collection) {
	t.Helper()
	s := store.New()
	var coll types.Collection
	id := int64(1)
	for i, rows := range files {
		recs := make([]store.Record, len(rows))
		for j, attrs := range rows {
			recs[j] = store.Record{Attributes: attrs, OrigID: id}
			id++
		}
		name := "f" + strconv.Itoa(i) + ".csv"
		if _, err := s.AppendFile(name, recs); err != nil {
			t.Fatal(err)
		}
		pop, err := s.Population(name)
		if err != nil {
			t.Fatal(err)
		}
		coll = append(coll, pop)
	}
	return s, coll
}

func scores(values ...string) []map[string]string {
	out := make([]map[string]string, len(values))
	for i, v := range values {
		out[i] = map[string]string{"score": v}
	}
	return out
}

func TestGreatestAndLeast(t *testing.T) {
	s, coll := newStore(t, scores("1", "5", "3", "2"))
	r := NewRegistry(s, reverser{})

	got, err := r.Apply("greatest", Args{Resource: "P", Source: coll, Count: 2, Attribute: "score"})
	if err != nil {
		t.Fatalf("greatest: %v", err)
	}
	want := types.Collection{{types.Loaded(1), types.Loaded(2)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("greatest 2 mismatch (-want +got):\n%s", diff)
	}

	got, err = r.Apply("least", Args{Resource: "P", Source: coll, Count: 3, Attribute: "score"})
	if err != nil {
		t.Fatalf("least: %v", err)
	}
	want = types.Collection{{types.Loaded(0), types.Loaded(3), types.Loaded(2)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("least 3 mismatch (-want +got):\n%s", diff)
	}
}

func TestRankIsPerPopulationAndStable(t *testing.T) {
	s, coll := newStore(t,
		scores("2", "7", "7", "1"),
		scores("0.5", "-1", "1e1"),
	)
	r := NewRegistry(s, nil)

	got, err := r.Apply("greatest", Args{Source: coll, Count: 2, Attribute: "score"})
	if err != nil {
		t.Fatal(err)
	}
	want := types.Collection{
		{types.Loaded(1), types.Loaded(2)},
		{types.Loaded(6), types.Loaded(4)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got, err = r.Apply("least", Args{Source: coll, Count: 0, Attribute: "score"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 || got.Size() != 0 {
		t.Errorf("least 0 = %v, want two empty populations", got)
	}
}

func TestRankErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   [][]map[string]string
		extra   types.Population
		count   int
		wantMsg string
	}{
		{"too few", [][]map[string]string{scores("1", "2")}, nil, 5, "only 2 organisms"},
		{"missing attribute", [][]map[string]string{{{"other": "1"}}}, nil, 1, "without attribute score"},
		{"non-numeric", [][]map[string]string{scores("1", "high")}, nil, 1, "non-numeric"},
		{"random sentinel", [][]map[string]string{scores("1")}, types.Population{types.Random()}, 1, "without attribute score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, coll := newStore(t, tt.files...)
			if tt.extra != nil {
				coll[0] = append(coll[0], tt.extra...)
			}
			r := NewRegistry(s, nil)
			_, err := r.Apply("greatest", Args{Resource: "P", Source: coll, Count: tt.count, Attribute: "score"})
			if !types.IsKind(err, types.KindData) {
				t.Fatalf("got %v, want DataError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestAny(t *testing.T) {
	s, coll := newStore(t, scores("1", "2", "3", "4", "5"))

	r := NewRegistry(s, reverser{})
	got, err := r.Apply("any", Args{Source: coll, Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := types.Collection{{types.Loaded(4), types.Loaded(3)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if coll[0][0] != types.Loaded(0) {
		t.Error("any modified its source population")
	}

	if _, err := r.Apply("any", Args{Source: coll, Count: 6}); !types.IsKind(err, types.KindData) {
		t.Errorf("any 6 from 5: got %v, want DataError", err)
	}
}

func TestAnySeededIsReproducible(t *testing.T) {
	s, coll := newStore(t, scores("1", "2", "3", "4", "5", "6", "7", "8"))

	run := func() types.Collection {
		r := NewRegistry(s, rand.New(rand.NewPCG(42, 42)))
		got, err := r.Apply("any", Args{Source: coll, Count: 4})
		if err != nil {
			t.Fatal(err)
		}
		return got
	}
	first, second := run(), run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed gave different selections (-first +second):\n%s", diff)
	}

	seen := map[types.Ref]bool{}
	for _, ref := range first[0] {
		if seen[ref] {
			t.Errorf("%v selected twice", ref)
		}
		seen[ref] = true
		if ref.Index < 0 || ref.Index >= 8 {
			t.Errorf("%v is not from the source", ref)
		}
	}
}

func TestMatch(t *testing.T) {
	s, coll := newStore(t,
		[]map[string]string{{"kind": "big"}, {"kind": "small"}, {"kind": "big"}},
		[]map[string]string{{"kind": "small"}},
	)
	r := NewRegistry(s, nil)

	got, err := r.Apply("match", Args{Source: coll, Attribute: "kind", Value: "big"})
	if err != nil {
		t.Fatal(err)
	}
	want := types.Collection{{types.Loaded(0), types.Loaded(2)}, {}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	coll[1] = append(coll[1], types.Default())
	if _, err := r.Apply("match", Args{Resource: "P", Source: coll, Attribute: "kind", Value: "big"}); !types.IsKind(err, types.KindData) {
		t.Errorf("match over a default sentinel: got %v, want DataError", err)
	}
}

func TestCollapseAndDuplicate(t *testing.T) {
	coll := types.Collection{{types.Loaded(0), types.Loaded(1)}, {types.Random()}}
	r := NewRegistry(store.New(), nil)

	got, err := r.Apply("collapse", Args{Source: coll})
	if err != nil {
		t.Fatal(err)
	}
	want := types.Collection{{types.Loaded(0), types.Loaded(1), types.Random()}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collapse mismatch (-want +got):\n%s", diff)
	}

	got, err = r.Apply("*", Args{Source: coll, Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	want = types.Collection{
		{types.Loaded(0), types.Loaded(1)},
		{types.Loaded(0), types.Loaded(1)},
		{types.Random()},
		{types.Random()},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("duplicate mismatch (-want +got):\n%s", diff)
	}
	if got.Len() != 2*coll.Len() || got.Size() != 2*coll.Size() {
		t.Errorf("2 * R has %d populations / %d organisms", got.Len(), got.Size())
	}

	got, err = r.Apply("*", Args{Source: coll, Count: 0})
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 0 {
		t.Errorf("0 * R = %v, want empty", got)
	}
}

func TestSynthetic(t *testing.T) {
	r := NewRegistry(store.New(), nil)
	for _, tt := range []struct {
		keyword string
		kind    types.RefKind
	}{
		{"random", types.RefRandom},
		{"default", types.RefDefault},
	} {
		got, err := r.Apply(tt.keyword, Args{Count: 3})
		if err != nil {
			t.Fatal(err)
		}
		if got.Len() != 1 || got.Size() != 3 {
			t.Errorf("%s 3 = %v", tt.keyword, got)
		}
		for _, ref := range got[0] {
			if ref.Kind != tt.kind {
				t.Errorf("%s produced %v", tt.keyword, ref)
			}
		}
	}
}

func TestUnknownKeyword(t *testing.T) {
	r := NewRegistry(store.New(), nil)
	if _, err := r.Apply("median", Args{}); !types.IsKind(err, types.KindSyntax) {
		t.Errorf("got %v, want SyntaxError", err)
	}
}

func TestSizeLimits(t *testing.T) {
	r := NewRegistry(store.New(), nil)
	big := types.Collection{types.Repeat(types.Random(), 1<<12), types.Repeat(types.Random(), 1<<12)}

	tests := []struct {
		name    string
		keyword string
		args    Args
	}{
		{"random too many", "random", Args{Count: MaxOrganisms + 1}},
		{"random negative", "random", Args{Count: -1}},
		{"default overflow", "default", Args{Count: math.MaxInt}},
		{"duplicate organisms", "*", Args{Resource: "R", Source: big, Count: 1 << 12}},
		{"duplicate populations", "*", Args{Resource: "R", Source: make(types.Collection, 1<<12), Count: 1 << 13}},
		{"duplicate overflow", "*", Args{Resource: "R", Source: big, Count: math.MaxInt}},
		{"duplicate negative", "*", Args{Resource: "R", Source: big, Count: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Apply(tt.keyword, tt.args); !types.IsKind(err, types.KindData) {
				t.Errorf("got %v, want DataError", err)
			}
		})
	}
}
