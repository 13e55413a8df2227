package keywords

import (
	"sort"
	"strconv"

	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// Collapse merges every population of the source into one, in order.
func Collapse(args Args) (types.Collection, error) {
	return types.Collection{args.Source.Flatten()}, nil
}

// MaxOrganisms is the largest collection, in organisms or populations, an
// operator builds.
const MaxOrganisms = 1 << 24

// Random returns one population of Count random-organism sentinels.
func Random(args Args) (types.Collection, error) {
	if err := checkSynthetic("random", args.Count); err != nil {
		return nil, err
	}
	return types.Collection{types.Repeat(types.Random(), args.Count)}, nil
}

// Default returns one population of Count default-organism sentinels.
func Default(args Args) (types.Collection, error) {
	if err := checkSynthetic("default", args.Count); err != nil {
		return nil, err
	}
	return types.Collection{types.Repeat(types.Default(), args.Count)}, nil
}

func checkSynthetic(keyword string, n int) error {
	if n < 0 || n > MaxOrganisms {
		return types.NewDataError(keyword, "cannot create %d %s organisms (limit %d)", n, keyword, MaxOrganisms)
	}
	return nil
}

// Duplicate emits Count copies of each source population back to back.
func Duplicate(args Args) (types.Collection, error) {
	if args.Count < 0 {
		return nil, types.NewDataError(args.Resource, "cannot duplicate %s a negative number of times", args.Resource)
	}
	if args.Count > 0 {
		if len(args.Source) > MaxOrganisms/args.Count || args.Source.Size() > MaxOrganisms/args.Count {
			return nil, types.NewDataError(args.Resource,
				"%d * %s would exceed the limit of %d organisms", args.Count, args.Resource, MaxOrganisms)
		}
	}
	out := make(types.Collection, 0, len(args.Source)*args.Count)
	for _, pop := range args.Source {
		for i := 0; i < args.Count; i++ {
			cp := make(types.Population, len(pop))
			copy(cp, pop)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *Registry) greatest(args Args) (types.Collection, error) {
	return r.rank("greatest", args, func(a, b float64) bool { return a > b })
}

func (r *Registry) least(args Args) (types.Collection, error) {
	return r.rank("least", args, func(a, b float64) bool { return a < b })
}

// rank keeps the Count best records of each population under better. Ties
// keep their original order.
func (r *Registry) rank(keyword string, args Args, better func(a, b float64) bool) (types.Collection, error) {
	out := make(types.Collection, 0, len(args.Source))
	for _, pop := range args.Source {
		if len(pop) < args.Count {
			return nil, types.NewDataError(args.Resource,
				"trying to get %s %d from collection, but %s contains a population of only %d organisms",
				keyword, args.Count, args.Resource, len(pop))
		}

		type scored struct {
			ref   types.Ref
			score float64
		}
		entries := make([]scored, len(pop))
		for i, ref := range pop {
			raw, ok := r.attrs.Attribute(ref, args.Attribute)
			if !ok {
				return nil, types.NewDataError(args.Resource,
					"trying to get %s %d from collection, but %s contains organisms without attribute %s",
					keyword, args.Count, args.Resource, args.Attribute)
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, types.NewDataError(args.Resource,
					"attribute %s has non-numeric value %q in %s", args.Attribute, raw, args.Resource)
			}
			entries[i] = scored{ref: ref, score: v}
		}

		sort.SliceStable(entries, func(i, j int) bool {
			return better(entries[i].score, entries[j].score)
		})

		sel := make(types.Population, args.Count)
		for i := range sel {
			sel[i] = entries[i].ref
		}
		out = append(out, sel)
	}
	return out, nil
}

// sample picks Count records from each population using the registry's
// shuffler.
func (r *Registry) sample(args Args) (types.Collection, error) {
	out := make(types.Collection, 0, len(args.Source))
	for _, pop := range args.Source {
		if len(pop) < args.Count {
			return nil, types.NewDataError(args.Resource,
				"trying to get any %d from collection, but %s contains a population of only %d organisms",
				args.Count, args.Resource, len(pop))
		}
		shuffled := make(types.Population, len(pop))
		copy(shuffled, pop)
		r.shuffler.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		out = append(out, shuffled[:args.Count:args.Count])
	}
	return out, nil
}

// match keeps the records whose Attribute equals Value. Populations that end
// up empty are kept so grouping is preserved.
func (r *Registry) match(args Args) (types.Collection, error) {
	out := make(types.Collection, 0, len(args.Source))
	for _, pop := range args.Source {
		values := make([]string, len(pop))
		for i, ref := range pop {
			v, ok := r.attrs.Attribute(ref, args.Attribute)
			if !ok {
				return nil, types.NewDataError(args.Resource,
					"while trying to match %s, %s contains organisms without attribute %s",
					args.Value, args.Resource, args.Attribute)
			}
			values[i] = v
		}
		kept := types.Population{}
		for i, ref := range pop {
			if values[i] == args.Value {
				kept = append(kept, ref)
			}
		}
		out = append(out, kept)
	}
	return out, nil
}
