package server

import (
	"context"
	"slices"
	"strings"

	"github.com/deepnoodle-ai/docdb/wire"
)

// tupleSeparator joins tuple values into map keys. It cannot occur in XML
// text or valid JSON strings.
const tupleSeparator = "\x00"

// matching returns the documents of v selected by c, in URI order
func matching(ctx context.Context, v view, c *wire.Criteria) ([]*indexed, error) {
	m, err := compileCriteria(c)
	if err != nil {
		return nil, err
	}
	records, err := v.List(ctx, m.criteria.Directory)
	if err != nil {
		return nil, err
	}
	var out []*indexed
	for _, rec := range records {
		d := newIndexed(rec)
		if m.match(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func distinctValues(docs []*indexed, l wire.Locator, req wire.ValuesRequest) []wire.DistinctValue {
	counts := map[string]int64{}
	for _, d := range docs {
		for _, v := range d.Values(l) {
			counts[v]++
		}
	}
	out := make([]wire.DistinctValue, 0, len(counts))
	for v, n := range counts {
		out = append(out, wire.DistinctValue{Value: v, Frequency: n})
	}
	slices.SortFunc(out, func(a, b wire.DistinctValue) int {
		return compareLexicon(a.Value, b.Value, a.Frequency, b.Frequency, req.Ascending)
	})
	return page(out, req.Start, req.Limit)
}

// tuples counts the documents in which each combination of located values
// occurs together.
func tuples(docs []*indexed, locators []wire.Locator, req wire.ValuesRequest) []wire.Tuple {
	counts := map[string]int64{}
	for _, d := range docs {
		combos := [][]string{{}}
		for _, l := range locators {
			values := unique(d.Values(l))
			var next [][]string
			for _, combo := range combos {
				for _, v := range values {
					next = append(next, append(slices.Clone(combo), v))
				}
			}
			combos = next
		}
		for _, combo := range combos {
			counts[strings.Join(combo, tupleSeparator)]++
		}
	}
	out := make([]wire.Tuple, 0, len(counts))
	for key, n := range counts {
		out = append(out, wire.Tuple{Values: strings.Split(key, tupleSeparator), Frequency: n})
	}
	slices.SortFunc(out, func(a, b wire.Tuple) int {
		return compareLexicon(strings.Join(a.Values, tupleSeparator), strings.Join(b.Values, tupleSeparator),
			a.Frequency, b.Frequency, req.Ascending)
	})
	return page(out, req.Start, req.Limit)
}

// compareLexicon orders by descending frequency unless an explicit value
// order is requested.
func compareLexicon(a, b string, fa, fb int64, ascending *bool) int {
	if ascending != nil {
		if *ascending {
			return strings.Compare(a, b)
		}
		return strings.Compare(b, a)
	}
	if fa != fb {
		if fa > fb {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func unique(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

// page applies a 1-based start and a limit, where zero means no limit
func page[T any](items []T, start, limit int64) []T {
	if start < 1 {
		start = 1
	}
	first := min(start-1, int64(len(items)))
	last := int64(len(items))
	if limit > 0 {
		last = min(first+limit, last)
	}
	return items[first:last]
}
