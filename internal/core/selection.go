package core

// selection.go picks the questions that go onto a test sheet.
//
// A selection is built in four steps: optional filter expression, inclusive
// identifier range, uniform sampling without replacement, then the ordering
// policy. Sampling takes the prefix of a random permutation, so every subset
// of the requested size is equally likely.

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// seedStream is the PCG stream constant paired with a user-supplied seed.
const seedStream = 0x9e3779b97f4a7c15

// NewRand returns a random source. A nil seed yields a randomly seeded source;
// a non-nil seed yields a reproducible one.
func NewRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, *seed^seedStream))
}

// InRange returns the items with start <= ID <= end, in source order.
func InRange(items []Item, start, end int) []Item {
	var out []Item
	for _, it := range items {
		if it.ID >= start && it.ID <= end {
			out = append(out, it)
		}
	}
	return out
}

// Sample draws count distinct items uniformly at random and returns them in
// draw order. count must lie in [1, len(items)].
func Sample(items []Item, count int, r *rand.Rand) ([]Item, error) {
	if count < 1 || count > len(items) {
		return nil, &RangeError{Reason: ReasonCount, Count: count, Available: len(items)}
	}
	if r == nil {
		r = NewRand(nil)
	}
	perm := r.Perm(len(items))[:count]
	out := make([]Item, count)
	for i, p := range perm {
		out[i] = items[p]
	}
	return out, nil
}

// Arrange returns a copy of items ordered by the policy. Sorting is stable,
// so repeated identifiers keep their draw order.
func Arrange(items []Item, order SortOrder) []Item {
	out := slices.Clone(items)
	switch order {
	case OrderAscending:
		slices.SortStableFunc(out, func(a, b Item) int { return cmp.Compare(a.ID, b.ID) })
	case OrderDescending:
		slices.SortStableFunc(out, func(a, b Item) int { return cmp.Compare(b.ID, a.ID) })
	}
	return out
}

// Select applies p to items: filter, range, sample and order.
// A nil r draws from a freshly seeded source.
func Select(items []Item, p SelectParams, r *rand.Rand) ([]Item, error) {
	if p.Start > p.End {
		return nil, &RangeError{Reason: ReasonInverted, Start: p.Start, End: p.End, Count: p.Count}
	}

	filter, err := CompileFilter(p.Filter)
	if err != nil {
		return nil, err
	}
	pool, err := filter.Apply(InRange(items, p.Start, p.End))
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, &RangeError{Reason: ReasonEmpty, Start: p.Start, End: p.End, Count: p.Count}
	}

	if p.Count < 1 || p.Count > len(pool) {
		return nil, &RangeError{Reason: ReasonCount, Start: p.Start, End: p.End, Count: p.Count, Available: len(pool)}
	}

	picked, err := Sample(pool, p.Count, r)
	if err != nil {
		return nil, err
	}
	return Arrange(picked, p.Order), nil
}
