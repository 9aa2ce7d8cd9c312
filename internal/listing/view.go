package listing

import (
	"slices"
	"strings"
)

// Compute returns the rows of items that satisfy c, ordered by c.Sort.
// It is pure: items is never modified and equal inputs give equal output.
// Ties keep their collection order.
func Compute[T any](items []T, s Schema[T], c Criteria) []T {
	return compute(items, func(t T) T { return t }, s, c)
}

func compute[E, T any](xs []E, item func(E) T, s Schema[T], c Criteria) []E {
	needle := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]E, 0, len(xs))
	for _, x := range xs {
		if s.match(item(x), c, needle) {
			out = append(out, x)
		}
	}

	cmp, ok := s.Sorts[c.Sort]
	if !ok {
		return out
	}
	if c.Desc {
		slices.SortStableFunc(out, func(a, b E) int { return cmp(item(b), item(a)) })
	} else {
		slices.SortStableFunc(out, func(a, b E) int { return cmp(item(a), item(b)) })
	}
	return out
}
