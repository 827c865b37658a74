package seedrand

import "fmt"

// Weighted pairs an item with its relative weight.
type Weighted[T any] struct {
	Item   T
	Weight float64
}

// Choice draws one item with probability proportional to its weight.
// Zero-weight items are never chosen. An empty set, a negative weight, or a
// non-positive total weight is an ErrInvalidArgument.
func Choice[T any](src *Source, items []Weighted[T]) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, fmt.Errorf("%w: Choice from an empty set", ErrInvalidArgument)
	}

	total := 0.0
	for i, w := range items {
		if w.Weight < 0 {
			return zero, fmt.Errorf("%w: Choice item %d has negative weight %v", ErrInvalidArgument, i, w.Weight)
		}
		total += w.Weight
	}
	if total <= 0 {
		return zero, fmt.Errorf("%w: Choice total weight is %v", ErrInvalidArgument, total)
	}

	target := src.NextFloat() * total
	for _, w := range items {
		if w.Weight == 0 {
			continue
		}
		if target < w.Weight {
			return w.Item, nil
		}
		target -= w.Weight
	}

	// Rounding can leave target just past the last bucket
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Weight > 0 {
			return items[i].Item, nil
		}
	}
	return zero, fmt.Errorf("%w: Choice found no positive weight", ErrInvalidArgument)
}
