package tasks

import "math/rand/v2"

// ShuffleFunc permutes n elements through swap, with the signature of [rand.Shuffle].
type ShuffleFunc func(n int, swap func(i, j int))

// Shuffle returns a uniformly permuted copy of items. A nil fn uses [rand.Shuffle].
func Shuffle[T any](items []T, fn ShuffleFunc) []T {
	if fn == nil {
		fn = rand.Shuffle
	}

	out := make([]T, len(items))
	copy(out, items)
	fn(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
