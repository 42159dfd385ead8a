package allocator

import "math/rand"

// Shuffle returns a copy of names in a pseudo-random order derived from seed.
// The same seed always yields the same order.
func Shuffle(names []string, seed int64) []string {
	out := append([]string(nil), names...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
