package game

import (
	"math/rand/v2"
	"slices"
)

// pickSpies clamps count into [1, n/2] when it would leave no civilians and
// takes the first count ids of a uniform shuffle.
func pickSpies(rng *rand.Rand, ids []string, count int) []string {
	n := len(ids)
	if count < 1 {
		count = 1
	}
	if count >= n {
		count = n / 2
	}

	shuffled := slices.Clone(ids)
	rng.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count]
}
