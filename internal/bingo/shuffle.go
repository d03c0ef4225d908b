package bingo

import "math/rand/v2"

// NewPool returns the balls 1..total in a uniformly random order.
func NewPool(rnd *rand.Rand, total int) []int {
	pool := make([]int, total)
	for i := range pool {
		pool[i] = i + 1
	}

	Shuffle(rnd, pool)

	return pool
}

// Shuffle permutes balls in place with Fisher-Yates.
func Shuffle(rnd *rand.Rand, balls []int) {
	for i := len(balls) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		balls[i], balls[j] = balls[j], balls[i]
	}
}
