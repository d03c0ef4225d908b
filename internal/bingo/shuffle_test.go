package bingo

import (
	"context"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/rocketscienceinc/bingo-backend/internal/repository"
	"github.com/rocketscienceinc/bingo-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewPool(t *testing.T) {
	t.Run("Contains every ball once", func(t *testing.T) {
		// When: building a 90 ball pool
		pool := NewPool(rand.New(rand.NewPCG(1, 2)), 90)

		// Then: it is a permutation of 1..90
		sorted := append([]int{}, pool...)
		sort.Ints(sorted)
		for i, ball := range sorted {
			require.Equal(t, i+1, ball)
		}
	})

	t.Run("Single ball pool", func(t *testing.T) {
		assert.Equal(t, []int{1}, NewPool(rand.New(rand.NewPCG(1, 2)), 1))
	})
}

// TestShuffle_Uniform checks with a chi-square test that every ball is
// equally likely to end up in every position.
func TestShuffle_Uniform(t *testing.T) {
	const (
		size = 10
		runs = 20000

		// 99.9th percentile of chi-square with (size-1)^2 = 81 degrees of freedom
		critical = 126.1
	)

	rnd := rand.New(rand.NewPCG(2024, 10))

	var counts [size][size]int
	balls := make([]int, size)
	for range runs {
		for i := range balls {
			balls[i] = i
		}

		Shuffle(rnd, balls)

		for position, ball := range balls {
			counts[position][ball]++
		}
	}

	expected := float64(runs) / size

	chiSquare := 0.0
	for position := range size {
		for ball := range size {
			diff := float64(counts[position][ball]) - expected
			chiSquare += diff * diff / expected
		}
	}

	assert.Less(t, chiSquare, critical, "shuffle is biased: chi-square %.2f", chiSquare)
}

// TestProperty_PoolAndHistoryPartitionTheRange drives the engine with random
// operation sequences and checks the partition invariant after each step.
func TestProperty_PoolAndHistoryPartitionTheRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		repo := repository.NewMemorySnapshotRepository()

		seed := rapid.Uint64().Draw(t, "seed")
		total := rapid.IntRange(1, 90).Draw(t, "total")

		engine := NewEngine(suite.Logger(), repo, WithRand(rand.New(rand.NewPCG(seed, seed))))
		if err := engine.Initialize(ctx, total); err != nil {
			t.Fatalf("initialize: %v", err)
		}

		drawn := make(map[int]bool)
		steps := rapid.IntRange(0, 150).Draw(t, "steps")
		for i := range steps {
			switch rapid.IntRange(0, 9).Draw(t, "op") {
			case 0:
				if err := engine.Restart(ctx); err != nil {
					t.Fatalf("restart: %v", err)
				}

				drawn = make(map[int]bool)
			case 1:
				reloaded := NewEngine(suite.Logger(), repo)
				if !reloaded.LoadSnapshot(ctx) {
					t.Fatalf("step %d: snapshot not restored", i)
				}

				if len(reloaded.History()) != len(engine.History()) {
					t.Fatalf("step %d: restored history differs", i)
				}

				engine = reloaded
			default:
				ball, ok := engine.DrawOne(ctx)
				if ok {
					if drawn[ball] {
						t.Fatalf("step %d: ball %d drawn twice", i, ball)
					}

					drawn[ball] = true
				}
			}

			pool, history := engine.Pool(), engine.History()
			if len(pool)+len(history) != total {
				t.Fatalf("step %d: pool %d + history %d != %d", i, len(pool), len(history), total)
			}

			seen := make(map[int]bool, total)
			for _, ball := range append(pool, history...) {
				if ball < 1 || ball > total || seen[ball] {
					t.Fatalf("step %d: ball %d breaks the partition", i, ball)
				}

				seen[ball] = true
			}
		}
	})
}
