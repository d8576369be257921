package rules

import (
	"math/rand/v2"

	"github.com/brensch/mcts2048/game"
)

// FourChance is the probability that a spawned tile is a 4 rather than a 2.
const FourChance = 0.1

// Spawn places a 2 (p=0.9) or a 4 on a uniformly chosen empty cell.
// It returns false and leaves b untouched when the board is full.
func Spawn(b *game.Board, rng *rand.Rand) bool {
	empty := b.Empty()
	if empty == 0 {
		return false
	}
	k := rng.IntN(empty)
	v := 2
	if rng.Float64() < FourChance {
		v = 4
	}
	for r := 0; r < game.Size; r++ {
		for c := 0; c < game.Size; c++ {
			if b[r][c] != 0 {
				continue
			}
			if k == 0 {
				b[r][c] = v
				return true
			}
			k--
		}
	}
	return false
}
