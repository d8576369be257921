package mcts

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/rules"
)

// Validate checks the configuration before a search.
func (c Config) Validate() error {
	if c.Simulations < 1 {
		return fmt.Errorf("%w: simulations must be positive, got %d", game.ErrInvalidArgument, c.Simulations)
	}
	if !(c.C > 0) || math.IsInf(c.C, 0) {
		return fmt.Errorf("%w: exploration constant %v", game.ErrInvalidArgument, c.C)
	}
	return nil
}

// choose picks the next direction at decision node idx. Unexpanded
// directions come first, picked uniformly. Once every open direction has
// a child, the UCB maximiser wins, ties going to the earlier direction.
// ok is false when every direction is blocked.
func (t *Tree) choose(idx int32, c float64, rng *rand.Rand) (d game.Direction, ok bool) {
	n := &t.nodes[idx]

	var missing [game.NumDirections]game.Direction
	m := 0
	for _, dir := range game.Directions {
		if !n.isBlocked(dir) && n.children[dir] == noChild {
			missing[m] = dir
			m++
		}
	}
	if m > 0 {
		return missing[rng.IntN(m)], true
	}

	logN := math.Log(float64(n.Visits))
	best := -1
	bestUCB := math.Inf(-1)
	for _, dir := range game.Directions {
		if n.isBlocked(dir) {
			continue
		}
		child := &t.nodes[n.children[dir]]
		// children are created on the path they are first visited on, so
		// Visits >= 1 here
		v := float64(child.Visits)
		ucb := child.Value/v + c*math.Sqrt(logN/v)
		if best < 0 || ucb > bestUCB {
			best = int(dir)
			bestUCB = ucb
		}
	}
	if best < 0 {
		return 0, false
	}
	return game.Direction(best), true
}

// Search runs cfg.Simulations simulations from root and returns the tree.
// root is not modified. rng drives spawns, expansion order and rollouts;
// the tree is single-goroutine, so rng must not be shared.
func Search(ctx context.Context, root *game.Session, cfg Config, rng *rand.Rand) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(root.Boards) == 0 {
		return nil, game.ErrNoBoards
	}

	// each simulation adds at most one chance and one decision node
	t := newTree(2*cfg.Simulations + 1)
	if rules.IsOver(root) {
		zerolog.Ctx(ctx).Debug().Int("sims", cfg.Simulations).Msg("search-root-terminal")
		return t, nil
	}

	sandbox := &game.Session{Boards: make([]game.Board, len(root.Boards))}
	var out rules.BatchOutcome
	path := make([]int32, 0, 64)
	key := make([]byte, 0, game.Cells*len(root.Boards))

	for i := 0; i < cfg.Simulations; i++ {
		sandbox.CopyFrom(root)
		path = append(path[:0], 0)
		idx := int32(0)
		depth := 0
		leaf := 0.0

		for {
			if t.nodes[idx].Visits == 0 {
				score, err := cfg.Rollout.Play(sandbox, nil, rng)
				if err != nil {
					return t, fmt.Errorf("rollout at depth %d: %w", depth, err)
				}
				leaf = float64(score)
				break
			}

			d, ok := t.choose(idx, cfg.C, rng)
			if !ok {
				// every direction blocked: nothing left to gain here
				break
			}
			if err := rules.MoveInto(sandbox, d, rng, &out); err != nil {
				return t, err
			}
			if !out.Changed {
				// the sandbox is untouched, so retry from the same node
				t.nodes[idx].blocked |= 1 << uint(d)
				continue
			}

			ci := t.nodes[idx].children[d]
			if ci == noChild {
				ci = t.newChance(out.Score)
				t.nodes[idx].children[d] = ci
			}
			path = append(path, ci)
			if out.GameOver {
				break
			}

			key = sandbox.AppendKey(key[:0])
			idx = t.follow(ci, key)
			path = append(path, idx)
			depth++
		}

		if depth > t.maxDepth {
			t.maxDepth = depth
		}

		acc := leaf
		for p := len(path) - 1; p >= 0; p-- {
			n := &t.nodes[path[p]]
			if n.chance {
				acc += float64(n.reward)
			}
			n.Visits++
			n.Value += acc
		}
		t.sims++
	}
	return t, nil
}

// Estimates returns the mean value of each root direction. Directions that
// are blocked or were never expanded get -Inf.
func (t *Tree) Estimates() [game.NumDirections]float64 {
	var est [game.NumDirections]float64
	for d, cs := range t.RootStats() {
		if !cs.Expanded {
			est[d] = math.Inf(-1)
			continue
		}
		est[d] = cs.Mean
	}
	return est
}
