// Package rollout plays sessions to the end with cheap stochastic move
// choices. A rollout's accumulated score is the leaf value for the tree
// search and, repeated per direction, a weak player of its own (Flat).
package rollout

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/rules"
)

// Strategy picks the next move during a rollout.
type Strategy int8

const (
	// Uniform draws one of the four directions, valid or not. An invalid
	// draw is a wasted turn.
	Uniform Strategy = iota
	// RewardProportional weighs each valid direction by score gained + 1.
	RewardProportional
	// MergeSeeking weighs each valid direction by exp(merges).
	MergeSeeking
)

var strategyNames = map[Strategy]string{
	Uniform:            "uniform",
	RewardProportional: "reward",
	MergeSeeking:       "merge",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy accepts "uniform", "reward" or "merge" (and a few aliases).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform", "random", "uniform-random":
		return Uniform, nil
	case "reward", "score", "reward-proportional":
		return RewardProportional, nil
	case "merge", "merges", "merge-seeking":
		return MergeSeeking, nil
	}
	return Uniform, fmt.Errorf("%w: unknown rollout strategy %q", game.ErrInvalidArgument, s)
}

// Policy is a rollout configuration. The zero value rolls out uniformly.
type Policy struct {
	Strategy Strategy
}

// Run plays a copy of s to the end and returns the score accumulated along
// the way. If first is non-nil that move is forced before the strategy
// takes over. s is not modified.
func (p Policy) Run(s *game.Session, first *game.Direction, rng *rand.Rand) (int, error) {
	return p.Play(s.Clone(), first, rng)
}

// Play is Run without the copy: it plays s itself to the end.
func (p Policy) Play(s *game.Session, first *game.Direction, rng *rand.Rand) (int, error) {
	if _, ok := strategyNames[p.Strategy]; !ok {
		return 0, fmt.Errorf("rollout: %w: strategy %d", game.ErrInvalidArgument, int(p.Strategy))
	}
	if first != nil {
		if err := first.Check(); err != nil {
			return 0, fmt.Errorf("rollout first move: %w", err)
		}
	}
	if rules.IsOver(s) {
		return 0, nil
	}

	var out rules.BatchOutcome
	total := 0
	if first != nil {
		if err := rules.MoveInto(s, *first, rng, &out); err != nil {
			return 0, err
		}
		total += out.Score
		if out.GameOver {
			return total, nil
		}
	}

	scratch := &game.Session{Boards: make([]game.Board, 0, len(s.Boards))}
	var probe rules.BatchOutcome
	for {
		d, ok := p.next(s, scratch, &probe, rng)
		if !ok {
			// Nothing changes any board: the session is stuck.
			return total, nil
		}
		if err := rules.MoveInto(s, d, rng, &out); err != nil {
			return total, err
		}
		total += out.Score
		if out.GameOver {
			return total, nil
		}
	}
}

func (p Policy) next(s, scratch *game.Session, probe *rules.BatchOutcome, rng *rand.Rand) (game.Direction, bool) {
	if p.Strategy == Uniform {
		return game.Directions[rng.IntN(game.NumDirections)], true
	}
	w, sum := weigh(s, p.Strategy, scratch, probe)
	if sum == 0 {
		return 0, false
	}
	return sample(w, sum, rng), true
}

// weigh fills the strategy weight of every direction that changes s.
func weigh(s *game.Session, strategy Strategy, scratch *game.Session, probe *rules.BatchOutcome) (w [game.NumDirections]float64, sum float64) {
	for _, d := range game.Directions {
		scratch.CopyFrom(s)
		if err := rules.MoveInto(scratch, d, nil, probe); err != nil || !probe.Changed {
			continue
		}
		switch strategy {
		case MergeSeeking:
			w[d] = math.Exp(float64(probe.Merges))
		case RewardProportional:
			w[d] = float64(probe.Score + 1)
		default:
			w[d] = 1
		}
		sum += w[d]
	}
	return w, sum
}

func sample(w [game.NumDirections]float64, sum float64, rng *rand.Rand) game.Direction {
	r := rng.Float64() * sum
	last := game.Up
	for _, d := range game.Directions {
		if w[d] == 0 {
			continue
		}
		last = d
		r -= w[d]
		if r < 0 {
			return d
		}
	}
	// rounding left r at or just above zero
	return last
}

// Weights returns the normalised move distribution the strategy would use
// from s. Directions that change nothing get zero. Uniform returns 0.25 for
// every direction since it ignores validity.
func Weights(s *game.Session, strategy Strategy) [game.NumDirections]float64 {
	if strategy == Uniform {
		return [game.NumDirections]float64{0.25, 0.25, 0.25, 0.25}
	}
	scratch := &game.Session{}
	var probe rules.BatchOutcome
	w, sum := weigh(s, strategy, scratch, &probe)
	if sum == 0 {
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}
