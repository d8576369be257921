// Package arbiter turns per-direction estimates into committed moves on a
// live session.
package arbiter

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/brensch/mcts2048/config"
	"github.com/brensch/mcts2048/executor/mcts"
	"github.com/brensch/mcts2048/executor/rollout"
	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/rules"
)

// Searcher estimates the value of each direction from s. Higher is
// better. s must not be modified.
type Searcher interface {
	Estimate(ctx context.Context, s *game.Session, rng *rand.Rand) ([game.NumDirections]float64, error)
}

// TurnResult reports one ApplyTurn call.
type TurnResult struct {
	Direction  game.Direction
	ScoreDelta int
	Merges     int
	GameOver   bool
	// Estimates are the searcher's values after masking; directions that
	// change nothing are -Inf.
	Estimates [game.NumDirections]float64
}

// Arbiter owns the rng used for the live game's spawns and for seeding
// searches. One arbiter drives one game.
type Arbiter struct {
	Searcher Searcher
	rng      *rand.Rand
}

// New creates an arbiter. A zero seed draws one from the OS.
func New(searcher Searcher, seed uint64) *Arbiter {
	return &Arbiter{Searcher: searcher, rng: NewRNG(seed)}
}

// ResolveSeed returns seed, or a fresh non-zero seed from the OS if seed is 0.
func ResolveSeed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return frand.Uint64n(math.MaxUint64) + 1
}

// NewRNG returns a PCG generator for seed, or for a random seed if seed is 0.
func NewRNG(seed uint64) *rand.Rand {
	seed = ResolveSeed(seed)
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewSession starts a game of n boards, two random tiles each.
func NewSession(n int, policy game.EndPolicy, seed uint64) (*game.Session, error) {
	return rules.NewSession(n, policy, NewRNG(seed))
}

// NewSearcher builds the searcher described by cfg.
func NewSearcher(cfg config.Search) (Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Algorithm {
	case config.AlgorithmFlat:
		strategy, _ := rollout.ParseStrategy(cfg.RolloutStrategy)
		return &rollout.Flat{
			Policy:      rollout.Policy{Strategy: strategy},
			Rollouts:    cfg.Rollouts,
			Parallelism: cfg.Parallelism,
		}, nil
	default:
		tc, mode, err := cfg.TreeConfig()
		if err != nil {
			return nil, err
		}
		return &mcts.Searcher{Config: tc, Mode: mode, Parallelism: cfg.Parallelism}, nil
	}
}

// ApplyTurn chooses a direction for s and commits it. Directions that
// change no board are never chosen. If none is left, or s is already over,
// the result has GameOver set and s is untouched. Equal estimates go to
// the lower direction index.
func (a *Arbiter) ApplyTurn(ctx context.Context, s *game.Session) (TurnResult, error) {
	var res TurnResult
	if len(s.Boards) == 0 {
		return res, game.ErrNoBoards
	}
	for i := range res.Estimates {
		res.Estimates[i] = math.Inf(-1)
	}

	changes := rules.Changes(s)
	open := 0
	for _, ok := range changes {
		if ok {
			open++
		}
	}
	if open == 0 || rules.IsOver(s) {
		res.GameOver = true
		return res, nil
	}

	est, err := a.Searcher.Estimate(ctx, s, a.rng)
	if err != nil {
		return res, fmt.Errorf("turn %d: %w", s.Turn, err)
	}

	best := -1
	for _, d := range game.Directions {
		if !changes[d] {
			continue
		}
		v := est[d]
		if math.IsNaN(v) {
			v = math.Inf(-1)
		}
		res.Estimates[d] = v
		if best < 0 || v > res.Estimates[best] {
			best = int(d)
		}
	}
	res.Direction = game.Direction(best)

	out, err := rules.Move(s, res.Direction, a.rng)
	if err != nil {
		return res, err
	}
	res.ScoreDelta = out.Score
	res.Merges = out.Merges
	res.GameOver = out.GameOver

	zerolog.Ctx(ctx).Debug().
		Int("turn", s.Turn).
		Str("move", res.Direction.String()).
		Int("gained", res.ScoreDelta).
		Int("score", s.Score).
		Floats64("estimates", res.Estimates[:]).
		Msg("turn")
	return res, nil
}
