package rollout

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/rules"
	"github.com/brensch/mcts2048/stats"
)

// Flat estimates each direction by forcing it and then running Rollouts
// independent rollouts. It needs no tree and makes a useful baseline.
type Flat struct {
	Policy      Policy
	Rollouts    int
	Parallelism int
}

type flatUnit struct {
	dir       game.Direction
	seed, seq uint64
}

// Estimate returns the mean rollout score per direction. Directions that
// change no board get -Inf.
func (f *Flat) Estimate(ctx context.Context, s *game.Session, rng *rand.Rand) ([game.NumDirections]float64, error) {
	var est [game.NumDirections]float64
	if f.Rollouts < 1 {
		return est, fmt.Errorf("flat search: %w: %d rollouts", game.ErrInvalidArgument, f.Rollouts)
	}
	logger := zerolog.Ctx(ctx)

	changes := rules.Changes(s)
	units := make([]flatUnit, 0, game.NumDirections*f.Rollouts)
	for _, d := range game.Directions {
		est[d] = math.Inf(-1)
		if !changes[d] {
			continue
		}
		for i := 0; i < f.Rollouts; i++ {
			// Seeds are drawn up front so the result does not depend on
			// goroutine scheduling.
			units = append(units, flatUnit{dir: d, seed: rng.Uint64(), seq: rng.Uint64()})
		}
	}
	if len(units) == 0 {
		return est, nil
	}

	par := f.Parallelism
	if par < 1 {
		par = runtime.GOMAXPROCS(0)
	}
	scores := make([]int, len(units))
	// rollouts are not cancellable; ctx only carries the logger
	var g errgroup.Group
	g.SetLimit(par)
	for i := range units {
		u := units[i]
		g.Go(func() error {
			r := rand.New(rand.NewPCG(u.seed, u.seq))
			d := u.dir
			score, err := f.Policy.Run(s, &d, r)
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return est, err
	}

	var per [game.NumDirections]stats.Statistic
	for i, u := range units {
		per[u.dir].Push(float64(scores[i]))
	}
	for _, d := range game.Directions {
		if per[d].Iterations() == 0 {
			continue
		}
		est[d] = per[d].Mean()
		logger.Debug().
			Str("dir", d.String()).
			Float64("mean", per[d].Mean()).
			Float64("stderr", per[d].StandardError()).
			Int("n", per[d].Iterations()).
			Msg("flat-estimate")
	}
	return est, nil
}
