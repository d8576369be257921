package mcts

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/rules"
)

// Mode selects how a batch of boards is searched.
type Mode int8

const (
	// PerBoard searches one tree per board and sums the estimates.
	PerBoard Mode = iota
	// Joint searches a single tree over the whole batch.
	Joint
)

func (m Mode) String() string {
	switch m {
	case PerBoard:
		return "per-board"
	case Joint:
		return "joint"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "per-board" or "joint".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-board", "perboard", "board":
		return PerBoard, nil
	case "joint", "batch":
		return Joint, nil
	}
	return PerBoard, fmt.Errorf("%w: unknown tree mode %q", game.ErrInvalidArgument, s)
}

// Searcher estimates every direction of a live session with tree search.
type Searcher struct {
	Config      Config
	Mode        Mode
	Parallelism int
}

// Estimate runs the search and returns one value per direction.
// Directions that cannot be judged get -Inf.
func (s *Searcher) Estimate(ctx context.Context, sess *game.Session, rng *rand.Rand) ([game.NumDirections]float64, error) {
	switch s.Mode {
	case PerBoard:
		return s.perBoard(ctx, sess, rng)
	case Joint:
		t, err := Search(ctx, sess, s.Config, rng)
		if err != nil {
			return [game.NumDirections]float64{}, err
		}
		logTree(ctx, -1, t)
		return t.Estimates(), nil
	default:
		return [game.NumDirections]float64{}, fmt.Errorf("%w: tree mode %d", game.ErrInvalidArgument, int(s.Mode))
	}
}

// perBoard searches each board on its own goroutine with its own rng and
// sums per-direction means. A direction with no child on some board (it
// does nothing there, or was never reached) counts that board's root mean,
// so a move that merely idles one board is not punished for it.
func (s *Searcher) perBoard(ctx context.Context, sess *game.Session, rng *rand.Rand) ([game.NumDirections]float64, error) {
	var est [game.NumDirections]float64
	if err := s.Config.Validate(); err != nil {
		return est, err
	}
	parts := sess.Split()
	if len(parts) == 0 {
		return est, game.ErrNoBoards
	}

	seeds := make([][2]uint64, len(parts))
	for i := range seeds {
		seeds[i] = [2]uint64{rng.Uint64(), rng.Uint64()}
	}

	par := s.Parallelism
	if par < 1 {
		par = runtime.GOMAXPROCS(0)
	}
	trees := make([]*Tree, len(parts))
	var g errgroup.Group
	g.SetLimit(par)
	for i := range parts {
		g.Go(func() error {
			r := rand.New(rand.NewPCG(seeds[i][0], seeds[i][1]))
			t, err := Search(ctx, parts[i], s.Config, r)
			if err != nil {
				return fmt.Errorf("board %d: %w", i, err)
			}
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return est, err
	}

	changes := rules.Changes(sess)
	for i, t := range trees {
		logTree(ctx, i, t)
		stats := t.RootStats()
		for _, d := range game.Directions {
			if stats[d].Expanded {
				est[d] += stats[d].Mean
			} else {
				est[d] += t.RootMean()
			}
		}
	}
	for _, d := range game.Directions {
		if !changes[d] {
			est[d] = math.Inf(-1)
		}
	}
	return est, nil
}

func logTree(ctx context.Context, board int, t *Tree) {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	stats := t.RootStats()
	ev := logger.Debug().
		Int("board", board).
		Int("nodes", t.Size()).
		Int("depth", t.MaxDepth()).
		Float64("root_mean", t.RootMean())
	for _, d := range game.Directions {
		ev = ev.Int(d.String()+"_n", stats[d].Visits).Float64(d.String()+"_q", stats[d].Mean)
	}
	ev.Msg("search-tree")
}
