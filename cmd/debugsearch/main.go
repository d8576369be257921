package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/brensch/mcts2048/config"
	"github.com/brensch/mcts2048/executor/arbiter"
	"github.com/brensch/mcts2048/executor/mcts"
	"github.com/brensch/mcts2048/executor/rollout"
	"github.com/brensch/mcts2048/executor/selfplay"
	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/logging"
	"github.com/brensch/mcts2048/rules"
	"github.com/brensch/mcts2048/store"
)

func main() {
	defaults := config.Default().Search
	boardsFlag := flag.String("boards", "2,2,0,0/0,0,0,0/0,0,0,0/0,0,0,0", "Boards to search, ';' between boards, '/' between rows")
	algorithm := flag.String("algorithm", defaults.Algorithm, "Search algorithm: puct | flat")
	sims := flag.Int("sims", defaults.Simulations, "Simulations for the tree search")
	explore := flag.Float64("c", defaults.ExplorationConstant, "UCB exploration constant")
	strategy := flag.String("rollout", defaults.RolloutStrategy, "Rollout strategy: uniform | reward | merge")
	rollouts := flag.Int("rollouts", defaults.Rollouts, "Rollouts per direction (flat search)")
	seed := flag.Uint64("seed", 0, "Seed; 0 picks a random one")
	outDir := flag.String("out-dir", "", "If set, write the root statistics as a parquet file here")
	logLevel := flag.String("log-level", "info", "trace | debug | info | warn | error")
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logLevel, logging.FormatConsole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: %v\n", err)
		os.Exit(2)
	}

	sess, err := parseSession(*boardsFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad boards")
	}

	cfg := defaults
	cfg.Algorithm = *algorithm
	cfg.Simulations = *sims
	cfg.ExplorationConstant = *explore
	cfg.RolloutStrategy = *strategy
	cfg.Rollouts = *rollouts
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("bad search settings")
	}

	s := arbiter.ResolveSeed(*seed)
	rng := arbiter.NewRNG(s)
	ctx := logger.WithContext(context.Background())

	fmt.Print(selfplay.RenderSession(sess))
	fmt.Println()

	started := time.Now()
	rows, err := search(ctx, sess, cfg, rng)
	if err != nil {
		logger.Fatal().Err(err).Msg("search failed")
	}
	logger.Info().Uint64("seed", s).Dur("took", time.Since(started)).Msg("search done")

	for _, r := range rows {
		marker := " "
		if r.Chosen {
			marker = "*"
		}
		fmt.Printf("%s %-5s %12.1f\n", marker, game.Direction(r.Move), r.Estimate)
	}

	if *outDir == "" {
		return
	}
	runID := fmt.Sprintf("search_%d", started.UnixNano())
	for i := range rows {
		rows[i].RunID = runID
	}
	path, err := store.WriteSearchDump(*outDir, rows)
	if err != nil {
		logger.Fatal().Err(err).Msg("write search dump")
	}
	logger.Info().Str("path", path).Msg("search dump written")
}

// search runs one search over sess and returns a row per direction.
// The tree search uses a single joint tree so its summary can be printed.
func search(ctx context.Context, sess *game.Session, cfg config.Search, rng *rand.Rand) ([]store.SearchDumpRow, error) {
	var (
		est   [game.NumDirections]float64
		stats [game.NumDirections]mcts.ChildStats
	)
	switch cfg.Algorithm {
	case config.AlgorithmFlat:
		strategy, err := rollout.ParseStrategy(cfg.RolloutStrategy)
		if err != nil {
			return nil, err
		}
		f := &rollout.Flat{Policy: rollout.Policy{Strategy: strategy}, Rollouts: cfg.Rollouts, Parallelism: cfg.Parallelism}
		est, err = f.Estimate(ctx, sess, rng)
		if err != nil {
			return nil, err
		}
	default:
		tc, _, err := cfg.TreeConfig()
		if err != nil {
			return nil, err
		}
		tree, err := mcts.Search(ctx, sess, tc, rng)
		if err != nil {
			return nil, err
		}
		fmt.Print(tree.Summary())
		fmt.Println()
		est = tree.Estimates()
		stats = tree.RootStats()
	}

	changes := rules.Changes(sess)
	chosen := -1
	for _, d := range game.Directions {
		if changes[d] && (chosen < 0 || est[d] > est[chosen]) {
			chosen = int(d)
		}
	}

	boards := make([]int32, 0, len(sess.Boards)*game.Cells)
	for i := range sess.Boards {
		for _, v := range sess.Boards[i].Flat() {
			boards = append(boards, int32(v))
		}
	}
	rows := make([]store.SearchDumpRow, 0, game.NumDirections)
	for _, d := range game.Directions {
		e := est[d]
		if !changes[d] {
			e = math.Inf(-1)
		}
		rows = append(rows, store.SearchDumpRow{
			Boards:      boards,
			Algorithm:   cfg.Algorithm,
			Simulations: int32(cfg.Simulations),
			Exploration: cfg.ExplorationConstant,
			Rollout:     cfg.RolloutStrategy,
			Move:        int32(d),
			Estimate:    e,
			Visits:      int32(stats[d].Visits),
			Reward:      int32(stats[d].Reward),
			Outcomes:    int32(stats[d].Outcomes),
			Blocked:     !changes[d],
			Chosen:      int(d) == chosen,
		})
	}
	zerolog.Ctx(ctx).Debug().Int("chosen", chosen).Msg("search-rows")
	return rows, nil
}

func parseSession(s string) (*game.Session, error) {
	sess := &game.Session{}
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		b, err := game.ParseBoard(part)
		if err != nil {
			return nil, fmt.Errorf("board %d: %w", len(sess.Boards), err)
		}
		sess.Boards = append(sess.Boards, b)
	}
	if len(sess.Boards) == 0 {
		return nil, game.ErrNoBoards
	}
	return sess, nil
}
