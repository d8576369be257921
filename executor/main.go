package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/brensch/mcts2048/config"
	"github.com/brensch/mcts2048/executor/arbiter"
	"github.com/brensch/mcts2048/executor/selfplay"
	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/logging"
	"github.com/brensch/mcts2048/stats"
	"github.com/brensch/mcts2048/store"
)

var totalMoves atomic.Int64
var totalGames atomic.Int64

type GameUpdate struct {
	WorkerID int
	Result   selfplay.GameResult
}

type gameWriteRequest struct {
	rows []store.TurnRow
	game store.GameRow
}

type runSummary struct {
	Config   config.Config `yaml:"config"`
	Started  time.Time     `yaml:"started"`
	Duration string        `yaml:"duration"`
	Results  stats.Summary `yaml:"results"`
	Archive  []string      `yaml:"archive"`
}

func main() {
	configPath := flag.String("config", "", "YAML config file (MCTS2048_* env vars override it)")
	outDir := flag.String("out-dir", "", "Output directory for parquet game archives")
	workers := flag.Int("workers", 0, "Number of games played concurrently")
	games := flag.Int("games", 0, "Number of games to play")
	seed := flag.Uint64("seed", 0, "Base seed; 0 picks a random one")
	boards := flag.Int("boards", 0, "Boards per game")
	endPolicy := flag.String("end", "", "When a batch ends: any | all")
	algorithm := flag.String("algorithm", "", "Search algorithm: puct | flat")
	sims := flag.Int("sims", 0, "Simulations per tree search")
	explore := flag.Float64("c", 0, "UCB exploration constant")
	strategy := flag.String("rollout", "", "Rollout strategy: uniform | reward | merge")
	rollouts := flag.Int("rollouts", 0, "Rollouts per direction (flat search)")
	treeMode := flag.String("tree-mode", "", "Tree per board or one joint tree: per-board | joint")
	parallelism := flag.Int("parallelism", -1, "Goroutines per search; 0 uses GOMAXPROCS")
	maxTurns := flag.Int("max-turns", 0, "Stop each game after this many turns (0 = play to the end)")
	summaryOut := flag.String("summary-out", "", "Write a YAML run summary here")
	logLevel := flag.String("log-level", "", "trace | debug | info | warn | error")
	logFormat := flag.String("log-format", "", "console | json | pretty")
	useTUI := flag.Bool("tui", false, "Show a live terminal view instead of log progress")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// Flags only override what was explicitly given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out-dir":
			cfg.SelfPlay.OutDir = *outDir
		case "workers":
			cfg.SelfPlay.Workers = *workers
		case "games":
			cfg.SelfPlay.Games = *games
		case "seed":
			cfg.SelfPlay.Seed = *seed
		case "summary-out":
			cfg.SelfPlay.SummaryOut = *summaryOut
		case "boards":
			cfg.Game.Boards = *boards
		case "end":
			cfg.Game.EndPolicy = *endPolicy
		case "algorithm":
			cfg.Search.Algorithm = *algorithm
		case "sims":
			cfg.Search.Simulations = *sims
		case "c":
			cfg.Search.ExplorationConstant = *explore
		case "rollout":
			cfg.Search.RolloutStrategy = *strategy
		case "rollouts":
			cfg.Search.Rollouts = *rollouts
		case "tree-mode":
			cfg.Search.TreeMode = *treeMode
		case "parallelism":
			cfg.Search.Parallelism = *parallelism
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logOut := os.Stderr
	if *useTUI {
		// keep the terminal for the TUI
		f, err := os.OpenFile("selfplay.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logger = logging.MustStderr("info", logging.FormatConsole)
		logger.Warn().Err(err).Msg("bad log settings")
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	ctx = logger.WithContext(ctx)

	if err := run(ctx, cancel, cfg, *maxTurns, *useTUI); err != nil {
		logger.Error().Err(err).Msg("self-play failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, cfg config.Config, maxTurns int, useTUI bool) error {
	logger := zerolog.Ctx(ctx)
	started := time.Now()

	policy, err := game.ParseEndPolicy(cfg.Game.EndPolicy)
	if err != nil {
		return err
	}
	baseSeed := arbiter.ResolveSeed(cfg.SelfPlay.Seed)
	seeds := arbiter.NewRNG(baseSeed)

	logger.Info().
		Str("algorithm", cfg.Search.Algorithm).
		Int("sims", cfg.Search.Simulations).
		Float64("c", cfg.Search.ExplorationConstant).
		Str("rollout", cfg.Search.RolloutStrategy).
		Int("boards", cfg.Game.Boards).
		Str("end", policy.String()).
		Int("games", cfg.SelfPlay.Games).
		Int("workers", cfg.SelfPlay.Workers).
		Uint64("seed", baseSeed).
		Msg("starting self-play")

	type job struct {
		index int
		seed  uint64
	}
	jobs := make(chan job)
	go func() {
		defer close(jobs)
		for i := 0; i < cfg.SelfPlay.Games; i++ {
			// seeds are drawn in game order so a base seed reproduces the run
			j := job{index: i, seed: seeds.Uint64() | 1}
			select {
			case jobs <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	updates := make(chan GameUpdate, cfg.SelfPlay.Workers)
	boardsView := make(chan *game.Session, 1)
	writeReqs := make(chan gameWriteRequest, cfg.SelfPlay.Workers*4)

	var archive writerResult
	writerDone := make(chan struct{})
	go func() {
		archive = parquetWriterLoop(ctx, cfg.SelfPlay.OutDir, cfg.SelfPlay.FlushGames, writeReqs)
		close(writerDone)
	}()

	var workerWG sync.WaitGroup
	var workerErr error
	var errOnce sync.Once
	for w := 0; w < cfg.SelfPlay.Workers; w++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			wlog := logger.With().Int("worker", workerID).Logger()
			wctx := wlog.WithContext(ctx)

			// one searcher per worker; searchers hold no shared state
			searcher, err := arbiter.NewSearcher(cfg.Search)
			if err != nil {
				errOnce.Do(func() { workerErr = err })
				cancel()
				return
			}

			for j := range jobs {
				gameID := fmt.Sprintf("selfplay_%d_%d", started.UnixNano(), j.index)
				opts := selfplay.Options{
					Boards:    cfg.Game.Boards,
					EndPolicy: policy,
					Seed:      j.seed,
					Algorithm: cfg.Search.Algorithm,
					MaxTurns:  maxTurns,
					OnTurn: func(s *game.Session, _ arbiter.TurnResult) {
						totalMoves.Add(1)
						if workerID == 0 && useTUI {
							select {
							case boardsView <- s.Clone():
							default:
							}
						}
					},
				}
				rows, result, err := selfplay.PlayGame(wctx, gameID, searcher, opts)
				if err != nil {
					if ctx.Err() == nil {
						wlog.Error().Err(err).Str("game", gameID).Msg("game aborted")
					}
					continue
				}
				totalGames.Add(1)
				writeReqs <- gameWriteRequest{rows: rows, game: gameRow(cfg, result)}

				select {
				case updates <- GameUpdate{WorkerID: workerID, Result: result}:
				default:
				}
			}
		}(w)
	}

	allDone := make(chan struct{})
	go func() {
		workerWG.Wait()
		close(writeReqs)
		<-writerDone
		close(allDone)
	}()

	if useTUI {
		p := tea.NewProgram(initialModel(updates, boardsView, allDone, cfg.SelfPlay.Games))
		final, err := p.Run()
		if err != nil {
			logger.Error().Err(err).Msg("tui")
		}
		if m, ok := final.(model); ok && m.quit {
			cancel()
		}
		<-allDone
	} else {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
	loop:
		for {
			select {
			case <-allDone:
				break loop
			case u := <-updates:
				logger.Info().
					Int("worker", u.WorkerID).
					Str("game", u.Result.GameID).
					Int("score", u.Result.Score).
					Int("max_tile", u.Result.MaxTile).
					Int("turns", u.Result.Turns).
					Msg("game finished")
			case <-ticker.C:
				d := time.Since(started).Seconds()
				logger.Info().
					Int64("games", totalGames.Load()).
					Int64("moves", totalMoves.Load()).
					Float64("moves_per_sec", float64(totalMoves.Load())/d).
					Msg("progress")
			}
		}
	}

	if workerErr != nil {
		return workerErr
	}

	summary := archive.tally.Summary()
	logger.Info().
		Int("games", summary.Games).
		Float64("mean_score", summary.MeanScore).
		Float64("ci95_low", summary.CI95Low).
		Float64("ci95_high", summary.CI95High).
		Int("best_tile", summary.BestMaxTile).
		Dur("took", time.Since(started)).
		Msg("self-play done")
	if !useTUI {
		fmt.Println("final score distribution:")
		if err := archive.tally.Histogram(os.Stdout, 10, 40); err != nil {
			logger.Warn().Err(err).Msg("histogram")
		}
	}

	if cfg.SelfPlay.SummaryOut != "" {
		out, err := yaml.Marshal(runSummary{
			Config:   cfg,
			Started:  started,
			Duration: time.Since(started).Round(time.Millisecond).String(),
			Results:  summary,
			Archive:  archive.files,
		})
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SelfPlay.SummaryOut), 0o755); err != nil {
			return fmt.Errorf("create summary dir: %w", err)
		}
		if err := os.WriteFile(cfg.SelfPlay.SummaryOut, out, 0o644); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		logger.Info().Str("path", cfg.SelfPlay.SummaryOut).Msg("summary written")
	}
	return nil
}

func gameRow(cfg config.Config, r selfplay.GameResult) store.GameRow {
	final := make([]int32, 0, len(r.FinalBoards)*game.Cells)
	for i := range r.FinalBoards {
		for _, v := range r.FinalBoards[i].Flat() {
			final = append(final, int32(v))
		}
	}
	return store.GameRow{
		GameID:      r.GameID,
		Seed:        r.Seed,
		NumBoards:   int32(len(r.FinalBoards)),
		EndPolicy:   cfg.Game.EndPolicy,
		Algorithm:   cfg.Search.Algorithm,
		Simulations: int32(cfg.Search.Simulations),
		Exploration: cfg.Search.ExplorationConstant,
		Turns:       int32(r.Turns),
		Score:       int64(r.Score),
		MaxTile:     int32(r.MaxTile),
		FinalBoards: final,
		DurationMs:  r.Duration.Milliseconds(),
	}
}
