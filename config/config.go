// Package config loads run configuration from defaults, an optional YAML
// file and MCTS2048_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/brensch/mcts2048/executor/mcts"
	"github.com/brensch/mcts2048/executor/rollout"
	"github.com/brensch/mcts2048/game"
)

const EnvPrefix = "MCTS2048"

const (
	AlgorithmPUCT = "puct"
	AlgorithmFlat = "flat"
)

// Search configures how a move is chosen.
type Search struct {
	Algorithm           string  `mapstructure:"algorithm" yaml:"algorithm"`
	Simulations         int     `mapstructure:"simulations" yaml:"simulations"`
	ExplorationConstant float64 `mapstructure:"exploration_constant" yaml:"exploration_constant"`
	RolloutStrategy     string  `mapstructure:"rollout_strategy" yaml:"rollout_strategy"`
	// Rollouts is the number of rollouts per direction for the flat searcher.
	Rollouts    int    `mapstructure:"rollouts" yaml:"rollouts"`
	TreeMode    string `mapstructure:"tree_mode" yaml:"tree_mode"`
	Parallelism int    `mapstructure:"parallelism" yaml:"parallelism"`
}

type Game struct {
	Boards    int    `mapstructure:"boards" yaml:"boards"`
	EndPolicy string `mapstructure:"end_policy" yaml:"end_policy"`
}

type SelfPlay struct {
	Games   int `mapstructure:"games" yaml:"games"`
	Workers int `mapstructure:"workers" yaml:"workers"`
	// Seed 0 means a fresh random seed per run.
	Seed       uint64 `mapstructure:"seed" yaml:"seed"`
	OutDir     string `mapstructure:"out_dir" yaml:"out_dir"`
	FlushGames int    `mapstructure:"flush_games" yaml:"flush_games"`
	SummaryOut string `mapstructure:"summary_out" yaml:"summary_out"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Config struct {
	Search   Search   `mapstructure:"search" yaml:"search"`
	Game     Game     `mapstructure:"game" yaml:"game"`
	SelfPlay SelfPlay `mapstructure:"selfplay" yaml:"selfplay"`
	Log      Log      `mapstructure:"log" yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Search: Search{
			Algorithm:           AlgorithmPUCT,
			Simulations:         1000,
			ExplorationConstant: 800,
			RolloutStrategy:     rollout.Uniform.String(),
			Rollouts:            100,
			TreeMode:            mcts.PerBoard.String(),
			Parallelism:         0,
		},
		Game: Game{
			Boards:    1,
			EndPolicy: game.EndAny.String(),
		},
		SelfPlay: SelfPlay{
			Games:      1,
			Workers:    1,
			OutDir:     "data/generated",
			FlushGames: 16,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("search.algorithm", c.Search.Algorithm)
	v.SetDefault("search.simulations", c.Search.Simulations)
	v.SetDefault("search.exploration_constant", c.Search.ExplorationConstant)
	v.SetDefault("search.rollout_strategy", c.Search.RolloutStrategy)
	v.SetDefault("search.rollouts", c.Search.Rollouts)
	v.SetDefault("search.tree_mode", c.Search.TreeMode)
	v.SetDefault("search.parallelism", c.Search.Parallelism)

	v.SetDefault("game.boards", c.Game.Boards)
	v.SetDefault("game.end_policy", c.Game.EndPolicy)

	v.SetDefault("selfplay.games", c.SelfPlay.Games)
	v.SetDefault("selfplay.workers", c.SelfPlay.Workers)
	v.SetDefault("selfplay.seed", c.SelfPlay.Seed)
	v.SetDefault("selfplay.out_dir", c.SelfPlay.OutDir)
	v.SetDefault("selfplay.flush_games", c.SelfPlay.FlushGames)
	v.SetDefault("selfplay.summary_out", c.SelfPlay.SummaryOut)

	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
}

// Load reads path (YAML, optional: "" skips the file) over the defaults and
// then applies environment overrides such as MCTS2048_SEARCH_SIMULATIONS.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

// Validate checks every section.
func (c Config) Validate() error {
	var errs []error
	if err := c.Search.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Game.Boards < 1 {
		errs = append(errs, fmt.Errorf("game.boards: %w", game.ErrNoBoards))
	}
	if _, err := game.ParseEndPolicy(c.Game.EndPolicy); err != nil {
		errs = append(errs, fmt.Errorf("game.end_policy: %w", err))
	}
	if c.SelfPlay.Games < 1 || c.SelfPlay.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: selfplay needs games and workers >= 1", game.ErrInvalidArgument))
	}
	return errors.Join(errs...)
}

// Validate checks the search section.
func (s Search) Validate() error {
	switch s.Algorithm {
	case AlgorithmPUCT:
		if !(s.ExplorationConstant > 0) || math.IsInf(s.ExplorationConstant, 0) {
			return fmt.Errorf("%w: search.exploration_constant %v", game.ErrInvalidArgument, s.ExplorationConstant)
		}
		if _, err := mcts.ParseMode(s.TreeMode); err != nil {
			return fmt.Errorf("search.tree_mode: %w", err)
		}
	case AlgorithmFlat:
		if s.Rollouts < 1 {
			return fmt.Errorf("%w: search.rollouts must be positive, got %d", game.ErrInvalidArgument, s.Rollouts)
		}
	default:
		return fmt.Errorf("%w: unknown search.algorithm %q", game.ErrInvalidArgument, s.Algorithm)
	}
	if s.Simulations < 1 {
		return fmt.Errorf("%w: search.simulations must be positive, got %d", game.ErrInvalidArgument, s.Simulations)
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("%w: search.parallelism %d", game.ErrInvalidArgument, s.Parallelism)
	}
	if _, err := rollout.ParseStrategy(s.RolloutStrategy); err != nil {
		return fmt.Errorf("search.rollout_strategy: %w", err)
	}
	return nil
}

// TreeConfig converts the search section for the tree searcher.
func (s Search) TreeConfig() (mcts.Config, mcts.Mode, error) {
	if err := s.Validate(); err != nil {
		return mcts.Config{}, 0, err
	}
	strategy, _ := rollout.ParseStrategy(s.RolloutStrategy)
	mode, _ := mcts.ParseMode(s.TreeMode)
	return mcts.Config{
		Simulations: s.Simulations,
		C:           s.ExplorationConstant,
		Rollout:     rollout.Policy{Strategy: strategy},
	}, mode, nil
}
