package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/mcts2048/executor/mcts"
	"github.com/brensch/mcts2048/executor/rollout"
	"github.com/brensch/mcts2048/game"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, AlgorithmPUCT, c.Search.Algorithm)
	assert.Equal(t, 800.0, c.Search.ExplorationConstant)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	yaml := []byte(`
search:
  simulations: 250
  rollout_strategy: merge
  tree_mode: joint
game:
  boards: 3
  end_policy: all
selfplay:
  seed: 99
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o644))
	t.Setenv("MCTS2048_SEARCH_SIMULATIONS", "40")
	t.Setenv("MCTS2048_LOG_LEVEL", "debug")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Search.Simulations, "env beats file")
	assert.Equal(t, "merge", c.Search.RolloutStrategy)
	assert.Equal(t, 3, c.Game.Boards)
	assert.Equal(t, "all", c.Game.EndPolicy)
	assert.Equal(t, uint64(99), c.SelfPlay.Seed)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 800.0, c.Search.ExplorationConstant, "untouched keys keep defaults")

	tc, mode, err := c.Search.TreeConfig()
	require.NoError(t, err)
	assert.Equal(t, mcts.Joint, mode)
	assert.Equal(t, rollout.MergeSeeking, tc.Rollout.Strategy)
	assert.Equal(t, 40, tc.Simulations)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero sims":        func(c *Config) { c.Search.Simulations = 0 },
		"negative c":       func(c *Config) { c.Search.ExplorationConstant = -1 },
		"zero c":           func(c *Config) { c.Search.ExplorationConstant = 0 },
		"bad algorithm":    func(c *Config) { c.Search.Algorithm = "minimax" },
		"bad strategy":     func(c *Config) { c.Search.RolloutStrategy = "greedy" },
		"bad mode":         func(c *Config) { c.Search.TreeMode = "forest" },
		"flat no rollouts": func(c *Config) { c.Search.Algorithm = AlgorithmFlat; c.Search.Rollouts = 0 },
		"no boards":        func(c *Config) { c.Game.Boards = 0 },
		"bad end policy":   func(c *Config) { c.Game.EndPolicy = "most" },
		"no workers":       func(c *Config) { c.SelfPlay.Workers = 0 },
	} {
		c := Default()
		mutate(&c)
		err := c.Validate()
		assert.True(t, errors.Is(err, game.ErrInvalidArgument), "%s: %v", name, err)
	}
	assert.NoError(t, Default().Validate())
}
