package selfplay

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/mcts2048/executor/arbiter"
	"github.com/brensch/mcts2048/executor/rollout"
	"github.com/brensch/mcts2048/game"
)

func flat() arbiter.Searcher {
	return &rollout.Flat{Policy: rollout.Policy{Strategy: rollout.RewardProportional}, Rollouts: 2, Parallelism: 1}
}

func TestPlayGame_RecordsEveryTurn(t *testing.T) {
	turns := 0
	rows, res, err := PlayGame(context.Background(), "g1", flat(), Options{
		Boards:    2,
		EndPolicy: game.EndAny,
		Seed:      5,
		Algorithm: "flat",
		OnTurn:    func(*game.Session, arbiter.TurnResult) { turns++ },
	})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, uint64(5), res.Seed)
	assert.Equal(t, res.Turns, len(rows))
	assert.Equal(t, turns, len(rows))
	require.Len(t, res.FinalBoards, 2)
	assert.Equal(t, res.MaxTile, (&game.Session{Boards: res.FinalBoards}).MaxTile())

	sum := 0
	for i, row := range rows {
		assert.Equal(t, int32(i), row.Turn)
		assert.Equal(t, "g1", row.GameID)
		assert.Len(t, row.Boards, 2*game.Cells)
		assert.Len(t, row.Estimates, game.NumDirections)
		assert.False(t, math.IsInf(row.Estimates[row.Move], 0), "chosen move must have been open")
		assert.Equal(t, int64(res.Score), row.FinalScore)
		sum += int(row.ScoreDelta)
		assert.Equal(t, int64(sum), row.Score)
	}
	assert.Equal(t, res.Score, sum)
}

func TestPlayGame_SameSeedSameGame(t *testing.T) {
	a, ra, err := PlayGame(context.Background(), "a", flat(), Options{Boards: 1, Seed: 11})
	require.NoError(t, err)
	b, rb, err := PlayGame(context.Background(), "b", flat(), Options{Boards: 1, Seed: 11})
	require.NoError(t, err)
	assert.Equal(t, ra.Score, rb.Score)
	assert.Equal(t, ra.FinalBoards, rb.FinalBoards)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Move, b[i].Move)
	}
}

func TestPlayGame_StopsEarly(t *testing.T) {
	rows, res, err := PlayGame(context.Background(), "short", flat(), Options{Boards: 1, Seed: 3, MaxTurns: 5})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Len(t, rows, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rows, res, err = PlayGame(ctx, "cancelled", flat(), Options{Boards: 1, Seed: 3})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, rows)
	assert.False(t, res.Completed)
}

func TestPlayGame_BadOptions(t *testing.T) {
	_, _, err := PlayGame(context.Background(), "none", flat(), Options{Boards: 0})
	assert.True(t, errors.Is(err, game.ErrNoBoards))
}

func TestRenderSession(t *testing.T) {
	s := &game.Session{Boards: []game.Board{{{2, 0, 0, 2048}}, {{0, 4}}}, Score: 12, Turn: 3}
	out := RenderSession(s)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "     2     .     .  2048   |     .     4     .     .", lines[0])
	assert.Contains(t, out, "turn=3 score=12 max=2048")
	assert.Contains(t, RenderSessionStyled(s), "2048")
}
