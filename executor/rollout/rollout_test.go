package rollout

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/rules"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// topPair has a single 2-2 pair in the top-left corner: Up is the only
// direction that changes nothing.
func topPair(n int) *game.Session {
	s := &game.Session{}
	for i := 0; i < n; i++ {
		s.Boards = append(s.Boards, game.Board{{2, 2, 0, 0}})
	}
	return s
}

var distinct = game.Board{
	{2, 4, 8, 16},
	{32, 64, 128, 256},
	{512, 1024, 2048, 4096},
	{8192, 16384, 32768, 65536},
}

func TestParseStrategy(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"uniform", Uniform, true},
		{"Reward", RewardProportional, true},
		{"merge-seeking", MergeSeeking, true},
		{"greedy", Uniform, false},
	} {
		got, err := ParseStrategy(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
			assert.Equal(t, got, must(ParseStrategy(got.String())))
		} else {
			assert.True(t, errors.Is(err, game.ErrInvalidArgument), tc.in)
		}
	}
}

func must(s Strategy, err error) Strategy {
	if err != nil {
		panic(err)
	}
	return s
}

func TestRun_LeavesInputAlone(t *testing.T) {
	for _, strategy := range []Strategy{Uniform, RewardProportional, MergeSeeking} {
		s := topPair(2)
		before := s.Clone()
		score, err := Policy{Strategy: strategy}.Run(s, nil, newRNG(1))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0)
		assert.Equal(t, before, s, strategy.String())
	}
}

func TestRun_TerminalSessionScoresZero(t *testing.T) {
	s := &game.Session{Boards: []game.Board{distinct}}
	d := game.Left
	score, err := Policy{}.Run(s, &d, newRNG(2))
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestRun_ForcedFirstMoveCounts(t *testing.T) {
	// Left merges the pair for 4. Everything after only adds.
	d := game.Left
	for seed := uint64(0); seed < 20; seed++ {
		score, err := Policy{Strategy: RewardProportional}.Run(topPair(1), &d, newRNG(seed))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 4)
	}

	bad := game.Direction(9)
	_, err := Policy{}.Run(topPair(1), &bad, newRNG(0))
	assert.True(t, errors.Is(err, game.ErrInvalidDirection))
}

func TestRun_Deterministic(t *testing.T) {
	for _, strategy := range []Strategy{Uniform, RewardProportional, MergeSeeking} {
		a, err := Policy{Strategy: strategy}.Run(topPair(3), nil, newRNG(42))
		require.NoError(t, err)
		b, err := Policy{Strategy: strategy}.Run(topPair(3), nil, newRNG(42))
		require.NoError(t, err)
		assert.Equal(t, a, b, strategy.String())
	}
}

func TestPlay_EndsTheSession(t *testing.T) {
	for _, policy := range []game.EndPolicy{game.EndAny, game.EndAll} {
		s := topPair(2)
		s.EndPolicy = policy
		_, err := Policy{Strategy: MergeSeeking}.Play(s, nil, newRNG(7))
		require.NoError(t, err)
		assert.True(t, rules.IsOver(s), policy.String())
	}
}

func TestRun_InvalidStrategy(t *testing.T) {
	_, err := Policy{Strategy: Strategy(12)}.Run(topPair(1), nil, newRNG(0))
	assert.True(t, errors.Is(err, game.ErrInvalidArgument))
}

func TestWeights(t *testing.T) {
	s := topPair(1)

	// Up 0, Down 0+1, Left 4+1, Right 4+1.
	w := Weights(s, RewardProportional)
	assert.InDeltaSlice(t, []float64{0, 1.0 / 11, 5.0 / 11, 5.0 / 11}, w[:], 1e-9)

	e := math.E
	w = Weights(s, MergeSeeking)
	sum := 1 + 2*e
	assert.InDeltaSlice(t, []float64{0, 1 / sum, e / sum, e / sum}, w[:], 1e-9)

	w = Weights(s, Uniform)
	assert.Equal(t, [4]float64{0.25, 0.25, 0.25, 0.25}, w)

	w = Weights(&game.Session{Boards: []game.Board{distinct}}, MergeSeeking)
	assert.Equal(t, [4]float64{}, w)
}

func TestFlat_MasksDirectionsThatChangeNothing(t *testing.T) {
	f := &Flat{Policy: Policy{Strategy: RewardProportional}, Rollouts: 8, Parallelism: 2}
	est, err := f.Estimate(context.Background(), topPair(2), newRNG(3))
	require.NoError(t, err)
	assert.True(t, math.IsInf(est[game.Up], -1))
	for _, d := range []game.Direction{game.Down, game.Left, game.Right} {
		assert.False(t, math.IsInf(est[d], 0), d.String())
		assert.GreaterOrEqual(t, est[d], 0.0, d.String())
	}
	// Left and Right both bank the merge immediately.
	assert.GreaterOrEqual(t, est[game.Left], 8.0)
}

func TestFlat_IndependentOfParallelism(t *testing.T) {
	serial := &Flat{Policy: Policy{Strategy: MergeSeeking}, Rollouts: 6, Parallelism: 1}
	wide := &Flat{Policy: Policy{Strategy: MergeSeeking}, Rollouts: 6, Parallelism: 8}

	a, err := serial.Estimate(context.Background(), topPair(2), newRNG(11))
	require.NoError(t, err)
	b, err := wide.Estimate(context.Background(), topPair(2), newRNG(11))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFlat_TerminalAndErrors(t *testing.T) {
	f := &Flat{Rollouts: 4}
	est, err := f.Estimate(context.Background(), &game.Session{Boards: []game.Board{distinct}}, newRNG(0))
	require.NoError(t, err)
	for _, v := range est {
		assert.True(t, math.IsInf(v, -1))
	}

	_, err = (&Flat{}).Estimate(context.Background(), topPair(1), newRNG(0))
	assert.True(t, errors.Is(err, game.ErrInvalidArgument))
}

func BenchmarkRollout(b *testing.B) {
	rng := newRNG(1)
	s := topPair(4)
	p := Policy{Strategy: MergeSeeking}
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(s, nil, rng); err != nil {
			b.Fatal(err)
		}
	}
}
