// Package selfplay drives whole games: one arbiter per game, one archive
// row per turn.
package selfplay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brensch/mcts2048/executor/arbiter"
	"github.com/brensch/mcts2048/game"
	"github.com/brensch/mcts2048/rules"
	"github.com/brensch/mcts2048/store"
)

// Options describe one game.
type Options struct {
	Boards    int
	EndPolicy game.EndPolicy
	// Seed 0 draws a random seed; GameResult.Seed reports the one used.
	Seed uint64
	// Algorithm is copied into the archive rows.
	Algorithm string
	// MaxTurns stops the game early when > 0. Such games are not Completed.
	MaxTurns int
	// OnTurn, if set, is called after every committed move.
	OnTurn func(s *game.Session, res arbiter.TurnResult)
}

type GameResult struct {
	GameID      string
	Seed        uint64
	Score       int
	Turns       int
	MaxTile     int
	FinalBoards []game.Board
	Duration    time.Duration
	// Completed is false when the game stopped before game over.
	Completed bool
}

// PlayGame plays one game to the end with searcher choosing every move.
// ctx is checked between turns; on cancellation the rows played so far are
// returned with ctx's error.
func PlayGame(ctx context.Context, gameID string, searcher arbiter.Searcher, opts Options) ([]store.TurnRow, GameResult, error) {
	start := time.Now()
	seed := arbiter.ResolveSeed(opts.Seed)
	result := GameResult{GameID: gameID, Seed: seed}

	master := arbiter.NewRNG(seed)
	state, err := rules.NewSession(opts.Boards, opts.EndPolicy, master)
	if err != nil {
		return nil, result, err
	}
	// |1 keeps the arbiter off the random-seed path
	arb := arbiter.New(searcher, master.Uint64()|1)

	logger := zerolog.Ctx(ctx).With().Str("game", gameID).Logger()
	ctx = logger.WithContext(ctx)
	logger.Debug().Uint64("seed", seed).Int("boards", opts.Boards).Str("end", opts.EndPolicy.String()).Msg("game-start")

	rows := make([]store.TurnRow, 0, 256)
	finish := func(completed bool) GameResult {
		result.Score = state.Score
		result.Turns = state.Turn
		result.MaxTile = state.MaxTile()
		result.FinalBoards = append([]game.Board(nil), state.Boards...)
		result.Duration = time.Since(start)
		result.Completed = completed
		for i := range rows {
			rows[i].FinalScore = int64(state.Score)
		}
		return result
	}

	for {
		if err := ctx.Err(); err != nil {
			return rows, finish(false), err
		}
		if opts.MaxTurns > 0 && state.Turn >= opts.MaxTurns {
			logger.Debug().Int("turn", state.Turn).Msg("turn limit reached")
			return rows, finish(false), nil
		}

		if logger.GetLevel() <= zerolog.TraceLevel {
			logger.Trace().Msg("\n" + RenderSession(state))
		}

		row := store.TurnRow{
			GameID:    gameID,
			Turn:      int32(state.Turn),
			NumBoards: int32(len(state.Boards)),
			Boards:    flatten(state.Boards),
			Algorithm: opts.Algorithm,
		}

		res, err := arb.ApplyTurn(ctx, state)
		if err != nil {
			return rows, finish(false), fmt.Errorf("game %s: %w", gameID, err)
		}
		if state.Turn == int(row.Turn) {
			// no legal move: game over before anything was committed
			break
		}

		row.Move = int32(res.Direction)
		row.Estimates = append([]float64(nil), res.Estimates[:]...)
		row.ScoreDelta = int32(res.ScoreDelta)
		row.Score = int64(state.Score)
		rows = append(rows, row)

		if opts.OnTurn != nil {
			opts.OnTurn(state, res)
		}
		if res.GameOver {
			break
		}
	}

	out := finish(true)
	logger.Info().
		Int("score", out.Score).
		Int("turns", out.Turns).
		Int("max_tile", out.MaxTile).
		Dur("took", out.Duration).
		Msg("game-over")
	if logger.GetLevel() <= zerolog.DebugLevel {
		logger.Debug().Msg("final boards\n" + RenderSession(state))
	}
	return rows, out, nil
}

func flatten(boards []game.Board) []int32 {
	out := make([]int32, 0, len(boards)*game.Cells)
	for i := range boards {
		for _, v := range boards[i].Flat() {
			out = append(out, int32(v))
		}
	}
	return out
}
