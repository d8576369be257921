// Package rules implements the 2048 transition engine: slide and merge,
// tile spawning and terminal detection, for single boards and for batches.
//
// Every function that spawns tiles takes the caller's *rand.Rand. The engine
// never owns a generator, so concurrent callers stay independent.
package rules

import (
	"fmt"
	"math/rand/v2"

	"github.com/samber/lo"

	"github.com/brensch/mcts2048/game"
)

// MoveOutcome describes one move applied to one board.
type MoveOutcome struct {
	Changed  bool
	Score    int
	Merges   int
	Terminal bool
}

// BatchOutcome describes one move applied to every board of a session.
// Boards holds the per-board outcomes in session order.
type BatchOutcome struct {
	Changed  bool
	Score    int
	Merges   int
	GameOver bool
	Boards   []MoveOutcome
}

// SlideLine compacts a line toward index 0, merging equal neighbours once.
// Index 0 is the edge the tiles travel toward.
func SlideLine(line [game.Size]int) (out [game.Size]int, changed bool, score, merges int) {
	w := 0
	open := false // out[w-1] may still absorb a tile
	for j := 0; j < game.Size; j++ {
		v := line[j]
		if v == 0 {
			continue
		}
		if open && out[w-1] == v {
			out[w-1] = v * 2
			score += v * 2
			merges++
			changed = true
			open = false
			continue
		}
		out[w] = v
		if w != j {
			changed = true
		}
		w++
		open = true
	}
	return out, changed, score, merges
}

// cell maps (line i, position j counted from the destination edge) to a
// board coordinate for direction d.
func cell(d game.Direction, i, j int) (int, int) {
	switch d {
	case game.Up:
		return j, i
	case game.Down:
		return game.Size - 1 - j, i
	case game.Left:
		return i, j
	default: // Right
		return i, game.Size - 1 - j
	}
}

func slide(b *game.Board, d game.Direction) MoveOutcome {
	var out MoveOutcome
	for i := 0; i < game.Size; i++ {
		var line [game.Size]int
		for j := 0; j < game.Size; j++ {
			r, c := cell(d, i, j)
			line[j] = b[r][c]
		}
		moved, changed, score, merges := SlideLine(line)
		if !changed {
			continue
		}
		for j := 0; j < game.Size; j++ {
			r, c := cell(d, i, j)
			b[r][c] = moved[j]
		}
		out.Changed = true
		out.Score += score
		out.Merges += merges
	}
	return out
}

// Slide applies d to b without spawning. Terminal reports the post-slide state.
func Slide(b *game.Board, d game.Direction) (MoveOutcome, error) {
	if err := d.Check(); err != nil {
		return MoveOutcome{}, err
	}
	out := slide(b, d)
	out.Terminal = IsTerminal(b)
	return out, nil
}

// CanSlide reports whether d would change b.
func CanSlide(b *game.Board, d game.Direction) bool {
	if !d.Valid() {
		return false
	}
	tmp := *b
	return slide(&tmp, d).Changed
}

// IsTerminal reports whether b is full and has no equal horizontal or
// vertical neighbours.
func IsTerminal(b *game.Board) bool {
	for r := 0; r < game.Size; r++ {
		for c := 0; c < game.Size; c++ {
			v := b[r][c]
			if v == 0 {
				return false
			}
			if c+1 < game.Size && b[r][c+1] == v {
				return false
			}
			if r+1 < game.Size && b[r+1][c] == v {
				return false
			}
		}
	}
	return true
}

// NewSession creates n boards, each seeded with two random tiles.
func NewSession(n int, policy game.EndPolicy, rng *rand.Rand) (*game.Session, error) {
	if n < 1 {
		return nil, fmt.Errorf("new session with %d boards: %w", n, game.ErrNoBoards)
	}
	s := &game.Session{
		Boards:    make([]game.Board, n),
		EndPolicy: policy,
	}
	for i := range s.Boards {
		Spawn(&s.Boards[i], rng)
		Spawn(&s.Boards[i], rng)
	}
	return s, nil
}

// SessionFromBoards wraps existing boards in a session after validating them.
func SessionFromBoards(boards []game.Board, policy game.EndPolicy) (*game.Session, error) {
	if len(boards) == 0 {
		return nil, game.ErrNoBoards
	}
	for i := range boards {
		if err := boards[i].Validate(); err != nil {
			return nil, fmt.Errorf("board %d: %w", i, err)
		}
	}
	s := &game.Session{Boards: make([]game.Board, len(boards)), EndPolicy: policy}
	copy(s.Boards, boards)
	return s, nil
}

// Move slides every board in d, spawns a tile on each board that changed
// and reports the batch outcome.
func Move(s *game.Session, d game.Direction, rng *rand.Rand) (BatchOutcome, error) {
	var out BatchOutcome
	err := MoveInto(s, d, rng, &out)
	return out, err
}

// MoveWithoutSpawn is Move with spawning disabled.
func MoveWithoutSpawn(s *game.Session, d game.Direction) (BatchOutcome, error) {
	var out BatchOutcome
	err := MoveInto(s, d, nil, &out)
	return out, err
}

// MoveInto is Move writing into out so hot loops can reuse out.Boards.
// A nil rng disables spawning.
func MoveInto(s *game.Session, d game.Direction, rng *rand.Rand, out *BatchOutcome) error {
	if err := d.Check(); err != nil {
		return err
	}
	n := len(s.Boards)
	if n == 0 {
		return game.ErrNoBoards
	}
	if cap(out.Boards) < n {
		out.Boards = make([]MoveOutcome, n)
	}
	out.Boards = out.Boards[:n]
	out.Changed, out.Score, out.Merges = false, 0, 0

	terminal := 0
	for i := range s.Boards {
		b := &s.Boards[i]
		o := slide(b, d)
		if o.Changed && rng != nil {
			Spawn(b, rng)
		}
		o.Terminal = IsTerminal(b)
		if o.Terminal {
			terminal++
		}
		out.Boards[i] = o
		out.Changed = out.Changed || o.Changed
		out.Score += o.Score
		out.Merges += o.Merges
	}

	if s.EndPolicy == game.EndAll {
		out.GameOver = terminal == n
	} else {
		out.GameOver = terminal > 0
	}

	if out.Changed {
		s.Score += out.Score
		s.Turn++
	}
	return nil
}

// IsOver reports whether the session is finished under its end policy.
func IsOver(s *game.Session) bool {
	terminal := lo.CountBy(s.Boards, func(b game.Board) bool {
		return IsTerminal(&b)
	})
	if s.EndPolicy == game.EndAll {
		return terminal == len(s.Boards)
	}
	return terminal > 0
}

// Changes reports, for each direction, whether it would change any board.
func Changes(s *game.Session) [game.NumDirections]bool {
	var out [game.NumDirections]bool
	for _, d := range game.Directions {
		out[d] = lo.SomeBy(s.Boards, func(b game.Board) bool {
			return CanSlide(&b, d)
		})
	}
	return out
}

// LegalMoves lists the directions that change at least one board.
func LegalMoves(s *game.Session) []game.Direction {
	changes := Changes(s)
	return lo.Filter(game.Directions[:], func(d game.Direction, _ int) bool {
		return changes[d]
	})
}
