// Package game defines the core state types for batched 2048.
//
// A Session holds one or more boards that all receive the same move each
// turn. Sessions are cheap to clone, which is what the searches rely on to
// give every simulation its own sandbox.
package game

import (
	"fmt"
	"strings"
)

// EndPolicy decides when a batch of boards counts as finished.
type EndPolicy int8

const (
	// EndAny ends the session as soon as one board is terminal.
	EndAny EndPolicy = iota
	// EndAll ends the session only once every board is terminal.
	EndAll
)

func (p EndPolicy) String() string {
	switch p {
	case EndAny:
		return "any"
	case EndAll:
		return "all"
	default:
		return fmt.Sprintf("endpolicy(%d)", int(p))
	}
}

// ParseEndPolicy parses "any" or "all".
func ParseEndPolicy(s string) (EndPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return EndAny, nil
	case "all":
		return EndAll, nil
	}
	return EndAny, fmt.Errorf("%w: unknown end policy %q", ErrInvalidArgument, s)
}

// Session is the complete state of a batched game.
type Session struct {
	Boards    []Board
	Score     int
	Turn      int
	EndPolicy EndPolicy
}

// Clone performs a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{
		Score:     s.Score,
		Turn:      s.Turn,
		EndPolicy: s.EndPolicy,
	}
	if len(s.Boards) > 0 {
		out.Boards = make([]Board, len(s.Boards))
		copy(out.Boards, s.Boards)
	}
	return out
}

// CopyFrom overwrites s with src, reusing s's board slice when it is large enough.
func (s *Session) CopyFrom(src *Session) {
	if cap(s.Boards) < len(src.Boards) {
		s.Boards = make([]Board, len(src.Boards))
	}
	s.Boards = s.Boards[:len(src.Boards)]
	copy(s.Boards, src.Boards)
	s.Score = src.Score
	s.Turn = src.Turn
	s.EndPolicy = src.EndPolicy
}

// Split returns one single-board session per board, each carrying the
// parent's turn and end policy. Scores start at zero.
func (s *Session) Split() []*Session {
	out := make([]*Session, len(s.Boards))
	for i := range s.Boards {
		out[i] = &Session{
			Boards:    []Board{s.Boards[i]},
			Turn:      s.Turn,
			EndPolicy: s.EndPolicy,
		}
	}
	return out
}

// AppendKey appends one byte per cell, the log2 of its tile, for every
// board to dst. Unlike Fingerprint it is exact for every reachable tile.
func (s *Session) AppendKey(dst []byte) []byte {
	for i := range s.Boards {
		dst = s.Boards[i].appendLog2(dst)
	}
	return dst
}

// Key is AppendKey as a string, usable as a map key.
func (s *Session) Key() string {
	return string(s.AppendKey(make([]byte, 0, Cells*len(s.Boards))))
}

// MaxTile returns the largest tile across all boards.
func (s *Session) MaxTile() int {
	m := 0
	for i := range s.Boards {
		if t := s.Boards[i].MaxTile(); t > m {
			m = t
		}
	}
	return m
}

func (s *Session) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "turn=%d score=%d boards=%d\n", s.Turn, s.Score, len(s.Boards))
	for i := range s.Boards {
		fmt.Fprintf(&sb, "board %d:\n%s", i, s.Boards[i].String())
	}
	return sb.String()
}
