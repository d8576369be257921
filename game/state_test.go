package game

import (
	"testing"

	"github.com/matryer/is"
)

func TestSessionClone_DeepCopy(t *testing.T) {
	is := is.New(t)
	s := &Session{
		Boards:    []Board{{{2}}, {{4}}},
		Score:     12,
		Turn:      3,
		EndPolicy: EndAll,
	}
	c := s.Clone()
	c.Boards[0][0][0] = 8
	c.Score = 0

	is.Equal(s.Boards[0][0][0], 2) // clone shares boards
	is.Equal(s.Score, 12)
	is.Equal(c.Turn, 3)
	is.Equal(c.EndPolicy, EndAll)
}

func TestSessionCopyFrom_ReusesBuffer(t *testing.T) {
	is := is.New(t)
	src := &Session{Boards: []Board{{{2}}, {{4}}}, Score: 5}
	dst := &Session{Boards: make([]Board, 0, 4)}
	before := cap(dst.Boards)
	dst.CopyFrom(src)
	is.Equal(cap(dst.Boards), before) // CopyFrom reallocated
	is.Equal(len(dst.Boards), 2)
	is.Equal(dst.Boards[1][0][0], 4)
	is.Equal(dst.Score, 5)

	dst.Boards[0][0][0] = 16
	is.Equal(src.Boards[0][0][0], 2) // CopyFrom aliased source
}

func TestSessionKey(t *testing.T) {
	is := is.New(t)
	a := &Session{Boards: []Board{{{2}}, {{4}}}}
	b := &Session{Boards: []Board{{{2}}, {{4}}}}
	c := &Session{Boards: []Board{{{4}}, {{2}}}}
	is.Equal(a.Key(), b.Key())
	is.True(a.Key() != c.Key()) // board order ignored
	is.Equal(len(a.Key()), 2*Cells)
}

func TestSessionKey_LargeTiles(t *testing.T) {
	is := is.New(t)
	// 65536 does not fit a fingerprint nibble but must still be told apart
	// from an empty cell and from 2.
	big := &Session{Boards: []Board{{{65536, 2}}}}
	empty := &Session{Boards: []Board{{{0, 2}}}}
	two := &Session{Boards: []Board{{{2, 2}}}}
	huge := &Session{Boards: []Board{{{131072, 2}}}}
	is.True(big.Key() != empty.Key())
	is.True(big.Key() != two.Key())
	is.True(huge.Key() != big.Key())
}

func TestSessionSplit(t *testing.T) {
	is := is.New(t)
	s := &Session{Boards: []Board{{{2}}, {{4}}, {{8}}}, Score: 40, Turn: 7, EndPolicy: EndAll}
	parts := s.Split()
	is.Equal(len(parts), 3)
	for i, p := range parts {
		is.Equal(len(p.Boards), 1)
		is.Equal(p.Boards[0], s.Boards[i])
		is.Equal(p.Score, 0)
		is.Equal(p.Turn, 7)
		is.Equal(p.EndPolicy, EndAll)
	}
	parts[0].Boards[0][0][0] = 1024
	is.Equal(s.Boards[0][0][0], 2) // split aliased parent
	is.Equal(s.MaxTile(), 8)
}

func TestParseEndPolicy(t *testing.T) {
	is := is.New(t)
	for _, tc := range []struct {
		in   string
		want EndPolicy
		ok   bool
	}{
		{"any", EndAny, true},
		{"", EndAny, true},
		{"ALL", EndAll, true},
		{"most", EndAny, false},
	} {
		got, err := ParseEndPolicy(tc.in)
		is.Equal(err == nil, tc.ok)
		is.Equal(got, tc.want)
	}
}
