package game

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestFingerprint_RoundTrip(t *testing.T) {
	is := is.New(t)
	b := Board{
		{2, 0, 4, 8},
		{0, 16, 0, 32},
		{64, 128, 256, 512},
		{1024, 2048, 4096, 32768},
	}
	is.Equal(BoardFromFingerprint(b.Fingerprint()), b)
}

func TestFingerprint_Layout(t *testing.T) {
	is := is.New(t)
	var b Board
	b[0][0] = 2
	b[3][3] = 4
	// top-left is the most significant nibble, bottom-right the least.
	is.Equal(b.Fingerprint(), Fingerprint(1)<<60|Fingerprint(2))
}

func TestFingerprint_DistinguishesPositions(t *testing.T) {
	is := is.New(t)
	seen := make(map[Fingerprint]int)
	for i := 0; i < Cells; i++ {
		var b Board
		b[i/Size][i%Size] = 2
		f := b.Fingerprint()
		_, dup := seen[f]
		is.True(!dup) // two cells share a fingerprint
		seen[f] = i
	}
	var empty Board
	is.Equal(empty.Fingerprint(), Fingerprint(0))
}

func TestBoardHelpers(t *testing.T) {
	is := is.New(t)
	b := Board{
		{2, 2, 0, 0},
		{0, 4, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 128},
	}
	is.Equal(b.Empty(), 12)
	is.Equal(b.Sum(), 136)
	is.Equal(b.MaxTile(), 128)

	cells := b.EmptyCells(nil)
	is.Equal(len(cells), 12)
	is.Equal(cells[0], 2)
	is.Equal(cells[len(cells)-1], 14)

	flat := b.Flat()
	is.Equal(len(flat), Cells)
	is.Equal(flat[15], 128)
	is.Equal(flat[5], 4)
}

func TestBoardCopyIsIndependent(t *testing.T) {
	is := is.New(t)
	a := Board{{2}}
	b := a
	b[0][0] = 4
	is.Equal(a[0][0], 2) // copy aliased the original
}

func TestBoardRows(t *testing.T) {
	is := is.New(t)
	b := Board{{2, 0, 0, 4}, {}, {}, {0, 0, 8, 0}}
	rows := b.Rows()
	is.Equal(len(rows), Size)
	is.Equal(rows[0][3], 4)
	is.Equal(rows[3][2], 8)
	rows[0][0] = 1024
	is.Equal(b[0][0], 2) // Rows aliases the board
}

func TestParseBoard(t *testing.T) {
	is := is.New(t)
	b, err := ParseBoard("2,0,0,2/0,4,0,0/0,0,0,0/0,0,0,8")
	is.NoErr(err)
	is.Equal(b, Board{{2, 0, 0, 2}, {0, 4, 0, 0}, {}, {0, 0, 0, 8}})

	_, err = ParseBoard("2 2 2")
	is.True(errors.Is(err, ErrInvalidArgument))
	_, err = ParseBoard("3,0,0,0 0,0,0,0 0,0,0,0 0,0,0,0")
	is.True(errors.Is(err, ErrInvalidTile))
	_, err = ParseBoard("x,0,0,0 0,0,0,0 0,0,0,0 0,0,0,0")
	is.True(errors.Is(err, ErrInvalidArgument))
}

func TestDirection(t *testing.T) {
	is := is.New(t)
	for i, d := range Directions {
		is.Equal(int(d), i)
		is.True(d.Valid())
		parsed, err := ParseDirection(d.String())
		is.NoErr(err)
		is.Equal(parsed, d)
	}
	d, err := ParseDirection("R")
	is.NoErr(err)
	is.Equal(d, Right)

	err = Direction(4).Check()
	is.True(errors.Is(err, ErrInvalidDirection))
	is.True(errors.Is(err, ErrInvalidArgument))
	is.True(Direction(-1).Check() != nil)
	_, err = ParseDirection("sideways")
	is.True(errors.Is(err, ErrInvalidDirection))
}
