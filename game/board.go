package game

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Size is the side length of a board.
const Size = 4

// Cells is the number of cells on a board.
const Cells = Size * Size

// Board is a 4x4 tile grid. Row 0 is the top row, column 0 the left column.
// A zero cell is empty; any other value is a power of two >= 2.
//
// Board is an array, so assignment copies it.
type Board [Size][Size]int

// Empty returns the number of empty cells.
func (b *Board) Empty() int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == 0 {
				n++
			}
		}
	}
	return n
}

// EmptyCells appends the row-major indices of empty cells to dst.
func (b *Board) EmptyCells(dst []int) []int {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == 0 {
				dst = append(dst, r*Size+c)
			}
		}
	}
	return dst
}

// Sum returns the total of all tile values.
func (b *Board) Sum() int {
	s := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			s += b[r][c]
		}
	}
	return s
}

// MaxTile returns the largest tile on the board.
func (b *Board) MaxTile() int {
	m := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] > m {
				m = b[r][c]
			}
		}
	}
	return m
}

// Rows returns a copy of the grid as nested slices, top row first.
func (b *Board) Rows() [][]int {
	out := make([][]int, Size)
	for r := range out {
		out[r] = append([]int(nil), b[r][:]...)
	}
	return out
}

// Flat returns the cells in row-major order.
func (b *Board) Flat() []int {
	out := make([]int, 0, Cells)
	for r := 0; r < Size; r++ {
		out = append(out, b[r][:]...)
	}
	return out
}

// Validate reports the first cell that is neither empty nor a power of two >= 2.
func (b *Board) Validate() error {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			v := b[r][c]
			if v == 0 {
				continue
			}
			if v < 2 || v&(v-1) != 0 {
				return fmt.Errorf("%w: cell (%d,%d) holds %d", ErrInvalidTile, r, c, v)
			}
		}
	}
	return nil
}

// Fingerprint packs log2 of each tile into 4 bits per cell, row-major, with
// the top-left cell in the most significant nibble. Distinct boards map to
// distinct fingerprints as long as every tile is at most 32768.
type Fingerprint uint64

// Fingerprint returns the packed encoding of b.
func (b *Board) Fingerprint() Fingerprint {
	var f Fingerprint
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			f <<= 4
			if v := b[r][c]; v > 0 {
				f |= Fingerprint(bits.TrailingZeros(uint(v)) & 0xF)
			}
		}
	}
	return f
}

func (b *Board) appendLog2(dst []byte) []byte {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			var e byte
			if v := b[r][c]; v > 0 {
				e = byte(bits.TrailingZeros(uint(v)))
			}
			dst = append(dst, e)
		}
	}
	return dst
}

// BoardFromFingerprint reverses Fingerprint.
func BoardFromFingerprint(f Fingerprint) Board {
	var b Board
	for i := Cells - 1; i >= 0; i-- {
		if e := int(f & 0xF); e > 0 {
			b[i/Size][i%Size] = 1 << e
		}
		f >>= 4
	}
	return b
}

// BoardFromCells builds a board from 16 row-major values.
func BoardFromCells(cells []int) (Board, error) {
	var b Board
	if len(cells) != Cells {
		return b, fmt.Errorf("%w: need %d cells, got %d", ErrInvalidArgument, Cells, len(cells))
	}
	for i, v := range cells {
		b[i/Size][i%Size] = v
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// ParseBoard reads 16 integers separated by commas, slashes or whitespace,
// e.g. "2,0,0,2/0,4,0,0/0,0,0,0/0,0,0,8".
func ParseBoard(s string) (Board, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '/' || r == ' ' || r == '\t' || r == '\n'
	})
	cells := make([]int, 0, Cells)
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Board{}, fmt.Errorf("%w: %q is not a tile", ErrInvalidArgument, f)
		}
		cells = append(cells, v)
	}
	return BoardFromCells(cells)
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == 0 {
				sb.WriteString("    .")
				continue
			}
			fmt.Fprintf(&sb, "%5d", b[r][c])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
