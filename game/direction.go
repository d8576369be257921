package game

import (
	"fmt"
	"strings"
)

// Direction is a move. The numbering is also the tie-break order.
type Direction int8

const (
	Up Direction = iota
	Down
	Right
	Left
)

// NumDirections is the number of valid directions.
const NumDirections = 4

// Directions lists every valid direction in index order.
var Directions = [NumDirections]Direction{Up, Down, Right, Left}

var directionNames = [NumDirections]string{"up", "down", "right", "left"}

// Valid reports whether d is one of the four moves.
func (d Direction) Valid() bool {
	return d >= Up && d <= Left
}

// Check returns ErrInvalidDirection for anything outside the enumeration.
func (d Direction) Check() error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return nil
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts a name ("up", "Left") or its initial ("u", "l").
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range directionNames {
		if s == name || (len(s) == 1 && s[0] == name[0]) {
			return Direction(i), nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}
