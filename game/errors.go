package game

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the parent of every contract-violation error.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidDirection = fmt.Errorf("%w: direction", ErrInvalidArgument)
	ErrNoBoards         = fmt.Errorf("%w: a session needs at least one board", ErrInvalidArgument)
	ErrInvalidTile      = fmt.Errorf("%w: tile", ErrInvalidArgument)
)
