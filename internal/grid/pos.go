package grid

import (
	"errors"
	"fmt"
)

// Grid errors. They indicate bugs in migration or repeat logic and are never
// corrected by clamping.
var (
	ErrOutOfBounds     = errors.New("panel extends past the last grid column")
	ErrNonPositiveSize = errors.New("panel width and height must be at least 1")
	ErrNegativeOrigin  = errors.New("panel origin must not be negative")
)

// Pos is a panel rectangle in grid units.
type Pos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

func (p Pos) String() string {
	return fmt.Sprintf("{x:%d y:%d w:%d h:%d}", p.X, p.Y, p.W, p.H)
}

// Bottom returns the first grid row below the rectangle.
func (p Pos) Bottom() int {
	return p.Y + p.H
}

// Right returns the first column right of the rectangle.
func (p Pos) Right() int {
	return p.X + p.W
}

// Overlaps reports whether two rectangles share at least one cell.
func (p Pos) Overlaps(o Pos) bool {
	return p.X < o.Right() && o.X < p.Right() && p.Y < o.Bottom() && o.Y < p.Bottom()
}

// Validate checks pos against a grid that is columns wide.
func Validate(pos Pos, columns int) error {
	if pos.X < 0 || pos.Y < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeOrigin, pos)
	}
	if pos.W <= 0 || pos.H <= 0 {
		return fmt.Errorf("%w: %s", ErrNonPositiveSize, pos)
	}
	if pos.X+pos.W > columns {
		return fmt.Errorf("%w: %s exceeds %d columns", ErrOutOfBounds, pos, columns)
	}
	return nil
}

// SameRow reports whether other sits to the right of template on the
// template's own grid row. Such panels are left alone when a repeat
// expansion pushes the panels below it down.
func SameRow(template, other Pos) bool {
	return other.X >= template.X+template.W && other.Y == template.Y
}
