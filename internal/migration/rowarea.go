package migration

import (
	"errors"

	"dashlayout/internal/grid"
)

// ErrPackingExhausted is returned when a panel fits neither the current band
// nor a fresh one.
var ErrPackingExhausted = errors.New("no room for panel after band wrap")

// RowArea packs the panels of one legacy row into bands of the row's height.
// For every column it tracks how many grid units of the current band are
// already filled.
type RowArea struct {
	area   []int
	yPos   int
	height int
}

// NewRowArea starts packing at yPos with bands height units tall on a grid
// columns wide.
func NewRowArea(height, columns, yPos int) *RowArea {
	return &RowArea{
		area:   make([]int, columns),
		yPos:   yPos,
		height: height,
	}
}

// YPos is the top of the current band.
func (r *RowArea) YPos() int {
	return r.yPos
}

func (r *RowArea) reset() {
	for i := range r.area {
		r.area[i] = 0
	}
}

// AddPanel marks the columns spanned by pos as filled down to its bottom.
func (r *RowArea) AddPanel(pos grid.Pos) {
	fill := pos.Y + pos.H - r.yPos
	for i := pos.X; i < pos.X+pos.W && i < len(r.area); i++ {
		if i >= 0 && fill > r.area[i] {
			r.area[i] = fill
		}
	}
}

// GetPanelPosition finds a spot for a panel of the given size. The returned
// y is relative to YPos, which may have moved to a new band.
//
// Columns are scanned right to left while they have capacity left and that
// capacity does not shrink; the panel goes to the leftmost column of that
// run. When the run is too narrow the band wraps once.
func (r *RowArea) GetPanelPosition(height, width int) (x, y int, err error) {
	return r.getPanelPosition(height, width, false)
}

func (r *RowArea) getPanelPosition(height, width int, calledOnce bool) (int, int, error) {
	start, end := -1, -1
	for i := len(r.area) - 1; i >= 0; i-- {
		if r.height-r.area[i] <= 0 {
			break
		}
		if end < 0 {
			end = i
			continue
		}
		if i < len(r.area)-1 && r.area[i] <= r.area[i+1] {
			start = i
		} else {
			break
		}
	}

	if start >= 0 && end-start >= width-1 {
		top := 0
		for _, filled := range r.area[start:] {
			if filled > top {
				top = filled
			}
		}
		return start, top, nil
	}
	if calledOnce {
		return 0, 0, ErrPackingExhausted
	}

	r.yPos += r.height
	r.reset()
	return r.getPanelPosition(height, width, true)
}
