package panel

import (
	"errors"
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"dashlayout/internal/grid"
)

var (
	// ErrDuplicateID is returned when two panels of a tree share an id.
	ErrDuplicateID = errors.New("duplicate panel id")
	// ErrNestedRow is returned when a row holds another row.
	ErrNestedRow = errors.New("row nested inside a row")
	// ErrOverlap is returned when two panels on the grid share a cell.
	ErrOverlap = errors.New("panels overlap")
)

// IndexOf returns the position of p in panels, or -1.
func IndexOf(panels []*Panel, p *Panel) int {
	for i, candidate := range panels {
		if candidate == p {
			return i
		}
	}
	return -1
}

// FindByID looks up a panel by id, including the children of collapsed rows.
func FindByID(panels []*Panel, id int) *Panel {
	for _, p := range panels {
		if p.ID == id {
			return p
		}
		if found := FindByID(p.Panels, id); found != nil {
			return found
		}
	}
	return nil
}

// RowPanels returns the members of the expanded row at index rowIndex: the
// panels following it up to the next row.
func RowPanels(panels []*Panel, rowIndex int) []*Panel {
	var members []*Panel
	for i := rowIndex + 1; i < len(panels); i++ {
		if panels[i].IsRow() {
			break
		}
		members = append(members, panels[i])
	}
	return members
}

// SortByGridPos orders panels top to bottom, then left to right. Ties keep
// their current order.
func SortByGridPos(panels []*Panel) {
	sort.SliceStable(panels, func(i, j int) bool {
		a, b := panels[i].GridPos, panels[j].GridPos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// Walk calls fn for every panel, visiting collapsed-row children after
// their row.
func Walk(panels []*Panel, fn func(p *Panel)) {
	for _, p := range panels {
		fn(p)
		Walk(p.Panels, fn)
	}
}

// ValidateTree checks every grid position, id uniqueness across the whole
// tree and that rows do not nest. All violations are reported.
func ValidateTree(panels []*Panel, columns int) error {
	var errs []error
	seen := sets.New[int]()

	var visit func(list []*Panel, parent *Panel)
	visit = func(list []*Panel, parent *Panel) {
		for _, p := range list {
			if seen.Has(p.ID) {
				errs = append(errs, fmt.Errorf("%w: %d", ErrDuplicateID, p.ID))
			}
			seen.Insert(p.ID)

			if err := grid.Validate(p.GridPos, columns); err != nil {
				errs = append(errs, fmt.Errorf("panel %d: %w", p.ID, err))
			}
			if parent != nil && p.IsRow() {
				errs = append(errs, fmt.Errorf("%w: row %d in row %d", ErrNestedRow, p.ID, parent.ID))
			}
			if p.IsRow() {
				visit(p.Panels, p)
			}
		}
	}
	visit(panels, nil)

	return errors.Join(errs...)
}

// CheckOverlaps reports every pair of top-level panels whose rectangles
// intersect. Children of collapsed rows are off the grid and not checked.
func CheckOverlaps(panels []*Panel) error {
	var errs []error
	for i, a := range panels {
		for _, b := range panels[i+1:] {
			if a.GridPos.Overlaps(b.GridPos) {
				errs = append(errs, fmt.Errorf("%w: panel %d %s and panel %d %s", ErrOverlap, a.ID, a.GridPos, b.ID, b.GridPos))
			}
		}
	}
	return errors.Join(errs...)
}
