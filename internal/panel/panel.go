package panel

import (
	"fmt"
	"reflect"

	"dashlayout/internal/grid"
)

// TypeRow is the type discriminator of row panels.
const TypeRow = "row"

// Direction is the repeat fan-out direction.
type Direction string

const (
	DirectionHorizontal Direction = "h"
	DirectionVertical   Direction = "v"
)

// ScopedVar is the single variable value bound to a repeat clone.
type ScopedVar struct {
	Text  string `json:"text"`
	Value any    `json:"value"`
}

// Panel is a live node of the layout tree. Pointer identity is the panel's
// identity: the reconciler keeps a *Panel to avoid a UI remount and
// allocates a new one to force it.
//
// Fields may be read freely. Mutations must go through the Set* methods (or
// be followed by Touch) so ConfigRev moves and cached save models are not
// reused for a stale state.
type Panel struct {
	ID          int
	Type        string
	Title       string
	Description string
	Transparent bool
	GridPos     grid.Pos

	Repeat          string
	RepeatDirection Direction
	RepeatPanelID   int
	RepeatedByRow   bool
	MaxPerRow       int
	ScopedVars      map[string]ScopedVar

	// Row only.
	Collapsed bool
	Panels    []*Panel

	// Extra holds every record field the engine does not interpret
	// (targets, options, fieldConfig, thresholds...).
	Extra map[string]any

	ConfigRev int
	// Key is a synthetic identity token. It changes when the reconciler
	// replaces the panel so the presentation layer remounts it.
	Key string
	// RepeatShift is how far repeat expansion has pushed this panel down.
	// It is not serialized; clean-up subtracts it before re-expanding.
	RepeatShift int

	saved     Spec
	savedRev  int
	destroyed bool
	onDestroy []func()
}

// IsRow reports whether p is a row container.
func (p *Panel) IsRow() bool {
	return p.Type == TypeRow
}

// IsRepeatClone reports whether p was generated by a repeat and must be
// dropped by repeat clean-up.
func (p *Panel) IsRepeatClone() bool {
	return p.RepeatPanelID != 0 && (p.Repeat == "" || p.RepeatedByRow)
}

func (p *Panel) String() string {
	return fmt.Sprintf("panel %d (%s) %s", p.ID, p.Type, p.GridPos)
}

// Touch records a mutation.
func (p *Panel) Touch() {
	p.ConfigRev++
}

// SetGridPos moves or resizes the panel.
func (p *Panel) SetGridPos(pos grid.Pos) {
	if p.GridPos == pos {
		return
	}
	p.GridPos = pos
	p.Touch()
}

// ShiftY moves the panel down by dy and records the shift in RepeatShift.
func (p *Panel) ShiftY(dy int) {
	if dy == 0 {
		return
	}
	p.GridPos.Y += dy
	p.RepeatShift += dy
	p.Touch()
}

// SetScopedVar binds name to value for this panel.
func (p *Panel) SetScopedVar(name string, value ScopedVar) {
	if p.ScopedVars == nil {
		p.ScopedVars = make(map[string]ScopedVar)
	}
	if cur, ok := p.ScopedVars[name]; ok && cur.Text == value.Text && reflect.DeepEqual(cur.Value, value.Value) {
		return
	}
	p.ScopedVars[name] = value
	p.Touch()
}

// ClearScopedVars drops all scoped variable bindings.
func (p *Panel) ClearScopedVars() {
	if p.ScopedVars == nil {
		return
	}
	p.ScopedVars = nil
	p.Touch()
}

// SetSoftField applies a field that can be patched onto a live panel
// without remounting it. It returns false for any other key and for a
// gridPos that does not carry all of x, y, w and h.
//
// An explicit position replaces whatever repeat expansion did to the panel,
// so RepeatShift starts over from zero.
func (p *Panel) SetSoftField(key string, value any) bool {
	switch key {
	case "gridPos":
		pos, ok := posFromValue(value)
		if !ok {
			return false
		}
		p.GridPos = pos
		p.RepeatShift = 0
	case "title", "description", "transparent":
		p.setDisplayField(key, value)
	default:
		return false
	}
	p.Touch()
	return true
}

// setDisplayField stores title, description or transparent. A value of the
// wrong type is kept verbatim in Extra so the record round-trips.
func (p *Panel) setDisplayField(key string, value any) {
	var ok bool
	switch key {
	case "title":
		p.Title, ok = value.(string)
	case "description":
		p.Description, ok = value.(string)
	case "transparent":
		p.Transparent, ok = value.(bool)
	}
	if ok {
		delete(p.Extra, key)
		return
	}
	if p.Extra == nil {
		p.Extra = make(map[string]any)
	}
	p.Extra[key] = cloneValue(value)
}

// OnDestroy registers a hook releasing a resource held by the live panel.
func (p *Panel) OnDestroy(fn func()) {
	p.onDestroy = append(p.onDestroy, fn)
}

// Destroy releases the panel's resources, including those of a collapsed
// row's children. Calls after the first are ignored.
func (p *Panel) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	for _, fn := range p.onDestroy {
		fn()
	}
	p.onDestroy = nil
	for _, child := range p.Panels {
		child.Destroy()
	}
}

// Destroyed reports whether Destroy has run.
func (p *Panel) Destroyed() bool {
	return p.destroyed
}

// Clone returns a fresh live panel with the same save model. Hooks, Key and
// RepeatShift are not copied.
func (p *Panel) Clone() *Panel {
	return FromSpec(p.SaveModel())
}
