package dashboard

import (
	"errors"
	"fmt"
	"slices"

	"dashlayout/internal/grid"
	"dashlayout/internal/merge"
	"dashlayout/internal/migration"
	"dashlayout/internal/panel"
	"dashlayout/internal/repeat"
	"dashlayout/internal/variables"
	"dashlayout/pkg/logging"
)

// ErrNotInDashboard is returned for a panel that is not part of the model.
var ErrNotInDashboard = errors.New("panel is not in the dashboard")

// Model owns the live panel tree of one dashboard. It is not safe for
// concurrent use; callers apply changes one at a time.
type Model struct {
	settings grid.Settings
	expander *repeat.Expander
	panels   []*panel.Panel
}

// New creates an empty model. resolver supplies the selection of the
// variables panels repeat over.
func New(settings grid.Settings, resolver variables.Resolver) *Model {
	settings = settings.WithDefaults()
	if resolver == nil {
		resolver = variables.NewStore()
	}
	return &Model{
		settings: settings,
		expander: repeat.NewExpander(resolver, settings),
	}
}

// Settings returns the grid settings of the model.
func (m *Model) Settings() grid.Settings {
	return m.settings
}

// Panels returns the top-level panels in grid order.
func (m *Model) Panels() []*panel.Panel {
	return slices.Clone(m.panels)
}

// SetPanels replaces the tree with panels built from specs. The previous
// panels are destroyed.
func (m *Model) SetPanels(specs []panel.Spec) {
	m.destroyAll()
	m.panels = panel.FromSpecs(specs)
	panel.SortByGridPos(m.panels)
}

// PackLegacyRows replaces the tree with the grid layout of legacy rows.
// Rows that could not be packed are reported in the returned error; the
// rest are kept.
func (m *Model) PackLegacyRows(rows []migration.LegacyRow) (migration.Result, error) {
	res, err := migration.PackLegacyRows(rows, m.settings)
	m.destroyAll()
	m.panels = slices.Clone(res.Panels)
	panel.SortByGridPos(m.panels)
	return res, err
}

// ExpandRepeats re-derives every repeat clone from the current variable
// selection.
func (m *Model) ExpandRepeats() []*panel.Panel {
	m.panels = m.expander.Process(m.panels)
	return m.Panels()
}

// Reconcile applies an incoming panel array to the live tree.
func (m *Model) Reconcile(specs []panel.Spec) merge.Result {
	res := merge.Merge(m.panels, specs, merge.WithColumns(m.settings.Columns))
	m.panels = slices.Clone(res.Panels)
	panel.SortByGridPos(m.panels)
	if res.Changed {
		logging.Debug("Dashboard", "Reconciled %d panels", len(m.panels))
	}
	return res
}

// NextPanelID returns an id not used anywhere in the tree.
func (m *Model) NextPanelID() int {
	return panel.NextID(m.panels)
}

// RowPanels returns the members of row: its children when collapsed,
// otherwise the panels between it and the next row.
func (m *Model) RowPanels(row *panel.Panel) ([]*panel.Panel, error) {
	if row.Collapsed {
		return slices.Clone(row.Panels), nil
	}
	idx := panel.IndexOf(m.panels, row)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotInDashboard, row.ID)
	}
	return panel.RowPanels(m.panels, idx), nil
}

// ToggleRow collapses an expanded row or expands a collapsed one. Panels
// below the row move up or down by the height of its members.
func (m *Model) ToggleRow(row *panel.Panel) error {
	idx := panel.IndexOf(m.panels, row)
	if idx < 0 || !row.IsRow() {
		return fmt.Errorf("%w: row %d", ErrNotInDashboard, row.ID)
	}

	if row.Collapsed {
		m.expandRow(row, idx)
	} else {
		m.collapseRow(row, idx)
	}
	panel.SortByGridPos(m.panels)
	return nil
}

func (m *Model) collapseRow(row *panel.Panel, idx int) {
	members := panel.RowPanels(m.panels, idx)
	rowBottom := row.GridPos.Bottom()

	extent := 0
	var kept []*panel.Panel
	for _, p := range members {
		extent = max(extent, p.GridPos.Bottom()-rowBottom)
		if p.IsRepeatClone() {
			// Recreated by repeat expansion once the row opens again.
			p.Destroy()
			continue
		}
		p.RepeatShift = 0
		kept = append(kept, p)
	}

	m.panels = slices.Delete(m.panels, idx+1, idx+1+len(members))
	for _, p := range m.panels[idx+1:] {
		moveY(p, -extent)
	}

	row.Panels = kept
	row.Collapsed = true
	row.Touch()
	logging.Debug("Dashboard", "Collapsed row %d with %d panels", row.ID, len(kept))
}

func (m *Model) expandRow(row *panel.Panel, idx int) {
	children := row.Panels
	row.Panels = nil
	row.Collapsed = false
	row.Touch()

	if len(children) == 0 {
		return
	}

	rowBottom := row.GridPos.Bottom()
	yDiff := children[0].GridPos.Y - rowBottom
	yMax := rowBottom
	hasRepeat := false
	for _, p := range children {
		moveY(p, -yDiff)
		yMax = max(yMax, p.GridPos.Bottom())
		hasRepeat = hasRepeat || p.Repeat != ""
	}

	insertAt := idx + 1
	m.panels = slices.Insert(m.panels, insertAt, children...)
	for _, p := range m.panels[insertAt+len(children):] {
		moveY(p, yMax-rowBottom)
	}

	if hasRepeat {
		m.panels = m.expander.ExpandRowMembers(m.panels, row)
	}
	logging.Debug("Dashboard", "Expanded row %d with %d panels", row.ID, len(children))
}

// DuplicatePanel adds a copy of p next to it, or below when there is no
// room on the right. The copy does not repeat.
func (m *Model) DuplicatePanel(p *panel.Panel) (*panel.Panel, error) {
	if panel.IndexOf(m.panels, p) < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotInDashboard, p.ID)
	}

	dup := panel.FromSpec(p.SaveModel())
	dup.ID = m.NextPanelID()
	dup.Repeat = ""
	dup.RepeatDirection = ""
	dup.RepeatPanelID = 0
	dup.RepeatedByRow = false
	dup.ScopedVars = nil
	if _, ok := dup.Extra["alert"]; ok {
		delete(dup.Extra, "alert")
		delete(dup.Extra, "thresholds")
	}
	delete(dup.Extra, "repeatIteration")

	pos := p.GridPos
	if pos.X+pos.W*2 <= m.settings.Columns {
		pos.X += pos.W
	} else {
		pos.Y += pos.H
	}
	dup.SetGridPos(pos)

	m.panels = append(m.panels, dup)
	panel.SortByGridPos(m.panels)
	return dup, nil
}

// RemovePanel removes and destroys a top-level panel. Removing a row takes
// its collapsed children with it.
func (m *Model) RemovePanel(p *panel.Panel) error {
	idx := panel.IndexOf(m.panels, p)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrNotInDashboard, p.ID)
	}
	m.panels = slices.Delete(m.panels, idx, idx+1)
	p.Destroy()
	return nil
}

// RemoveRow removes a row. With removePanels the members of an expanded
// row are removed too; otherwise they stay in place.
func (m *Model) RemoveRow(row *panel.Panel, removePanels bool) error {
	members, err := m.RowPanels(row)
	if err != nil {
		return err
	}
	if removePanels && !row.Collapsed {
		for _, p := range members {
			if err := m.RemovePanel(p); err != nil {
				return err
			}
		}
	}
	return m.RemovePanel(row)
}

// SaveModel returns the persisted form of the panels: repeat clones and
// row copies are left out, scoped variables dropped and repeat shifts
// undone.
func (m *Model) SaveModel() []panel.Spec {
	specs := make([]panel.Spec, 0, len(m.panels))
	for _, p := range m.panels {
		if p.RepeatPanelID != 0 || p.RepeatedByRow {
			continue
		}
		specs = append(specs, persisted(p))
	}
	return specs
}

func persisted(p *panel.Panel) panel.Spec {
	src := p.SaveModel()
	out := make(panel.Spec, len(src))
	for k, v := range src {
		out[k] = panel.CloneValue(v)
	}
	delete(out, "scopedVars")

	if p.RepeatShift != 0 {
		pos := p.GridPos
		pos.Y -= p.RepeatShift
		out["gridPos"] = map[string]any{
			"x": float64(pos.X), "y": float64(pos.Y), "w": float64(pos.W), "h": float64(pos.H),
		}
	}

	if p.IsRow() {
		children := make([]any, 0, len(p.Panels))
		for _, c := range p.Panels {
			if c.RepeatPanelID != 0 || c.RepeatedByRow {
				continue
			}
			children = append(children, map[string]any(persisted(c)))
		}
		out["panels"] = children
	}
	return out
}

// Validate checks the grid invariant on every panel, id uniqueness across
// the whole tree and that rows do not nest.
func (m *Model) Validate() error {
	return panel.ValidateTree(m.panels, m.settings.Columns)
}

// Overlaps reports panels on the grid that share cells. Repeat expansion
// can produce overlaps next to a horizontal repeat, so this is kept apart
// from Validate.
func (m *Model) Overlaps() error {
	return panel.CheckOverlaps(m.panels)
}

// Destroy releases every panel.
func (m *Model) Destroy() {
	m.destroyAll()
	m.panels = nil
}

func (m *Model) destroyAll() {
	for _, p := range m.panels {
		p.Destroy()
	}
}

// moveY moves a panel without recording a repeat shift.
func moveY(p *panel.Panel, dy int) {
	if dy == 0 {
		return
	}
	pos := p.GridPos
	pos.Y += dy
	p.SetGridPos(pos)
}
