package repeat

import (
	"slices"

	"dashlayout/internal/grid"
	"dashlayout/internal/panel"
	"dashlayout/internal/variables"
	"dashlayout/pkg/logging"
)

// Expander turns template panels and rows into one clone per selected value
// of the variable they repeat over.
type Expander struct {
	resolver variables.Resolver
	columns  int
}

// NewExpander creates an expander resolving variables through resolver on
// a grid settings.Columns wide.
func NewExpander(resolver variables.Resolver, settings grid.Settings) *Expander {
	return &Expander{
		resolver: resolver,
		columns:  settings.WithDefaults().Columns,
	}
}

// Process drops the clones of the previous expansion and expands every
// template again. Panels repeated inside a row clone are expanded per clone,
// each bound to its row's value. The result is sorted by grid position.
func (e *Expander) Process(panels []*panel.Panel) []*panel.Panel {
	list := e.CleanUp(panels)
	ids := panel.NewIDGenerator(list)

	templates := 0
	for i := 0; i < len(list); i++ {
		if list[i].Repeat == "" {
			continue
		}
		templates++
		list = e.expandAt(list, i, ids)
	}

	panel.SortByGridPos(list)
	logging.Debug("Repeat", "Expanded %d templates into %d panels", templates, len(list))
	return list
}

// CleanUp removes and destroys repeat clones, clears scoped variables and
// moves every remaining panel back up by the shift repeats gave it.
func (e *Expander) CleanUp(panels []*panel.Panel) []*panel.Panel {
	list := make([]*panel.Panel, 0, len(panels))
	removed := 0
	for _, p := range panels {
		if p.IsRepeatClone() {
			p.Destroy()
			removed++
			continue
		}
		p.ClearScopedVars()
		for _, child := range p.Panels {
			child.ClearScopedVars()
		}
		if p.RepeatShift != 0 {
			pos := p.GridPos
			pos.Y -= p.RepeatShift
			p.RepeatShift = 0
			p.SetGridPos(pos)
		}
		list = append(list, p)
	}
	panel.SortByGridPos(list)
	if removed > 0 {
		logging.Debug("Repeat", "Removed %d repeat clones", removed)
	}
	return list
}

// ExpandRowMembers expands the repeating panels of an expanded row, as
// needed right after the row is opened.
func (e *Expander) ExpandRowMembers(panels []*panel.Panel, row *panel.Panel) []*panel.Panel {
	rowIndex := panel.IndexOf(panels, row)
	if rowIndex < 0 {
		return panels
	}
	ids := panel.NewIDGenerator(panels)

	for _, member := range panel.RowPanels(panels, rowIndex) {
		if member.Repeat == "" {
			continue
		}
		panels = e.expandAt(panels, panel.IndexOf(panels, member), ids)
	}
	return panels
}

func (e *Expander) expandAt(list []*panel.Panel, idx int, ids *panel.IDGenerator) []*panel.Panel {
	tpl := list[idx]
	values, ok := e.resolver.SelectedValues(tpl.Repeat)
	if !ok {
		logging.Debug("Repeat", "Panel %d repeats over unknown variable %q", tpl.ID, tpl.Repeat)
		return list
	}
	if tpl.IsRow() {
		return e.repeatRow(list, idx, values, ids)
	}
	return e.repeatPanel(list, idx, values, ids)
}

func (e *Expander) repeatPanel(list []*panel.Panel, idx int, values []variables.Option, ids *panel.IDGenerator) []*panel.Panel {
	tpl := list[idx]
	name := tpl.Repeat
	startY := tpl.GridPos.Y
	perRow := maxPerRow(tpl)

	xPos, yPos := 0, startY
	for k, value := range values {
		c := tpl
		if k > 0 {
			c = tpl.Clone()
			c.ID = ids.Next()
			c.RepeatPanelID = tpl.ID
			c.Repeat = ""
			list = slices.Insert(list, idx+k, c)
		}
		c.SetScopedVar(name, scoped(value))

		pos := c.GridPos
		if tpl.RepeatDirection == panel.DirectionVertical {
			if k > 0 {
				yPos += pos.H
			}
			pos.Y = yPos
		} else {
			w := max(e.columns/len(values), e.columns/perRow, 1)
			if k > 0 && xPos+w > e.columns {
				xPos = 0
				yPos += pos.H
			}
			pos.X, pos.Y, pos.W = xPos, yPos, w
			xPos += w
		}
		e.place(c, pos)
	}

	if yOffset := yPos - startY; yOffset > 0 {
		for _, other := range list[idx+len(values):] {
			if grid.SameRow(tpl.GridPos, other.GridPos) {
				continue
			}
			other.ShiftY(yOffset)
		}
	}
	return list
}

func (e *Expander) repeatRow(list []*panel.Panel, idx int, values []variables.Option, ids *panel.IDGenerator) []*panel.Panel {
	row := list[idx]
	name := row.Repeat
	if len(values) == 0 {
		return list
	}

	if row.Collapsed {
		for _, child := range row.Panels {
			child.SetScopedVar(name, scoped(values[0]))
		}
	}
	row.SetScopedVar(name, scoped(values[0]))

	var members []*panel.Panel
	if !row.Collapsed {
		members = panel.RowPanels(list, idx)
		for _, m := range members {
			m.SetScopedVar(name, scoped(values[0]))
		}
	}

	height := blockHeight(row, members)
	if row.Collapsed {
		height = 1
	}

	for k := 1; k < len(values); k++ {
		rowCopy := row.Clone()
		rowCopy.ID = ids.Next()
		rowCopy.RepeatPanelID = row.ID
		rowCopy.Repeat = ""
		rowCopy.SetScopedVar(name, scoped(values[k]))

		pos := rowCopy.GridPos
		pos.Y += height * k
		e.place(rowCopy, pos)

		if row.Collapsed {
			for _, child := range rowCopy.Panels {
				markRowCopy(child, ids.Next())
				child.SetScopedVar(name, scoped(values[k]))
			}
			list = slices.Insert(list, idx+k, rowCopy)
			continue
		}

		insertAt := idx + (len(members)+1)*k
		block := make([]*panel.Panel, 0, len(members)+1)
		block = append(block, rowCopy)
		for _, m := range members {
			c := m.Clone()
			markRowCopy(c, ids.Next())
			c.SetScopedVar(name, scoped(values[k]))
			cpos := c.GridPos
			cpos.Y += height * k
			e.place(c, cpos)
			block = append(block, c)
		}
		list = slices.Insert(list, insertAt, block...)
	}

	end := idx + len(values)
	if !row.Collapsed {
		end = idx + (len(members)+1)*len(values)
	}
	if shift := height * (len(values) - 1); shift > 0 {
		for _, other := range list[end:] {
			other.ShiftY(shift)
		}
	}
	return list
}

// place commits a computed position. Violations are bugs in the layout
// math and are logged, never clamped.
func (e *Expander) place(p *panel.Panel, pos grid.Pos) {
	if err := grid.Validate(pos, e.columns); err != nil {
		logging.Error("Repeat", err, "Panel %d got an invalid position", p.ID)
	}
	p.SetGridPos(pos)
}

// markRowCopy turns a copy of a row member into a clone carrying id.
func markRowCopy(p *panel.Panel, id int) {
	p.RepeatPanelID = p.ID
	p.ID = id
	p.RepeatedByRow = true
	p.Touch()
}

// blockHeight is the height of an expanded row together with its members.
func blockHeight(row *panel.Panel, members []*panel.Panel) int {
	bottom := 0
	for _, m := range members {
		if b := m.GridPos.Bottom(); b > bottom {
			bottom = b
		}
	}
	if h := bottom - row.GridPos.Y; h > 0 {
		return h
	}
	return max(row.GridPos.H, grid.DefaultRowHeaderHeight)
}

func maxPerRow(p *panel.Panel) int {
	switch {
	case p.MaxPerRow == 0:
		return grid.DefaultMaxPerRow
	case p.MaxPerRow < 1:
		return 1
	default:
		return p.MaxPerRow
	}
}

func scoped(o variables.Option) panel.ScopedVar {
	return panel.ScopedVar{Text: o.Text, Value: o.Value}
}
