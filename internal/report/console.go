package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"dashlayout/internal/color"
	"dashlayout/internal/merge"
	"dashlayout/internal/migration"
	"dashlayout/internal/panel"
)

const (
	maxTitleWidth = 32
	maxMapRows    = 60
	mapGlyphs     = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ConsoleReporter prints styled, human-readable summaries.
type ConsoleReporter struct {
	w       io.Writer
	columns int
}

// NewConsoleReporter creates a reporter for a grid columns wide.
func NewConsoleReporter(w io.Writer, columns int) *ConsoleReporter {
	return &ConsoleReporter{w: w, columns: columns}
}

func (r *ConsoleReporter) Layout(title string, panels []*panel.Panel) error {
	if title == "" {
		title = "Layout"
	}
	fmt.Fprintln(r.w, color.TitleStyle.Render(title))

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "TYPE", "POS", "TITLE", "REPEAT"})
	panel.Walk(panels, func(p *panel.Panel) {
		t.AppendRow(panelRow(p, panels))
	})
	t.Render()

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, color.HeaderStyle.Render("Grid"))
	_, err := fmt.Fprint(r.w, Minimap(panels, r.columns))
	return err
}

func panelRow(p *panel.Panel, top []*panel.Panel) table.Row {
	id := strconv.Itoa(p.ID)
	if panel.IndexOf(top, p) < 0 {
		id = "  " + id // child of a collapsed row
	}

	typ := p.Type
	if p.IsRow() && p.Collapsed {
		typ += " (collapsed)"
	}

	var repeat string
	switch {
	case p.Repeat != "":
		repeat = "$" + p.Repeat
		if p.RepeatDirection != "" {
			repeat += " " + string(p.RepeatDirection)
		}
	case p.RepeatPanelID != 0:
		repeat = "clone of " + strconv.Itoa(p.RepeatPanelID)
	}
	if len(p.ScopedVars) > 0 {
		var binds []string
		for name, sv := range p.ScopedVars {
			binds = append(binds, name+"="+sv.Text)
		}
		sort.Strings(binds)
		repeat = strings.TrimSpace(repeat + " [" + strings.Join(binds, ",") + "]")
	}

	return table.Row{id, typ, p.GridPos.String(), runewidth.Truncate(p.Title, maxTitleWidth, "…"), repeat}
}

func (r *ConsoleReporter) Merge(res merge.Result) error {
	state := color.MutedStyle.Render("unchanged")
	if res.Changed {
		state = color.SuccessStyle.Render("changed")
	}
	fmt.Fprintf(r.w, "%s %s\n", color.TitleStyle.Render("Reconcile:"), state)

	for _, a := range []struct {
		name string
		ids  []int
	}{
		{"add", res.Actions.Add},
		{"remove", res.Actions.Remove},
		{"replace", res.Actions.Replace},
		{"update", res.Actions.Update},
		{"noop", res.Actions.Noop},
	} {
		label := color.ActionStyle(a.name).Render(runewidth.FillRight(a.name, 8))
		fmt.Fprintf(r.w, "  %s %s\n", label, formatIDs(a.ids))
	}
	return nil
}

func (r *ConsoleReporter) Migration(res migration.Result, err error) error {
	fmt.Fprintln(r.w, color.TitleStyle.Render("Migration"))
	fmt.Fprintf(r.w, "  rows packed   %d\n", res.PackedRows)
	fmt.Fprintf(r.w, "  rows skipped  %d\n", res.SkippedRows)
	aborted := strconv.Itoa(res.AbortedRows)
	if res.AbortedRows > 0 {
		aborted = color.WarningStyle.Render(aborted)
	}
	fmt.Fprintf(r.w, "  rows aborted  %s\n", aborted)
	fmt.Fprintf(r.w, "  panels        %d\n", len(res.Panels))
	for _, p := range Problems(err) {
		fmt.Fprintf(r.w, "  %s %s\n", color.WarningStyle.Render("!"), p)
	}
	return nil
}

func (r *ConsoleReporter) Validation(err error) error {
	problems := Problems(err)
	if len(problems) == 0 {
		_, werr := fmt.Fprintln(r.w, color.SuccessStyle.Render("✓ layout is valid"))
		return werr
	}
	fmt.Fprintln(r.w, color.ErrorStyle.Render(fmt.Sprintf("✗ %d problem(s)", len(problems))))
	for _, p := range problems {
		fmt.Fprintf(r.w, "  - %s\n", p)
	}
	return nil
}

func formatIDs(ids []int) string {
	if len(ids) == 0 {
		return color.MutedStyle.Render("-")
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

// Minimap draws the top-level panels on the grid, one character per cell.
// Rows are drawn as '=', overlapping cells as '#', and empty cells as '.'.
func Minimap(panels []*panel.Panel, columns int) string {
	if columns <= 0 {
		return ""
	}
	height := 0
	for _, p := range panels {
		height = max(height, p.GridPos.Bottom())
	}
	height = min(height, maxMapRows)

	cells := make([][]rune, height)
	for y := range cells {
		cells[y] = []rune(strings.Repeat(".", columns))
	}

	for i, p := range panels {
		glyph := rune(mapGlyphs[i%len(mapGlyphs)])
		if p.IsRow() {
			glyph = '='
		}
		pos := p.GridPos
		for y := max(pos.Y, 0); y < min(pos.Bottom(), height); y++ {
			for x := max(pos.X, 0); x < min(pos.Right(), columns); x++ {
				if cells[y][x] == '.' {
					cells[y][x] = glyph
				} else {
					cells[y][x] = '#'
				}
			}
		}
	}

	var b strings.Builder
	for _, row := range cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}
