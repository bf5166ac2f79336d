package migration

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"dashlayout/internal/grid"
	"dashlayout/internal/panel"
	"dashlayout/pkg/logging"
)

// LegacyRow is a row of a pre-grid dashboard. Its panels are sized with
// 12-column spans and pixel heights.
type LegacyRow struct {
	Title           string       `json:"title,omitempty"`
	ShowTitle       bool         `json:"showTitle,omitempty"`
	Collapse        bool         `json:"collapse,omitempty"`
	Repeat          string       `json:"repeat,omitempty"`
	RepeatIteration any          `json:"repeatIteration,omitempty"`
	Height          any          `json:"height,omitempty"`
	Panels          []panel.Spec `json:"panels"`
}

// isRepeatIteration reports whether the row is a saved copy of a repeated
// row. Those are regenerated by repeat expansion and not migrated.
func (r LegacyRow) isRepeatIteration() bool {
	switch v := r.RepeatIteration.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		n, ok := panel.Number(v)
		return !ok || n != 0
	}
}

// ParseRows decodes a JSON array of legacy rows.
func ParseRows(data []byte) ([]LegacyRow, error) {
	var rows []LegacyRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding legacy rows: %w", err)
	}
	return rows, nil
}

// Result is the outcome of PackLegacyRows.
type Result struct {
	Panels      []*panel.Panel
	PackedRows  int
	SkippedRows int
	AbortedRows int
}

// PackLegacyRows converts legacy rows into a flat grid panel list. Row
// panels are emitted when any row is collapsed, titled or repeated. A row
// holding a panel that cannot be placed is left out entirely; the others
// still migrate and the failures are returned joined with the partial
// result.
func PackLegacyRows(rows []LegacyRow, settings grid.Settings) (Result, error) {
	settings = settings.WithDefaults()

	var res Result
	var errs []error

	showRows := false
	maxID := 0
	for _, row := range rows {
		if row.Collapse || row.ShowTitle || row.Repeat != "" {
			showRows = true
		}
		if id := panel.MaxSpecID(row.Panels); id > maxID {
			maxID = id
		}
	}
	nextID := maxID + 1

	yPos := 0
	for i, row := range rows {
		if row.isRepeatIteration() {
			res.SkippedRows++
			continue
		}

		packed, nextY, err := packRow(row, yPos, showRows, &nextID, settings)
		if err != nil {
			err = fmt.Errorf("row %d (%q): %w", i, row.Title, err)
			logging.Warn("Migration", "Skipping legacy row %d %q: %v", i, row.Title, err)
			errs = append(errs, err)
			res.AbortedRows++
			continue
		}
		res.Panels = append(res.Panels, packed...)
		res.PackedRows++
		yPos = nextY
	}

	logging.Debug("Migration", "Packed %d rows into %d panels (%d skipped, %d aborted)",
		res.PackedRows, len(res.Panels), res.SkippedRows, res.AbortedRows)
	return res, errors.Join(errs...)
}

// packRow places one row starting at yPos and returns its panels in output
// order together with the y where the next row starts.
func packRow(row LegacyRow, yPos int, showRows bool, nextID *int, s grid.Settings) ([]*panel.Panel, int, error) {
	rowHeightPx, ok := grid.ParsePixels(row.Height)
	if !ok || rowHeightPx == 0 {
		rowHeightPx = s.DefaultRowHeight
	}
	rowGridHeight := s.HeightFromPixels(rowHeightPx)

	// The header is one unit tall and its members start right below it.
	var rowPanel *panel.Panel
	if showRows {
		rowPanel = &panel.Panel{
			ID:        *nextID,
			Type:      panel.TypeRow,
			Title:     row.Title,
			Collapsed: row.Collapse,
			Repeat:    row.Repeat,
			GridPos:   grid.Pos{X: 0, Y: yPos, W: s.Columns, H: grid.DefaultRowHeaderHeight},
		}
		*nextID++
		yPos++
	}

	area := NewRowArea(rowGridHeight, s.Columns, yPos)
	var out []*panel.Panel

	for _, spec := range row.Panels {
		p := legacyPanel(spec, nextID, s)

		width := s.LegacyWidth(spanOf(spec, s))
		height := rowGridHeight
		if px, ok := grid.ParsePixels(spec["height"]); ok && px != 0 {
			height = s.HeightFromPixels(px)
		}

		x, y, err := area.GetPanelPosition(height, width)
		if err != nil {
			return nil, 0, fmt.Errorf("panel %d (w=%d h=%d): %w", p.ID, width, height, err)
		}
		yPos = area.YPos()

		pos := grid.Pos{X: x, Y: yPos + y, W: width, H: height}
		if err := grid.Validate(pos, s.Columns); err != nil {
			return nil, 0, fmt.Errorf("panel %d: %w", p.ID, err)
		}
		p.GridPos = pos
		area.AddPanel(pos)

		if rowPanel != nil && rowPanel.Collapsed {
			rowPanel.Panels = append(rowPanel.Panels, p)
		} else {
			out = append(out, p)
		}
	}

	if rowPanel != nil {
		// The header is pushed after its members.
		out = append(out, rowPanel)
	}
	if rowPanel == nil || !rowPanel.Collapsed {
		yPos += rowGridHeight
	}
	return out, yPos, nil
}

// legacyPanel converts a legacy panel record: the span goes away, minSpan is
// scaled to the grid and a missing id is filled in.
func legacyPanel(spec panel.Spec, nextID *int, s grid.Settings) *panel.Panel {
	rec := make(panel.Spec, len(spec))
	for k, v := range spec {
		if k == "span" {
			continue
		}
		rec[k] = v
	}
	if minSpan, ok := panel.Number(spec["minSpan"]); ok && minSpan > 0 {
		rec["minSpan"] = math.Min(float64(s.Columns), float64(s.Columns)/grid.LegacyColumns*minSpan)
	}

	p := panel.FromSpec(rec)
	if p.ID == 0 {
		p.ID = *nextID
		*nextID++
	}
	return p
}

func spanOf(spec panel.Spec, s grid.Settings) float64 {
	if span, ok := panel.Number(spec["span"]); ok && span > 0 {
		return span
	}
	return s.DefaultPanelSpan
}
