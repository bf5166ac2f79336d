package panel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashlayout/internal/grid"
)

func TestFromSpec_KnownAndExtraFields(t *testing.T) {
	s := Spec{
		"id":              float64(7),
		"type":            "timeseries",
		"title":           "Requests",
		"gridPos":         map[string]any{"x": float64(2), "y": float64(3), "w": float64(8), "h": float64(4)},
		"repeat":          "host",
		"repeatDirection": "v",
		"maxPerRow":       float64(3),
		"targets":         []any{map[string]any{"expr": "up"}},
	}

	p := FromSpec(s)
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "timeseries", p.Type)
	assert.Equal(t, "Requests", p.Title)
	assert.Equal(t, grid.Pos{X: 2, Y: 3, W: 8, H: 4}, p.GridPos)
	assert.Equal(t, "host", p.Repeat)
	assert.Equal(t, DirectionVertical, p.RepeatDirection)
	assert.Equal(t, 3, p.MaxPerRow)
	require.Contains(t, p.Extra, "targets")

	// Extra is a deep copy.
	s["targets"].([]any)[0].(map[string]any)["expr"] = "down"
	assert.Equal(t, "up", p.Extra["targets"].([]any)[0].(map[string]any)["expr"])
}

func TestFromSpec_DropsNestedRows(t *testing.T) {
	p := FromSpec(Spec{
		"id":        1,
		"type":      TypeRow,
		"collapsed": true,
		"panels": []any{
			map[string]any{"id": 2, "type": "graph"},
			map[string]any{"id": 3, "type": TypeRow},
		},
	})

	require.Len(t, p.Panels, 1)
	assert.Equal(t, 2, p.Panels[0].ID)
	assert.True(t, p.Collapsed)
}

func TestSaveModel_CachedUntilChanged(t *testing.T) {
	p := FromSpec(Spec{"id": 1, "type": "graph", "gridPos": map[string]any{"x": 0, "y": 0, "w": 6, "h": 2}})

	first := p.SaveModel()
	assert.True(t, p.IsOwnSaveModel(first))
	assert.True(t, p.IsOwnSaveModel(p.SaveModel()))

	p.SetGridPos(grid.Pos{X: 0, Y: 0, W: 12, H: 2})
	assert.False(t, p.IsOwnSaveModel(first))

	second := p.SaveModel()
	assert.True(t, p.IsOwnSaveModel(second))
	assert.Equal(t, float64(12), second["gridPos"].(map[string]any)["w"])
}

func TestSaveModel_RowTracksChildChanges(t *testing.T) {
	row := FromSpec(Spec{
		"id": 1, "type": TypeRow, "collapsed": true,
		"panels": []any{map[string]any{"id": 2, "type": "graph"}},
	})

	before := row.SaveModel()
	row.Panels[0].SetSoftField("title", "renamed")
	after := row.SaveModel()

	assert.False(t, row.IsOwnSaveModel(before))
	children := after["panels"].([]any)
	require.Len(t, children, 1)
	assert.Equal(t, "renamed", children[0].(map[string]any)["title"])
}

func TestSaveModel_OmitsZeroSoftFields(t *testing.T) {
	p := FromSpec(Spec{"id": 1, "type": "graph"})

	save := p.SaveModel()
	assert.NotContains(t, save, "title")
	assert.NotContains(t, save, "transparent")

	cmpModel := p.ComparisonModel()
	assert.Equal(t, "", cmpModel["title"])
	assert.Equal(t, false, cmpModel["transparent"])
}

func TestScopedVars_RoundTrip(t *testing.T) {
	p := FromSpec(Spec{"id": 1, "type": "graph"})
	p.SetScopedVar("host", ScopedVar{Text: "a", Value: "a"})
	rev := p.ConfigRev

	p.SetScopedVar("host", ScopedVar{Text: "a", Value: "a"})
	assert.Equal(t, rev, p.ConfigRev, "same binding is not a change")

	clone := p.Clone()
	assert.Equal(t, ScopedVar{Text: "a", Value: "a"}, clone.ScopedVars["host"])
	assert.NotSame(t, p, clone)

	p.ClearScopedVars()
	assert.Nil(t, p.ScopedVars)
	assert.NotContains(t, p.SaveModel(), "scopedVars")
}

func TestDestroy_RunsHooksOnce(t *testing.T) {
	row := FromSpec(Spec{
		"id": 1, "type": TypeRow, "collapsed": true,
		"panels": []any{map[string]any{"id": 2, "type": "graph"}},
	})
	calls := 0
	childCalls := 0
	row.OnDestroy(func() { calls++ })
	row.Panels[0].OnDestroy(func() { childCalls++ })

	row.Destroy()
	row.Destroy()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, childCalls)
	assert.True(t, row.Destroyed())
	assert.True(t, row.Panels[0].Destroyed())
}

func TestIsRepeatClone(t *testing.T) {
	assert.False(t, (&Panel{ID: 1, Repeat: "x"}).IsRepeatClone())
	assert.True(t, (&Panel{ID: 2, RepeatPanelID: 1}).IsRepeatClone())
	assert.True(t, (&Panel{ID: 3, RepeatPanelID: 1, Repeat: "y", RepeatedByRow: true}).IsRepeatClone())
	assert.False(t, (&Panel{ID: 4, RepeatPanelID: 1, Repeat: "y"}).IsRepeatClone())
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil and -Inf", nil, math.Inf(-1), true},
		{"+Inf and -Inf", math.Inf(1), math.Inf(-1), true},
		{"nil and 0", nil, float64(0), false},
		{"int and float", 3, float64(3), true},
		{"different numbers", 3, 4.5, false},
		{"strings", "a", "a", true},
		{"string and number", "1", 1, false},
		{"nested threshold", map[string]any{"steps": []any{map[string]any{"value": nil}}},
			map[string]any{"steps": []any{map[string]any{"value": math.Inf(-1)}}}, true},
		{"missing key is not nil", map[string]any{"a": 1, "b": nil}, map[string]any{"a": 1}, false},
		{"nested missing key", map[string]any{"o": map[string]any{"a": 1}},
			map[string]any{"o": map[string]any{"a": 1, "b": math.Inf(1)}}, false},
		{"missing key with value", map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}, false},
		{"slice length", []any{1}, []any{1, 2}, false},
		{"bools", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValuesEqual(tt.a, tt.b))
			assert.Equal(t, tt.want, ValuesEqual(tt.b, tt.a), "symmetric")
		})
	}
}

func TestIDs_ScanNestedPanels(t *testing.T) {
	panels := FromSpecs([]Spec{
		{"id": 1, "type": "graph"},
		{"id": 2, "type": TypeRow, "collapsed": true, "panels": []any{map[string]any{"id": 9, "type": "graph"}}},
	})
	assert.Equal(t, 9, MaxID(panels))
	assert.Equal(t, 10, NextID(panels))

	gen := NewIDGenerator(panels, []Spec{{"id": 12}})
	assert.Equal(t, 13, gen.Next())
	assert.Equal(t, 14, gen.Next())
}

func TestRowPanelsAndSort(t *testing.T) {
	panels := FromSpecs([]Spec{
		{"id": 1, "type": TypeRow, "gridPos": map[string]any{"x": 0, "y": 0, "w": 24, "h": 1}},
		{"id": 2, "type": "graph", "gridPos": map[string]any{"x": 12, "y": 1, "w": 12, "h": 2}},
		{"id": 3, "type": "graph", "gridPos": map[string]any{"x": 0, "y": 1, "w": 12, "h": 2}},
		{"id": 4, "type": TypeRow, "gridPos": map[string]any{"x": 0, "y": 3, "w": 24, "h": 1}},
		{"id": 5, "type": "graph", "gridPos": map[string]any{"x": 0, "y": 4, "w": 24, "h": 2}},
	})

	members := RowPanels(panels, 0)
	require.Len(t, members, 2)
	assert.Equal(t, 2, members[0].ID)

	SortByGridPos(panels)
	var ids []int
	for _, p := range panels {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{1, 3, 2, 4, 5}, ids)
	assert.Equal(t, 2, IndexOf(panels, FindByID(panels, 2)))
}

func TestValidateTree(t *testing.T) {
	good := FromSpecs([]Spec{
		{"id": 1, "type": "graph", "gridPos": map[string]any{"x": 0, "y": 0, "w": 24, "h": 2}},
	})
	assert.NoError(t, ValidateTree(good, grid.DefaultColumns))

	dup := FromSpecs([]Spec{
		{"id": 1, "type": "graph", "gridPos": map[string]any{"x": 0, "y": 0, "w": 12, "h": 2}},
		{"id": 2, "type": TypeRow, "collapsed": true, "gridPos": map[string]any{"x": 0, "y": 2, "w": 24, "h": 1},
			"panels": []any{map[string]any{"id": 1, "type": "graph", "gridPos": map[string]any{"x": 0, "y": 3, "w": 30, "h": 2}}}},
	})
	err := ValidateTree(dup, grid.DefaultColumns)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.ErrorIs(t, err, grid.ErrOutOfBounds)

	nested := &Panel{ID: 1, Type: TypeRow, GridPos: grid.Pos{W: 24, H: 1},
		Panels: []*Panel{{ID: 2, Type: TypeRow, GridPos: grid.Pos{W: 24, H: 1}}}}
	assert.ErrorIs(t, ValidateTree([]*Panel{nested}, grid.DefaultColumns), ErrNestedRow)
}

func TestSetSoftField_GridPos(t *testing.T) {
	p := FromSpec(Spec{"id": 1, "type": "graph", "gridPos": map[string]any{"x": 0, "y": 2, "w": 6, "h": 2}})
	p.ShiftY(3)
	require.Equal(t, 3, p.RepeatShift)

	assert.True(t, p.SetSoftField("gridPos", map[string]any{"x": 12, "y": 0, "w": 12, "h": 3}))
	assert.Equal(t, grid.Pos{X: 12, Y: 0, W: 12, H: 3}, p.GridPos)
	assert.Zero(t, p.RepeatShift)

	rev := p.ConfigRev
	assert.False(t, p.SetSoftField("gridPos", map[string]any{"x": 20, "y": 0, "w": 12}))
	assert.Equal(t, grid.Pos{X: 12, Y: 0, W: 12, H: 3}, p.GridPos)
	assert.Equal(t, rev, p.ConfigRev)
}

func TestParseGridPos(t *testing.T) {
	pos, err := ParseGridPos(map[string]any{"x": float64(1), "y": 2, "w": 3, "h": 4})
	require.NoError(t, err)
	assert.Equal(t, grid.Pos{X: 1, Y: 2, W: 3, H: 4}, pos)

	_, err = ParseGridPos(map[string]any{"x": 1, "y": 2, "w": 3})
	assert.ErrorIs(t, err, ErrMalformedGridPos)
	_, err = ParseGridPos(map[string]any{"x": "1", "y": 2, "w": 3, "h": 4})
	assert.ErrorIs(t, err, ErrMalformedGridPos)
	_, err = ParseGridPos("0,0,1,1")
	assert.ErrorIs(t, err, ErrMalformedGridPos)
}

func TestFromSpec_KeepsWrongTypedDisplayFields(t *testing.T) {
	p := FromSpec(Spec{"id": 1, "type": "text", "title": float64(5), "transparent": "yes", "description": "d"})

	assert.Empty(t, p.Title)
	assert.False(t, p.Transparent)
	assert.Equal(t, "d", p.Description)

	saved := p.SaveModel()
	assert.Equal(t, float64(5), saved["title"])
	assert.Equal(t, "yes", saved["transparent"])
	assert.Equal(t, "d", saved["description"])

	cmp := p.ComparisonModel()
	assert.Equal(t, float64(5), cmp["title"])

	require.True(t, p.SetSoftField("title", "Text"))
	assert.Equal(t, "Text", p.Title)
	assert.Equal(t, "Text", p.SaveModel()["title"])
	assert.NotContains(t, p.Extra, "title")
}
