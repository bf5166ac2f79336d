package merge

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashlayout/internal/grid"
	"dashlayout/internal/panel"
)

func pos(x, y, w, h int) map[string]any {
	return map[string]any{"x": x, "y": y, "w": w, "h": h}
}

func live(specs ...panel.Spec) []*panel.Panel {
	return panel.FromSpecs(specs)
}

func TestMerge_SoftUpdateKeepsIdentity(t *testing.T) {
	current := live(panel.Spec{"id": 1, "type": "timeseries", "gridPos": pos(0, 0, 6, 2)})
	before := current[0]
	rev := before.ConfigRev

	res := Merge(current, []panel.Spec{{"id": 1, "type": "timeseries", "gridPos": pos(0, 0, 12, 2)}})

	assert.True(t, res.Changed)
	assert.Equal(t, []int{1}, res.Actions.Update)
	require.Len(t, res.Panels, 1)
	assert.Same(t, before, res.Panels[0])
	assert.Equal(t, grid.Pos{X: 0, Y: 0, W: 12, H: 2}, before.GridPos)
	assert.Greater(t, before.ConfigRev, rev)
	assert.False(t, before.Destroyed())
}

func TestMerge_TypeChangeReplaces(t *testing.T) {
	current := live(panel.Spec{"id": 2, "type": "timeseries"})
	old := current[0]
	destroyed := 0
	old.OnDestroy(func() { destroyed++ })

	res := Merge(current, []panel.Spec{{"id": 2, "type": "table"}})

	assert.True(t, res.Changed)
	assert.Equal(t, []int{2}, res.Actions.Replace)
	require.Len(t, res.Panels, 1)
	assert.NotSame(t, old, res.Panels[0])
	assert.Equal(t, "table", res.Panels[0].Type)
	assert.True(t, strings.HasPrefix(res.Panels[0].Key, "panel-2-"))
	assert.Equal(t, 1, destroyed)
}

func TestMerge_HardFieldReplaces(t *testing.T) {
	current := live(panel.Spec{"id": 3, "type": "graph", "title": "A", "targets": []any{map[string]any{"expr": "up"}}})

	res := Merge(current, []panel.Spec{{"id": 3, "type": "graph", "title": "B", "targets": []any{map[string]any{"expr": "down"}}}})

	assert.Equal(t, []int{3}, res.Actions.Replace)
	assert.Empty(t, res.Actions.Update)
	assert.Equal(t, "B", res.Panels[0].Title)
	assert.True(t, current[0].Destroyed())
}

func TestMerge_ReplacementKeysAreUnique(t *testing.T) {
	first := Merge(live(panel.Spec{"id": 1, "type": "a"}), []panel.Spec{{"id": 1, "type": "b"}})
	second := Merge(first.Panels, []panel.Spec{{"id": 1, "type": "a"}})
	assert.NotEqual(t, first.Panels[0].Key, second.Panels[0].Key)
}

func TestMerge_InfinityEqualsNull(t *testing.T) {
	current := live(panel.Spec{
		"id": 1, "type": "stat",
		"thresholds": map[string]any{"steps": []any{map[string]any{"value": math.Inf(-1), "color": "green"}}},
	})

	res := Merge(current, []panel.Spec{{
		"id": 1, "type": "stat",
		"thresholds": map[string]any{"steps": []any{map[string]any{"value": nil, "color": "green"}}},
	}})

	assert.False(t, res.Changed)
	assert.Equal(t, []int{1}, res.Actions.Noop)
	assert.Same(t, current[0], res.Panels[0])
}

func TestMerge_OwnSaveModelIsNoop(t *testing.T) {
	current := live(panel.Spec{"id": 1, "type": "graph", "gridPos": pos(0, 0, 8, 2)})
	rev := current[0].ConfigRev

	res := Merge(current, []panel.Spec{current[0].SaveModel()})

	assert.False(t, res.Changed)
	assert.Equal(t, []int{1}, res.Actions.Noop)
	assert.Equal(t, rev, current[0].ConfigRev)
}

func TestMerge_ZeroValuedSoftFieldsAreNoop(t *testing.T) {
	current := live(panel.Spec{"id": 1, "type": "graph"})

	res := Merge(current, []panel.Spec{{"id": 1, "type": "graph", "title": "", "transparent": false}})
	assert.False(t, res.Changed)
}

func TestMerge_AddRemoveAndOrder(t *testing.T) {
	current := live(
		panel.Spec{"id": 1, "type": "graph"},
		panel.Spec{"id": 2, "type": "graph"},
	)
	removed := current[0]

	res := Merge(current, []panel.Spec{
		{"id": 3, "type": "text"},
		{"id": 2, "type": "graph"},
	})

	assert.True(t, res.Changed)
	assert.Equal(t, []int{1}, res.Actions.Remove)
	assert.Equal(t, []int{2}, res.Actions.Noop)
	assert.Equal(t, []int{3}, res.Actions.Add)
	require.Len(t, res.Panels, 2)
	assert.Equal(t, 2, res.Panels[0].ID)
	assert.Equal(t, 3, res.Panels[1].ID)
	assert.True(t, removed.Destroyed())
}

func TestMerge_AssignsFreeIDs(t *testing.T) {
	current := live(
		panel.Spec{"id": 5, "type": panel.TypeRow, "collapsed": true,
			"panels": []any{map[string]any{"id": 9, "type": "graph"}}},
	)

	res := Merge(current, []panel.Spec{
		{"id": 5, "type": panel.TypeRow, "collapsed": true, "panels": []any{map[string]any{"id": 9, "type": "graph"}}},
		{"type": "text"},
		{"id": 7, "type": "text"},
		{"id": 0, "type": "text"},
	})

	assert.Equal(t, []int{10, 7, 11}, res.Actions.Add)
	seen := map[int]bool{}
	panel.Walk(res.Panels, func(p *panel.Panel) {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	})
}

func TestMerge_EmptyIncomingRemovesEverything(t *testing.T) {
	current := live(panel.Spec{"id": 1, "type": "graph"}, panel.Spec{"id": 2, "type": "graph"})

	res := Merge(current, nil)

	assert.True(t, res.Changed)
	assert.Equal(t, []int{1, 2}, res.Actions.Remove)
	assert.Empty(t, res.Panels)

	res = Merge(nil, nil)
	assert.False(t, res.Changed)
}

func TestMerge_OnlyIncomingFieldsAreCompared(t *testing.T) {
	current := live(panel.Spec{"id": 1, "type": "graph", "title": "kept", "options": map[string]any{"legend": true}})

	res := Merge(current, []panel.Spec{{"id": 1, "type": "graph"}})

	assert.False(t, res.Changed)
	assert.Equal(t, "kept", res.Panels[0].Title)
}

func TestMerge_InvalidGridPosKeepsLivePosition(t *testing.T) {
	tests := []struct {
		name    string
		gridPos map[string]any
		opts    []Option
	}{
		{"missing height", map[string]any{"x": 20, "y": 0, "w": 12}, nil},
		{"past the last column", pos(20, 0, 12, 2), nil},
		{"narrow grid", pos(6, 0, 6, 2), []Option{WithColumns(8)}},
		{"negative origin", pos(0, -1, 6, 2), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := live(panel.Spec{"id": 1, "type": "graph", "gridPos": pos(0, 0, 6, 2)})

			res := Merge(current, []panel.Spec{{"id": 1, "type": "graph", "gridPos": tt.gridPos}}, tt.opts...)

			assert.False(t, res.Changed)
			assert.Equal(t, []int{1}, res.Actions.Noop)
			assert.Equal(t, grid.Pos{X: 0, Y: 0, W: 6, H: 2}, current[0].GridPos)
			assert.NoError(t, panel.ValidateTree(res.Panels, grid.DefaultColumns))
		})
	}
}

func TestMerge_InvalidGridPosDoesNotBlockOtherSoftFields(t *testing.T) {
	current := live(panel.Spec{"id": 1, "type": "graph", "gridPos": pos(0, 0, 6, 2)})

	res := Merge(current, []panel.Spec{{"id": 1, "type": "graph", "title": "New", "gridPos": pos(30, 0, 6, 2)}})

	assert.Equal(t, []int{1}, res.Actions.Update)
	assert.Equal(t, "New", current[0].Title)
	assert.Equal(t, grid.Pos{X: 0, Y: 0, W: 6, H: 2}, current[0].GridPos)
}

func TestMerge_WrongTypedTitleSettles(t *testing.T) {
	current := live(panel.Spec{"id": 1, "type": "text", "title": "Old"})
	incoming := []panel.Spec{{"id": 1, "type": "text", "title": float64(5)}}

	first := Merge(current, incoming)
	assert.Equal(t, []int{1}, first.Actions.Update)
	assert.Equal(t, float64(5), first.Panels[0].SaveModel()["title"])

	second := Merge(first.Panels, incoming)
	assert.False(t, second.Changed)
	assert.Equal(t, []int{1}, second.Actions.Noop)
}

func TestMerge_NestedKeySetDifferenceReplaces(t *testing.T) {
	current := live(panel.Spec{"id": 1, "type": "graph", "options": map[string]any{"legend": true}})

	res := Merge(current, []panel.Spec{{"id": 1, "type": "graph", "options": map[string]any{"legend": true, "tooltip": nil}}})

	assert.Equal(t, []int{1}, res.Actions.Replace)
	assert.True(t, current[0].Destroyed())
}

func TestIsSoftField(t *testing.T) {
	for _, key := range []string{"gridPos", "title", "description", "transparent"} {
		assert.True(t, IsSoftField(key), key)
	}
	for _, key := range []string{"type", "targets", "options", "repeat", "fieldConfig", "id"} {
		assert.False(t, IsSoftField(key), key)
	}
}
