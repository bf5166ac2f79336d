package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashlayout/internal/merge"
	"dashlayout/internal/panel"
	"dashlayout/internal/variables"
)

const legacyDoc = `{
  "schemaVersion": 14,
  "title": "Legacy",
  "rows": [
    {"title": "A", "showTitle": true, "height": 150, "panels": [{"id": 1, "type": "graph", "span": 6}, {"id": 2, "type": "graph", "span": 6}]},
    {"title": "B", "collapse": true, "panels": [{"id": 3, "type": "table", "span": 12}]}
  ]
}`

const brokenLegacyDoc = `{"schemaVersion": 10, "rows": [
  {"panels": [{"id": 1, "type": "graph", "span": 14}]},
  {"panels": [{"id": 2, "type": "graph"}]}
]}`

const repeatDoc = `{
  "schemaVersion": 39,
  "title": "Services",
  "panels": [
    {"id": 1, "type": "row", "title": "Apps", "gridPos": {"x": 0, "y": 0, "w": 24, "h": 1}},
    {"id": 2, "type": "timeseries", "gridPos": {"x": 0, "y": 1, "w": 8, "h": 2}, "repeat": "apps", "repeatDirection": "v"},
    {"id": 3, "type": "row", "title": "Other", "gridPos": {"x": 0, "y": 3, "w": 24, "h": 1}},
    {"id": 4, "type": "stat", "gridPos": {"x": 0, "y": 4, "w": 12, "h": 3}}
  ]
}`

const appsVariables = `
variables:
  - name: apps
    options:
      - {text: api, value: api, selected: true}
      - {text: web, value: web}
      - {text: worker, value: worker}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type layout struct {
	SchemaVersion int          `json:"schemaVersion"`
	Title         string       `json:"title"`
	Panels        []panel.Spec `json:"panels"`
}

func decodeLayout(t *testing.T, out string) layout {
	t.Helper()
	var l layout
	require.NoError(t, json.Unmarshal([]byte(out), &l), out)
	return l
}

func TestMigrate_JSON(t *testing.T) {
	stdout, _, err := execute(t, "", "migrate", writeFile(t, "legacy.json", legacyDoc), "-o", "json")
	require.NoError(t, err)

	l := decodeLayout(t, stdout)
	assert.Equal(t, 16, l.SchemaVersion)
	assert.Equal(t, "Legacy", l.Title)
	assert.Len(t, l.Panels, 4)
}

func TestMigrate_Summary(t *testing.T) {
	stdout, _, err := execute(t, "", "migrate", writeFile(t, "legacy.json", legacyDoc))
	require.NoError(t, err)
	assert.Contains(t, stdout, "rows packed   2")
	assert.Contains(t, stdout, "Legacy")
}

func TestMigrate_Stdin(t *testing.T) {
	stdout, _, err := execute(t, legacyDoc, "migrate", "-", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeLayout(t, stdout).Panels, 4)
}

func TestMigrate_GridDocument(t *testing.T) {
	_, _, err := execute(t, "", "migrate", writeFile(t, "grid.json", repeatDoc))
	assert.ErrorIs(t, err, errNothingToMigrate)
}

func TestMigrate_PartialFailure(t *testing.T) {
	path := writeFile(t, "broken.json", brokenLegacyDoc)

	stdout, stderr, err := execute(t, "", "migrate", path, "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeLayout(t, stdout).Panels, 1)
	assert.Contains(t, stderr, "could not be migrated")

	_, _, err = execute(t, "", "migrate", path, "-o", "json", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration incomplete")
}

func TestMigrate_MissingFile(t *testing.T) {
	_, _, err := execute(t, "", "migrate", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
}

func TestExpand(t *testing.T) {
	doc := writeFile(t, "dash.json", repeatDoc)
	vars := writeFile(t, "vars.yaml", appsVariables)

	stdout, _, err := execute(t, "", "expand", doc, "--vars", vars, "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeLayout(t, stdout).Panels, 4, "one value selected")

	stdout, _, err = execute(t, "", "expand", doc, "--vars", vars, "--select", "apps=api,web,worker", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeLayout(t, stdout).Panels, 6)
}

func TestExpand_PartialMigration(t *testing.T) {
	stdout, stderr, err := execute(t, "", "expand", writeFile(t, "broken.json", brokenLegacyDoc), "-o", "json")
	require.NoError(t, err)

	l := decodeLayout(t, stdout)
	assert.Equal(t, 16, l.SchemaVersion)
	require.Len(t, l.Panels, 1)
	assert.Equal(t, 2, l.Panels[0].ID())
	assert.Contains(t, stderr, "without the rows migration left out")
}

func TestValidate_Overlaps(t *testing.T) {
	path := writeFile(t, "overlap.json", `{"schemaVersion": 39, "panels": [
	  {"id": 1, "type": "graph", "gridPos": {"x": 0, "y": 0, "w": 12, "h": 4}},
	  {"id": 2, "type": "text", "gridPos": {"x": 6, "y": 2, "w": 12, "h": 4}}
	]}`)

	stdout, _, err := execute(t, "", "validate", path, "-o", "json")
	assert.ErrorIs(t, err, errInvalidLayout)
	assert.Contains(t, stdout, "panels overlap")
}

func TestExpand_UnknownVariable(t *testing.T) {
	doc := writeFile(t, "dash.json", repeatDoc)
	vars := writeFile(t, "vars.yaml", appsVariables)

	_, _, err := execute(t, "", "expand", doc, "--vars", vars, "--select", "region=eu")
	assert.ErrorIs(t, err, variables.ErrUnknownVariable)
}

func TestExpand_WithoutVariablesLeavesTemplate(t *testing.T) {
	stdout, _, err := execute(t, "", "expand", writeFile(t, "dash.json", repeatDoc), "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeLayout(t, stdout).Panels, 4)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in         string
		wantName   string
		wantValues []string
		wantErr    bool
	}{
		{"region=eu,us", "region", []string{"eu", "us"}, false},
		{" region = eu , ", "region", []string{"eu"}, false},
		{"region=", "region", nil, false},
		{"region", "", nil, true},
		{"=eu", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, values, err := parseSelection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantValues, values)
		})
	}
}

func TestReconcile(t *testing.T) {
	live := writeFile(t, "live.json", `[
	  {"id": 1, "type": "graph", "title": "a", "gridPos": {"x": 0, "y": 0, "w": 12, "h": 4}},
	  {"id": 2, "type": "text", "gridPos": {"x": 12, "y": 0, "w": 12, "h": 4}}
	]`)
	incoming := writeFile(t, "incoming.json", `{"schemaVersion": 39, "panels": [
	  {"id": 1, "type": "table", "title": "a", "gridPos": {"x": 0, "y": 0, "w": 12, "h": 4}},
	  {"id": 2, "type": "text", "gridPos": {"x": 12, "y": 0, "w": 12, "h": 4}}
	]}`)

	stdout, _, err := execute(t, "", "reconcile", live, incoming, "-o", "json")
	require.NoError(t, err)

	var out struct {
		Changed bool          `json:"changed"`
		Actions merge.Actions `json:"actions"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.True(t, out.Changed)
	assert.Equal(t, []int{1}, out.Actions.Replace)
	assert.Equal(t, []int{2}, out.Actions.Noop)

	stdout, _, err = execute(t, "", "reconcile", live, incoming)
	require.NoError(t, err)
	assert.Contains(t, stdout, "replace")
}

func TestValidate(t *testing.T) {
	stdout, _, err := execute(t, "", "validate", writeFile(t, "dash.json", repeatDoc))
	require.NoError(t, err)
	assert.Contains(t, stdout, "layout is valid")

	broken := writeFile(t, "broken.json", `{"schemaVersion": 39, "panels": [
	  {"id": 1, "type": "graph", "gridPos": {"x": 20, "y": 0, "w": 8, "h": 4}}
	]}`)
	stdout, _, err = execute(t, "", "validate", broken, "-o", "json")
	assert.ErrorIs(t, err, errInvalidLayout)

	var out struct {
		Valid    bool     `json:"valid"`
		Problems []string `json:"problems"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.False(t, out.Valid)
	require.Len(t, out.Problems, 1)
	assert.Contains(t, out.Problems[0], "exceeds 24 columns")
}

func TestValidate_LegacyDocumentWithAbortedRow(t *testing.T) {
	_, _, err := execute(t, "", "validate", writeFile(t, "broken.json", brokenLegacyDoc))
	assert.ErrorIs(t, err, errInvalidLayout)
}
