package report

import (
	"encoding/json"
	"fmt"
	"io"

	"dashlayout/internal/config"
	"dashlayout/internal/dashboard"
	"dashlayout/internal/merge"
	"dashlayout/internal/migration"
	"dashlayout/internal/panel"
)

// Reporter renders engine results.
type Reporter interface {
	// Layout prints a panel tree.
	Layout(title string, panels []*panel.Panel) error
	// Merge prints the outcome of a reconciliation.
	Merge(res merge.Result) error
	// Migration prints the outcome of a legacy row migration.
	Migration(res migration.Result, err error) error
	// Validation prints the problems found in a layout, if any.
	Validation(err error) error
}

// New returns the reporter for an output format.
func New(format config.OutputFormat, w io.Writer, columns int) Reporter {
	if format == config.OutputJSON {
		return &JSONReporter{w: w}
	}
	return NewConsoleReporter(w, columns)
}

// LayoutJSON encodes panels as an indented dashboard document. Repeat
// clones are kept: the document shows the layout as rendered.
func LayoutJSON(title string, panels []*panel.Panel) ([]byte, error) {
	data, err := json.MarshalIndent(LayoutDocument(title, panels), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding layout: %w", err)
	}
	return data, nil
}

// LayoutDocument wraps the live panels, repeat clones included, in a grid
// layout document.
func LayoutDocument(title string, panels []*panel.Panel) dashboard.Document {
	return dashboard.Document{
		SchemaVersion: dashboard.GridLayoutSchemaVersion,
		Title:         title,
		Panels:        panel.SaveModels(panels),
	}
}

// Problems flattens joined errors into one message per problem.
func Problems(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, Problems(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

// JSONReporter writes results as JSON documents.
type JSONReporter struct {
	w io.Writer
}

func (r *JSONReporter) Layout(title string, panels []*panel.Panel) error {
	data, err := LayoutJSON(title, panels)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.w, string(data))
	return err
}

func (r *JSONReporter) Merge(res merge.Result) error {
	return r.encode(struct {
		merge.Result
		Panels []panel.Spec `json:"panels"`
	}{res, panel.SaveModels(res.Panels)})
}

// Migration writes nothing: in JSON mode stdout carries only the migrated
// document and the counts go to the log.
func (r *JSONReporter) Migration(migration.Result, error) error {
	return nil
}

func (r *JSONReporter) Validation(err error) error {
	problems := Problems(err)
	if problems == nil {
		problems = []string{}
	}
	return r.encode(map[string]any{
		"valid":    err == nil,
		"problems": problems,
	})
}

func (r *JSONReporter) encode(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
