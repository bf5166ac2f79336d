package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"dashlayout/internal/grid"
	"dashlayout/internal/migration"
	"dashlayout/internal/panel"
	"dashlayout/internal/variables"
	"dashlayout/pkg/logging"
)

// GridLayoutSchemaVersion is the first schema version with grid positions.
// Older documents keep their panels in rows.
const GridLayoutSchemaVersion = 16

// ErrLegacyDocument is returned where only grid documents are accepted.
var ErrLegacyDocument = errors.New("document uses the legacy row layout")

// Document is a dashboard as stored on disk.
type Document struct {
	SchemaVersion int                   `json:"schemaVersion"`
	Title         string                `json:"title,omitempty"`
	Rows          []migration.LegacyRow `json:"rows,omitempty"`
	Panels        []panel.Spec          `json:"panels"`
}

// IsLegacy reports whether the document still uses the row layout.
func (d Document) IsLegacy() bool {
	return len(d.Rows) > 0 && d.SchemaVersion < GridLayoutSchemaVersion
}

// ParseDocument decodes a dashboard JSON document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding dashboard: %w", err)
	}
	return doc, nil
}

// ParsePanels decodes either a bare panel array or a grid document and
// returns its panels. Legacy documents are rejected.
func ParsePanels(data []byte) ([]panel.Spec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return panel.ParseSpecs(trimmed)
	}
	doc, err := ParseDocument(trimmed)
	if err != nil {
		return nil, err
	}
	if doc.IsLegacy() {
		return nil, ErrLegacyDocument
	}
	return doc.Panels, nil
}

// Load builds a model from a document, packing legacy rows first. A packing
// error is returned together with the model holding every row that could
// be migrated.
func Load(doc Document, settings grid.Settings, resolver variables.Resolver) (*Model, error) {
	m := New(settings, resolver)
	if !doc.IsLegacy() {
		m.SetPanels(doc.Panels)
		return m, nil
	}

	res, err := m.PackLegacyRows(doc.Rows)
	logging.Info("Dashboard", "Migrated %d legacy rows of %q into %d panels", res.PackedRows, doc.Title, len(res.Panels))
	return m, err
}

// Document returns the persisted form of the model.
func (m *Model) Document(title string) Document {
	return Document{
		SchemaVersion: GridLayoutSchemaVersion,
		Title:         title,
		Panels:        m.SaveModel(),
	}
}
