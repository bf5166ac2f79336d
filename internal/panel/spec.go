package panel

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"dashlayout/internal/grid"
	"dashlayout/pkg/logging"
)

// ErrMalformedGridPos is returned for a gridPos missing one of x, y, w, h.
var ErrMalformedGridPos = errors.New("malformed gridPos")

// Spec is a panel record in its JSON shape, which is also the panel save
// model. Numbers decoded from JSON are float64; Go callers may use any
// numeric type.
type Spec map[string]any

// ID returns the record's numeric id, or 0 when it has none.
func (s Spec) ID() int {
	id, _ := toInt(s["id"])
	return id
}

// Type returns the record's type discriminator.
func (s Spec) Type() string {
	t, _ := s["type"].(string)
	return t
}

// WithID returns a shallow copy of s carrying id.
func (s Spec) WithID(id int) Spec {
	c := make(Spec, len(s)+1)
	for k, v := range s {
		c[k] = v
	}
	c["id"] = float64(id)
	return c
}

// Children returns the records nested in a row's "panels" field.
func (s Spec) Children() []Spec {
	return specList(s["panels"])
}

// ParseSpecs decodes a JSON array of panel records.
func ParseSpecs(data []byte) ([]Spec, error) {
	var specs []Spec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("decoding panel records: %w", err)
	}
	return specs, nil
}

// FromSpec builds a live panel from a record. Rows found inside a row's
// "panels" are dropped: rows never nest.
func FromSpec(s Spec) *Panel {
	p := &Panel{Extra: make(map[string]any)}
	for k, v := range s {
		switch k {
		case "id":
			p.ID, _ = toInt(v)
		case "type":
			p.Type, _ = v.(string)
		case "title", "description", "transparent":
			p.setDisplayField(k, v)
		case "gridPos":
			pos, ok := posFromValue(v)
			if !ok {
				logging.Warn("Panel", "Ignoring malformed gridPos %v of panel %v", v, s["id"])
			}
			p.GridPos = pos
		case "repeat":
			p.Repeat, _ = v.(string)
		case "repeatDirection":
			d, _ := v.(string)
			p.RepeatDirection = Direction(d)
		case "repeatPanelId":
			p.RepeatPanelID, _ = toInt(v)
		case "repeatedByRow":
			p.RepeatedByRow, _ = v.(bool)
		case "maxPerRow":
			p.MaxPerRow, _ = toInt(v)
		case "scopedVars":
			p.ScopedVars = scopedVarsFromValue(v)
		case "collapsed":
			p.Collapsed, _ = v.(bool)
		case "panels":
			// handled below, once the type is known
		default:
			p.Extra[k] = cloneValue(v)
		}
	}

	if raw, ok := s["panels"]; ok {
		if p.IsRow() {
			for _, child := range specList(raw) {
				if child.Type() == TypeRow {
					logging.Warn("Panel", "Dropping row %d nested inside row %d", child.ID(), p.ID)
					continue
				}
				p.Panels = append(p.Panels, FromSpec(child))
			}
		} else {
			p.Extra["panels"] = cloneValue(raw)
		}
	}
	if len(p.Extra) == 0 {
		p.Extra = nil
	}
	return p
}

// FromSpecs builds live panels from records.
func FromSpecs(specs []Spec) []*Panel {
	panels := make([]*Panel, 0, len(specs))
	for _, s := range specs {
		panels = append(panels, FromSpec(s))
	}
	return panels
}

// SaveModel returns the panel's record. The result is cached until the
// panel (or a collapsed child) changes, and must not be modified.
func (p *Panel) SaveModel() Spec {
	rev := p.revision()
	if p.saved != nil && p.savedRev == rev {
		return p.saved
	}
	p.saved = p.buildModel(false)
	p.savedRev = rev
	return p.saved
}

// IsOwnSaveModel reports whether s is the very map SaveModel handed out for
// the panel's current state.
func (p *Panel) IsOwnSaveModel(s Spec) bool {
	if p.saved == nil || s == nil || p.savedRev != p.revision() {
		return false
	}
	return reflect.ValueOf(s).UnsafePointer() == reflect.ValueOf(p.saved).UnsafePointer()
}

// ComparisonModel is the save model with zero-valued soft fields spelled
// out, so an incoming `"title": ""` compares equal to an untitled panel.
func (p *Panel) ComparisonModel() Spec {
	return p.buildModel(true)
}

// SaveModels returns the records of panels.
func SaveModels(panels []*Panel) []Spec {
	specs := make([]Spec, 0, len(panels))
	for _, p := range panels {
		specs = append(specs, p.SaveModel())
	}
	return specs
}

// revision changes whenever the panel or one of its collapsed children changes.
func (p *Panel) revision() int {
	rev := p.ConfigRev
	for _, c := range p.Panels {
		rev += c.revision()
	}
	return rev
}

func (p *Panel) buildModel(full bool) Spec {
	m := make(Spec, len(p.Extra)+8)
	for k, v := range p.Extra {
		m[k] = cloneValue(v)
	}

	m["id"] = float64(p.ID)
	m["type"] = p.Type
	m["gridPos"] = map[string]any{
		"x": float64(p.GridPos.X),
		"y": float64(p.GridPos.Y),
		"w": float64(p.GridPos.W),
		"h": float64(p.GridPos.H),
	}
	if _, raw := p.Extra["title"]; !raw && (p.Title != "" || full) {
		m["title"] = p.Title
	}
	if _, raw := p.Extra["description"]; !raw && (p.Description != "" || full) {
		m["description"] = p.Description
	}
	if _, raw := p.Extra["transparent"]; !raw && (p.Transparent || full) {
		m["transparent"] = p.Transparent
	}
	if p.Repeat != "" {
		m["repeat"] = p.Repeat
		if p.RepeatDirection != "" {
			m["repeatDirection"] = string(p.RepeatDirection)
		}
	}
	if p.MaxPerRow > 0 {
		m["maxPerRow"] = float64(p.MaxPerRow)
	}
	if p.RepeatPanelID != 0 {
		m["repeatPanelId"] = float64(p.RepeatPanelID)
	}
	if p.RepeatedByRow {
		m["repeatedByRow"] = true
	}
	if len(p.ScopedVars) > 0 {
		vars := make(map[string]any, len(p.ScopedVars))
		for name, sv := range p.ScopedVars {
			vars[name] = map[string]any{"text": sv.Text, "value": cloneValue(sv.Value)}
		}
		m["scopedVars"] = vars
	}
	if p.IsRow() {
		m["collapsed"] = p.Collapsed
		children := make([]any, 0, len(p.Panels))
		for _, c := range p.Panels {
			children = append(children, map[string]any(c.SaveModel()))
		}
		m["panels"] = children
	}
	return m
}

func posFromValue(v any) (grid.Pos, bool) {
	switch pos := v.(type) {
	case grid.Pos:
		return pos, true
	case *grid.Pos:
		if pos == nil {
			return grid.Pos{}, false
		}
		return *pos, true
	}
	m, ok := asMap(v)
	if !ok {
		return grid.Pos{}, false
	}
	var vals [4]int
	for i, key := range [...]string{"x", "y", "w", "h"} {
		n, ok := toInt(m[key])
		if !ok {
			return grid.Pos{}, false
		}
		vals[i] = n
	}
	return grid.Pos{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, true
}

// ParseGridPos decodes a gridPos value. All four of x, y, w and h must be
// present and numeric.
func ParseGridPos(v any) (grid.Pos, error) {
	pos, ok := posFromValue(v)
	if !ok {
		return grid.Pos{}, fmt.Errorf("%w: %v", ErrMalformedGridPos, v)
	}
	return pos, nil
}

func scopedVarsFromValue(v any) map[string]ScopedVar {
	if typed, ok := v.(map[string]ScopedVar); ok {
		out := make(map[string]ScopedVar, len(typed))
		for k, sv := range typed {
			out[k] = sv
		}
		return out
	}
	m, ok := asMap(v)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]ScopedVar, len(m))
	for name, raw := range m {
		entry, ok := asMap(raw)
		if !ok {
			out[name] = ScopedVar{Text: fmt.Sprint(raw), Value: cloneValue(raw)}
			continue
		}
		text, _ := entry["text"].(string)
		out[name] = ScopedVar{Text: text, Value: cloneValue(entry["value"])}
	}
	return out
}

func specList(v any) []Spec {
	switch list := v.(type) {
	case []Spec:
		return list
	case []map[string]any:
		out := make([]Spec, 0, len(list))
		for _, m := range list {
			out = append(out, Spec(m))
		}
		return out
	case []any:
		out := make([]Spec, 0, len(list))
		for _, item := range list {
			if m, ok := asMap(item); ok {
				out = append(out, Spec(m))
			}
		}
		return out
	default:
		return nil
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Spec:
		return m, true
	default:
		return nil, false
	}
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []Spec:
		out := make([]any, len(s))
		for i := range s {
			out[i] = map[string]any(s[i])
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// Number reads a JSON number held as any Go numeric type.
func Number(v any) (float64, bool) {
	return toFloat(v)
}

// CloneValue deep-copies a JSON-shaped value.
func CloneValue(v any) any {
	return cloneValue(v)
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// cloneValue deep-copies JSON-shaped values so live panels never alias the
// records they were built from.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Spec:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
