package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultColumns is the fixed width of the dashboard grid.
	DefaultColumns = 24
	// LegacyColumns is the width of the pre-grid row layout (bootstrap spans).
	LegacyColumns = 12

	DefaultCellHeight      = 30
	DefaultCellVMargin     = 8
	DefaultMinPanelHeight  = 150
	DefaultRowHeight       = 250
	DefaultPanelSpan       = 4
	DefaultMaxPerRow       = 4
	DefaultRowHeaderHeight = 1
)

// Settings are the grid constants the host application supplies once.
type Settings struct {
	Columns        int `yaml:"columns" json:"columns"`
	CellHeight     int `yaml:"cellHeight" json:"cellHeight"`
	CellVMargin    int `yaml:"cellVMargin" json:"cellVMargin"`
	MinPanelHeight int `yaml:"minPanelHeight" json:"minPanelHeight"`

	// Legacy row layout defaults, used only by migration.
	DefaultRowHeight int     `yaml:"defaultRowHeight" json:"defaultRowHeight"`
	DefaultPanelSpan float64 `yaml:"defaultPanelSpan" json:"defaultPanelSpan"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Columns:          DefaultColumns,
		CellHeight:       DefaultCellHeight,
		CellVMargin:      DefaultCellVMargin,
		MinPanelHeight:   DefaultMinPanelHeight,
		DefaultRowHeight: DefaultRowHeight,
		DefaultPanelSpan: DefaultPanelSpan,
	}
}

// WithDefaults fills zero fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.Columns <= 0 {
		s.Columns = d.Columns
	}
	if s.CellHeight <= 0 {
		s.CellHeight = d.CellHeight
	}
	if s.CellVMargin < 0 {
		s.CellVMargin = d.CellVMargin
	}
	if s.MinPanelHeight <= 0 {
		s.MinPanelHeight = d.MinPanelHeight
	}
	if s.DefaultRowHeight <= 0 {
		s.DefaultRowHeight = d.DefaultRowHeight
	}
	if s.DefaultPanelSpan <= 0 {
		s.DefaultPanelSpan = d.DefaultPanelSpan
	}
	return s
}

// HeightFromPixels converts a pixel height into grid units. Heights below
// the minimum panel height are raised to it first.
func (s Settings) HeightFromPixels(px int) int {
	if px < s.MinPanelHeight {
		px = s.MinPanelHeight
	}
	return int(math.Ceil(float64(px) / float64(s.CellHeight+s.CellVMargin)))
}

// ParsePixels reads a legacy height value: a JSON number, a numeric string,
// or a string with a "px" suffix. ok is false for empty or unparsable values.
func ParsePixels(v any) (px int, ok bool) {
	switch h := v.(type) {
	case nil:
		return 0, false
	case int:
		return h, true
	case int64:
		return int(h), true
	case float64:
		return int(h), true
	case string:
		h = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(h), "px"))
		if h == "" {
			return 0, false
		}
		n, err := strconv.Atoi(h)
		if err != nil {
			f, ferr := strconv.ParseFloat(h, 64)
			if ferr != nil {
				return 0, false
			}
			n = int(f)
		}
		return n, true
	default:
		return 0, false
	}
}

// LegacyWidth scales a 12-column bootstrap span to the grid width.
func (s Settings) LegacyWidth(span float64) int {
	return int(math.Floor(span)) * s.Columns / LegacyColumns
}

func (s Settings) String() string {
	return fmt.Sprintf("columns=%d cell=%d+%d minPanelHeight=%d", s.Columns, s.CellHeight, s.CellVMargin, s.MinPanelHeight)
}
