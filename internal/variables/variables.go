package variables

import "strings"

// AllValue is the value of the synthetic "All" option.
const AllValue = "$__all"

// Option is one selectable value of a variable.
type Option struct {
	Text     string `yaml:"text" json:"text"`
	Value    string `yaml:"value" json:"value"`
	Selected bool   `yaml:"selected,omitempty" json:"selected,omitempty"`
}

// IsAll reports whether o is the synthetic "All" option.
func (o Option) IsAll() bool {
	return o.Value == AllValue
}

// Variable is a dashboard variable panels and rows can repeat over.
type Variable struct {
	Name    string   `yaml:"name" json:"name"`
	Label   string   `yaml:"label,omitempty" json:"label,omitempty"`
	Options []Option `yaml:"options" json:"options"`
}

// AllSelected reports whether the "All" option is selected.
func (v Variable) AllSelected() bool {
	for _, o := range v.Options {
		if o.IsAll() && o.Selected {
			return true
		}
	}
	return false
}

// SelectedValues returns the options to repeat over, in option order. With
// "All" selected that is every real option; otherwise the selected ones.
func SelectedValues(v Variable) []Option {
	all := v.AllSelected()
	var out []Option
	for _, o := range v.Options {
		if o.IsAll() {
			continue
		}
		if all || o.Selected {
			out = append(out, o)
		}
	}
	return out
}

// Resolver looks up the values a repeat should fan out over.
type Resolver interface {
	// SelectedValues returns the selection of the named variable. ok is
	// false when no such variable exists.
	SelectedValues(name string) (values []Option, ok bool)
}

// displayText is the text shown for a selection, "a + b" style.
func displayText(values []Option) string {
	texts := make([]string, 0, len(values))
	for _, o := range values {
		texts = append(texts, o.Text)
	}
	return strings.Join(texts, " + ")
}
