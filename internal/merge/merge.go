package merge

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"

	"dashlayout/internal/grid"
	"dashlayout/internal/panel"
	"dashlayout/pkg/logging"
)

// softFields can be patched onto a live panel without remounting it. Any
// other differing field forces a replacement. Widening this set means every
// panel type must be able to hot-apply the new field.
var softFields = sets.New("gridPos", "title", "description", "transparent")

// IsSoftField reports whether key can be updated in place.
func IsSoftField(key string) bool {
	return softFields.Has(key)
}

// Actions lists the panel ids per reconciliation outcome.
type Actions struct {
	Add     []int `json:"add"`
	Remove  []int `json:"remove"`
	Replace []int `json:"replace"`
	Update  []int `json:"update"`
	Noop    []int `json:"noop"`
}

// Result is the outcome of Merge.
type Result struct {
	Changed bool           `json:"changed"`
	Actions Actions        `json:"actions"`
	Panels  []*panel.Panel `json:"-"`
}

type options struct {
	columns int
}

// Option configures Merge.
type Option func(*options)

// WithColumns sets the grid width incoming positions are checked against.
// It defaults to grid.DefaultColumns.
func WithColumns(columns int) Option {
	return func(o *options) {
		o.columns = columns
	}
}

// Merge reconciles the live panels against an incoming panel array. Live
// panels are reused where the incoming record matches or differs only in
// soft fields; removed and replaced panels are destroyed. Incoming records
// without an id get one that is free in both lists.
//
// An incoming gridPos that is malformed or does not fit the grid is not
// applied to a live panel: the panel keeps its position.
func Merge(current []*panel.Panel, incoming []panel.Spec, opts ...Option) Result {
	o := options{columns: grid.DefaultColumns}
	for _, opt := range opts {
		opt(&o)
	}
	ids := panel.NewIDGenerator(current, incoming)

	order := make([]int, 0, len(incoming))
	byID := make(map[int]panel.Spec, len(incoming))
	for _, spec := range incoming {
		if spec.ID() == 0 {
			spec = spec.WithID(ids.Next())
		}
		id := spec.ID()
		if _, dup := byID[id]; !dup {
			order = append(order, id)
		}
		byID[id] = spec
	}

	var res Result
	res.Panels = make([]*panel.Panel, 0, len(incoming))

	for _, p := range current {
		spec, ok := byID[p.ID]
		if !ok {
			p.Destroy()
			res.Actions.Remove = append(res.Actions.Remove, p.ID)
			continue
		}
		delete(byID, p.ID)

		switch {
		case p.IsOwnSaveModel(spec):
			res.Actions.Noop = append(res.Actions.Noop, p.ID)
			res.Panels = append(res.Panels, p)
		case p.Type == spec.Type():
			soft, hard := diff(p, spec, o.columns)
			switch {
			case hard:
				res.Panels = append(res.Panels, replace(p, spec))
				res.Actions.Replace = append(res.Actions.Replace, p.ID)
			case len(soft) > 0:
				for _, key := range soft {
					p.SetSoftField(key, spec[key])
				}
				res.Actions.Update = append(res.Actions.Update, p.ID)
				res.Panels = append(res.Panels, p)
			default:
				res.Actions.Noop = append(res.Actions.Noop, p.ID)
				res.Panels = append(res.Panels, p)
			}
		default:
			res.Panels = append(res.Panels, replace(p, spec))
			res.Actions.Replace = append(res.Actions.Replace, p.ID)
		}
	}

	for _, id := range order {
		spec, ok := byID[id]
		if !ok {
			continue
		}
		res.Panels = append(res.Panels, panel.FromSpec(spec))
		res.Actions.Add = append(res.Actions.Add, id)
	}

	a := res.Actions
	res.Changed = len(a.Add)+len(a.Remove)+len(a.Replace)+len(a.Update) > 0
	logging.Debug("Merge", "add=%v remove=%v replace=%v update=%v noop=%d",
		a.Add, a.Remove, a.Replace, a.Update, len(a.Noop))
	return res
}

// diff compares every field of the incoming record with the live panel and
// returns the differing soft fields, or hard=true if any other field differs.
// Fields the incoming record does not carry are not compared.
func diff(p *panel.Panel, spec panel.Spec, columns int) (soft []string, hard bool) {
	model := p.ComparisonModel()
	for key, value := range spec {
		if panel.ValuesEqual(value, model[key]) {
			continue
		}
		if !IsSoftField(key) {
			return nil, true
		}
		if key == "gridPos" {
			if err := checkGridPos(value, columns); err != nil {
				logging.Error("Merge", err, "Keeping the position of panel %d", p.ID)
				continue
			}
		}
		soft = append(soft, key)
	}
	sort.Strings(soft)
	return soft, false
}

func checkGridPos(value any, columns int) error {
	pos, err := panel.ParseGridPos(value)
	if err != nil {
		return err
	}
	return grid.Validate(pos, columns)
}

func replace(old *panel.Panel, spec panel.Spec) *panel.Panel {
	old.Destroy()
	p := panel.FromSpec(spec)
	p.Key = fmt.Sprintf("panel-%d-%s", p.ID, uuid.NewString())
	return p
}
