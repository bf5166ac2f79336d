package variables

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"dashlayout/pkg/logging"
)

var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrUnknownOption   = errors.New("unknown option")
)

// Store holds the variables of one dashboard and their current selection.
// It is safe for concurrent use.
type Store struct {
	vars map[string]Variable
	mu   sync.RWMutex
}

var _ Resolver = (*Store)(nil)

// NewStore creates a store holding vars.
func NewStore(vars ...Variable) *Store {
	s := &Store{vars: make(map[string]Variable, len(vars))}
	for _, v := range vars {
		s.vars[v.Name] = v
	}
	return s
}

// Set adds or replaces a variable.
func (s *Store) Set(v Variable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[v.Name] = cloneVariable(v)
}

// Get returns a copy of the named variable.
func (s *Store) Get(name string) (Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	if !ok {
		return Variable{}, false
	}
	return cloneVariable(v), true
}

// Names returns the variable names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SelectedValues implements Resolver.
func (s *Store) SelectedValues(name string) ([]Option, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	if !ok {
		return nil, false
	}
	return SelectedValues(v), true
}

// Select makes values the selection of the named variable. Values are
// matched against option values; AllValue selects "All".
func (s *Store) Select(name string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vars[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}

	want := make(map[string]bool, len(values))
	for _, val := range values {
		want[val] = true
	}

	options := make([]Option, len(v.Options))
	for i, o := range v.Options {
		o.Selected = want[o.Value]
		if o.Selected {
			delete(want, o.Value)
		}
		options[i] = o
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for val := range want {
			missing = append(missing, val)
		}
		sort.Strings(missing)
		return fmt.Errorf("%w for %s: %v", ErrUnknownOption, name, missing)
	}

	v.Options = options
	s.vars[name] = v
	logging.Debug("Variables", "Selected %s = %s", name, displayText(SelectedValues(v)))
	return nil
}

// File is the on-disk shape of a variables file.
type File struct {
	Variables []Variable `yaml:"variables" json:"variables"`
}

// Parse decodes a variables file. JSON input is accepted too.
func Parse(data []byte) ([]Variable, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing variables: %w", err)
	}
	for i, v := range f.Variables {
		if v.Name == "" {
			return nil, fmt.Errorf("parsing variables: entry %d has no name", i)
		}
	}
	return f.Variables, nil
}

// LoadFile reads a variables file into a new Store.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variables file %s: %w", path, err)
	}
	vars, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Debug("Variables", "Loaded %d variables from %s", len(vars), path)
	return NewStore(vars...), nil
}

func cloneVariable(v Variable) Variable {
	v.Options = append([]Option(nil), v.Options...)
	return v
}
