package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dashlayout/internal/dashboard"
	"dashlayout/internal/variables"
	"dashlayout/pkg/logging"
)

func newExpandCmd(opts *rootOptions) *cobra.Command {
	var (
		varsFile   string
		selections []string
	)

	cmd := &cobra.Command{
		Use:   "expand FILE",
		Short: "Expand repeating panels and rows",
		Long: `Generates one copy of every repeating panel or row per selected value of
its template variable, placing the copies on the grid and pushing the
panels below them down.

Variables are read from --vars (or repeat.variablesFile in the config) and
the selection can be overridden per variable:

  dashlayout expand dash.json --vars vars.yaml --select region=eu,us`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadVariables(opts, varsFile)
			if err != nil {
				return err
			}
			for _, sel := range selections {
				name, values, err := parseSelection(sel)
				if err != nil {
					return err
				}
				if err := store.Select(name, values...); err != nil {
					return err
				}
			}

			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			m, err := dashboard.Load(doc, opts.cfg.Grid, store)
			defer m.Destroy()
			if err != nil {
				logging.Warn("CLI", "Expanding %s without the rows migration left out: %v", args[0], err)
			}

			panels := m.ExpandRepeats()
			if err := opts.reporter(cmd).Layout(doc.Title, panels); err != nil {
				return err
			}
			return opts.copyLayout(doc.Title, panels)
		},
	}

	cmd.Flags().StringVar(&varsFile, "vars", "", "Variables file (YAML or JSON)")
	cmd.Flags().StringArrayVar(&selections, "select", nil, "Select variable values: name=value1,value2 (repeatable)")
	return cmd
}

func loadVariables(opts *rootOptions, path string) (*variables.Store, error) {
	if path == "" {
		path = opts.cfg.Repeat.VariablesFile
	}
	if path == "" {
		return variables.NewStore(), nil
	}
	return variables.LoadFile(path)
}

// parseSelection splits "name=a,b" into the variable name and its values.
func parseSelection(s string) (string, []string, error) {
	name, list, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid selection %q, want name=value1,value2", s)
	}
	var values []string
	for _, v := range strings.Split(list, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return name, values, nil
}
