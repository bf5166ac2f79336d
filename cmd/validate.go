package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"dashlayout/internal/dashboard"
)

var errInvalidLayout = errors.New("layout is invalid")

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a dashboard layout",
		Long: `Checks that every panel lies inside the grid, that panel ids are unique
across the dashboard including collapsed rows, that rows do not nest and
that no two panels on the grid overlap.
Legacy documents are migrated first. Exits non-zero when problems are found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			m, loadErr := dashboard.Load(doc, opts.cfg.Grid, nil)
			defer m.Destroy()

			problems := errors.Join(loadErr, m.Validate(), m.Overlaps())
			if err := opts.reporter(cmd).Validation(problems); err != nil {
				return err
			}
			if problems != nil {
				return errInvalidLayout
			}
			return nil
		},
	}
}
