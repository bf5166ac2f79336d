package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dashlayout/internal/dashboard"
	"dashlayout/pkg/logging"
)

var errNothingToMigrate = errors.New("document already uses the grid layout")

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "migrate FILE",
		Short: "Convert a legacy row-based dashboard to grid positions",
		Long: `Packs the rows of a dashboard saved before schema version 16 into a
flat list of grid-positioned panels. Panel spans are scaled from 12 to 24
columns and row heights from pixels to grid units.

A row holding a panel that cannot be placed is left out; the other rows are
still migrated. Use --strict to fail instead. FILE may be "-" for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			if !doc.IsLegacy() {
				return fmt.Errorf("%s: %w", args[0], errNothingToMigrate)
			}

			m := dashboard.New(opts.cfg.Grid, nil)
			defer m.Destroy()

			res, packErr := m.PackLegacyRows(doc.Rows)
			if packErr != nil {
				logging.Warn("CLI", "%d of %d rows could not be migrated", res.AbortedRows, len(doc.Rows))
			}

			r := opts.reporter(cmd)
			if err := r.Migration(res, packErr); err != nil {
				return err
			}
			if err := r.Layout(doc.Title, m.Panels()); err != nil {
				return err
			}
			if err := opts.copyLayout(doc.Title, m.Panels()); err != nil {
				return err
			}

			if strict && packErr != nil {
				return fmt.Errorf("migration incomplete: %w", packErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any row cannot be migrated")
	return cmd
}
