package cmd

import (
	"github.com/spf13/cobra"

	"dashlayout/internal/dashboard"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile LIVE INCOMING",
		Short: "Reconcile a live panel list against an incoming one",
		Long: `Merges INCOMING into LIVE the way a running dashboard applies a saved or
remotely changed version: panels that differ only in position, title,
description or transparency are updated in place, panels with other changes
are replaced, and missing or new panels are removed or added.

Both files may hold a dashboard document or a bare panel array.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			live, err := readPanels(cmd, args[0])
			if err != nil {
				return err
			}
			incoming, err := readPanels(cmd, args[1])
			if err != nil {
				return err
			}

			m := dashboard.New(opts.cfg.Grid, nil)
			defer m.Destroy()
			m.SetPanels(live)

			res := m.Reconcile(incoming)
			if err := opts.reporter(cmd).Merge(res); err != nil {
				return err
			}
			return opts.copyLayout("", m.Panels())
		},
	}
}
