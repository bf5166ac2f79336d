package cmd

import (
	"github.com/spf13/cobra"

	"dashlayout/internal/mcpserver"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout tools over MCP stdio",
		Long: `Starts an MCP server on stdin/stdout exposing pack_legacy_rows,
expand_repeats, reconcile_panels and validate_layout as tools. Tool names
get the server.toolPrefix from the config prepended. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcpserver.New(&opts.cfg, rootCmd.Version).ServeStdio()
		},
	}
}
