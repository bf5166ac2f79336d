package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dashlayout/internal/color"
	"dashlayout/internal/config"
	"dashlayout/pkg/logging"
)

// rootOptions holds the global flags and the configuration they resolve to.
// Subcommands read cfg only after PersistentPreRunE has run.
type rootOptions struct {
	configFile string
	debug      bool
	noColor    bool
	output     string
	copy       bool

	cfg config.Config
}

// rootCmd represents the base command when called without any subcommands
var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dashlayout",
		Short: "Migrate, expand and reconcile dashboard panel layouts",
		Long: `dashlayout works on the panel layout of JSON dashboards laid out on a
24-column grid. It converts legacy row-based dashboards to grid positions,
expands repeating panels and rows for the selected template variable values,
and reconciles a live panel list against an incoming one.

The same operations are available to AI assistants through 'dashlayout serve',
which speaks MCP over stdio.`,
		// SilenceUsage is set to true to prevent printing usage message on errors
		// handled by us (e.g. unreadable files, invalid layouts)
		SilenceUsage:      true,
		PersistentPreRunE: opts.init,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Config file layered over ~/.config/dashlayout/config.yaml and ./.dashlayout/config.yaml")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.StringVarP(&opts.output, "output", "o", "", "Output format: summary or json (default from config)")
	flags.BoolVar(&opts.copy, "copy", false, "Copy the resulting layout JSON to the clipboard")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSelfUpdateCmd())
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newExpandCmd(opts))
	cmd.AddCommand(newReconcileCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

// init loads the configuration and sets up logging and colors. The serve
// command logs JSON to stderr since stdout carries the MCP protocol.
func (o *rootOptions) init(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.output != "" {
		cfg.Output.Format = config.OutputFormat(o.output)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if o.debug {
		level = logging.LevelDebug
	}
	if cmd.Name() == "serve" {
		logging.InitForServer(level)
	} else {
		logging.InitForCLI(level, cmd.ErrOrStderr())
	}

	color.Setup(cfg.Output.DarkBackground, o.noColor || cfg.Output.NoColor)
	o.cfg = cfg
	return nil
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "dashlayout version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}
