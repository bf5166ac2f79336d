package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"dashlayout/internal/dashboard"
	"dashlayout/internal/panel"
	"dashlayout/internal/report"
	"dashlayout/pkg/logging"
)

// readInput reads a file argument; "-" reads stdin.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func readDocument(cmd *cobra.Command, path string) (dashboard.Document, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return dashboard.Document{}, err
	}
	doc, err := dashboard.ParseDocument(data)
	if err != nil {
		return dashboard.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func readPanels(cmd *cobra.Command, path string) ([]panel.Spec, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	specs, err := dashboard.ParsePanels(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

func (o *rootOptions) reporter(cmd *cobra.Command) report.Reporter {
	return report.New(o.cfg.Output.Format, cmd.OutOrStdout(), o.cfg.Grid.Columns)
}

// copyLayout puts the layout JSON on the clipboard when --copy is set.
func (o *rootOptions) copyLayout(title string, panels []*panel.Panel) error {
	if !o.copy {
		return nil
	}
	data, err := report.LayoutJSON(title, panels)
	if err != nil {
		return err
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	logging.Info("CLI", "Copied layout with %d panels to the clipboard", len(panels))
	return nil
}
