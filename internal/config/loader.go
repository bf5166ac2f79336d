package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dashlayout/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/dashlayout"
	projectConfigDir = ".dashlayout"
	configFileName   = "config.yaml"
)

// LoadConfig loads the configuration by layering default, user, and project
// settings. A non-empty explicitPath is layered last and must exist.
func LoadConfig(explicitPath string) (Config, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional
		logging.Warn("Config", "Could not determine user config path: %v", err)
	} else if config, err = layerIfExists(config, userConfigPath); err != nil {
		return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
	} else if config, err = layerIfExists(config, projectConfigPath); err != nil {
		return Config{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	if explicitPath != "" {
		overlay, err := loadConfigFromFile(explicitPath)
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
		config = mergeConfigs(config, overlay)
		logging.Debug("Config", "Applied config file %s", explicitPath)
	}

	config.Grid = config.Grid.WithDefaults()
	return config, nil
}

func layerIfExists(base Config, path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}
	overlay, err := loadConfigFromFile(path)
	if err != nil {
		return base, err
	}
	logging.Debug("Config", "Applied config file %s", path)
	return mergeConfigs(base, overlay), nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Zero values in
// the overlay leave the base untouched.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	g, o := &merged.Grid, overlay.Grid
	if o.Columns != 0 {
		g.Columns = o.Columns
	}
	if o.CellHeight != 0 {
		g.CellHeight = o.CellHeight
	}
	if o.CellVMargin != 0 {
		g.CellVMargin = o.CellVMargin
	}
	if o.MinPanelHeight != 0 {
		g.MinPanelHeight = o.MinPanelHeight
	}
	if o.DefaultRowHeight != 0 {
		g.DefaultRowHeight = o.DefaultRowHeight
	}
	if o.DefaultPanelSpan != 0 {
		g.DefaultPanelSpan = o.DefaultPanelSpan
	}

	if overlay.Repeat.VariablesFile != "" {
		merged.Repeat.VariablesFile = overlay.Repeat.VariablesFile
	}

	if overlay.Server.Name != "" {
		merged.Server.Name = overlay.Server.Name
	}
	if overlay.Server.ToolPrefix != "" {
		merged.Server.ToolPrefix = overlay.Server.ToolPrefix
	}

	if overlay.Output.Format != "" {
		merged.Output.Format = overlay.Output.Format
	}
	if overlay.Output.DarkBackground != nil {
		dark := *overlay.Output.DarkBackground
		merged.Output.DarkBackground = &dark
	}
	merged.Output.NoColor = merged.Output.NoColor || overlay.Output.NoColor

	if overlay.LogLevel != "" {
		merged.LogLevel = overlay.LogLevel
	}

	return merged
}

// Validate reports settings the commands cannot work with.
func (c Config) Validate() error {
	switch c.Output.Format {
	case OutputSummary, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q (want %q or %q)", c.Output.Format, OutputSummary, OutputJSON)
	}
	if c.Grid.Columns < 1 {
		return fmt.Errorf("grid columns must be positive, got %d", c.Grid.Columns)
	}
	return nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
