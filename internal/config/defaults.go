package config

import (
	"dashlayout/internal/grid"
)

// GetDefaultConfig returns the configuration used when no file sets anything.
func GetDefaultConfig() Config {
	return Config{
		Grid: grid.DefaultSettings(),
		Server: ServerConfig{
			Name: "dashlayout",
		},
		Output: OutputConfig{
			Format: OutputSummary,
		},
		LogLevel: "info",
	}
}
