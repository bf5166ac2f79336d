package config

import (
	"dashlayout/internal/grid"
)

// Config is the top-level configuration structure for dashlayout.
type Config struct {
	Grid     grid.Settings `yaml:"grid"`
	Repeat   RepeatConfig  `yaml:"repeat"`
	Server   ServerConfig  `yaml:"server"`
	Output   OutputConfig  `yaml:"output"`
	LogLevel string        `yaml:"logLevel,omitempty"` // debug, info, warn or error
}

// RepeatConfig configures repeat expansion.
type RepeatConfig struct {
	VariablesFile string `yaml:"variablesFile,omitempty"` // Used by `expand` when --vars is not given
}

// ServerConfig configures the MCP stdio server.
type ServerConfig struct {
	Name       string `yaml:"name,omitempty"`       // Server name announced to MCP clients
	ToolPrefix string `yaml:"toolPrefix,omitempty"` // Prepended to every tool name, e.g. "dash_"
}

// OutputFormat selects how commands print their result.
type OutputFormat string

const (
	OutputSummary OutputFormat = "summary"
	OutputJSON    OutputFormat = "json"
)

// OutputConfig configures command output.
type OutputConfig struct {
	Format         OutputFormat `yaml:"format,omitempty"`
	DarkBackground *bool        `yaml:"darkBackground,omitempty"` // Unset means detect
	NoColor        bool         `yaml:"noColor,omitempty"`
}
