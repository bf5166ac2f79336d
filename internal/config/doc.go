// Package config provides configuration management for dashlayout.
//
// Configuration is loaded from YAML files and merged in order, later sources
// overriding earlier ones:
//
//  1. Defaults (GetDefaultConfig)
//  2. User configuration (~/.config/dashlayout/config.yaml)
//  3. Project configuration (./.dashlayout/config.yaml)
//  4. The file given with --config, if any
//
// A zero value in a later layer never clears a value set earlier.
//
// # Configuration Structure
//
//	grid:
//	  columns: 24          # grid width, fixed for the whole process
//	  cellHeight: 30       # px per grid unit, used to convert legacy heights
//	  cellVMargin: 8
//	  minPanelHeight: 150  # legacy heights below this are raised to it
//	  defaultRowHeight: 250
//	  defaultPanelSpan: 4
//
//	repeat:
//	  variablesFile: ./variables.yaml
//
//	server:
//	  name: dashlayout
//	  toolPrefix: ""
//
//	output:
//	  format: summary      # or json
//	  noColor: false
//
//	logLevel: info
package config
