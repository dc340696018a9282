// Package ui styles terminal output for the CLI with lipgloss.
//
// [Palette] holds the named styles (title, ok, error, warning, help) used by the redis diagnostic commands.
// [Styles] is the shared default.
package ui
