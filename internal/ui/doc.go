// Package ui provides theme and color support for logfit's terminal output.
// It defines the ANSI color schemes of the text report and the lipgloss
// palette of the chart viewer, so the report and the viewer agree on colors.
package ui
