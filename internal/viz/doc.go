// Package viz renders simulation results for the terminal.
//
// A [Renderer] carries one [Theme] and draws:
//
//   - stage tables with lipgloss
//   - cumulative delta-v and mass plots with asciigraph
//   - sparklines and status lines for the watch loop
package viz
