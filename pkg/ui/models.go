// Package ui provides the Bubble Tea TUI for the market-making engine.
package ui

import "github.com/fd1az/xvenue-mm/pkg/ui/components"

// newComponents builds the dashboard's sub-components.
func newComponents() (*components.QuotesComponent, *components.ActivityComponent, *components.StatsComponent) {
	return components.NewQuotesComponent(), components.NewActivityComponent(100), components.NewStatsComponent()
}
