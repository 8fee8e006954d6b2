package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// newTable returns a borderless table with bold cyan headers and the given
// per-column colors.
func newTable(w io.Writer, header []string, columns ...tablewriter.Colors) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)

	headerColors := make([]tablewriter.Colors, len(header))
	for i := range headerColors {
		headerColors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor}
	}
	table.SetHeaderColor(headerColors...)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	if len(columns) == len(header) {
		table.SetColumnColor(columns...)
	}
	return table
}
