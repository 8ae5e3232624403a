package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dikkadev/condatui/pkg/packages"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

var tableHeaders = []string{"Status", "Name", "Build", "Channel", "Size", "Description"}

const (
	descriptionColumn = 5
	minDescription    = 11

	// left and right border plus one separator between each pair of columns
	tableBorderWidth = 2 + 5
	// one space of padding on each side of each cell
	tableCellPadding = 2
)

func packageRow(p *packages.Package) []string {
	size := ""
	if p.Size() > 0 {
		size = humanize.Bytes(uint64(p.Size()))
	}
	return []string{p.Status(), p.Name(), p.Build(), p.Channel(), size, p.Description()}
}

// RenderPackageTable renders pkgs in the given order. The description column
// is shortened so each line fits in width; width <= 0 disables fitting.
func RenderPackageTable(pkgs []*packages.Package, width int, st styles) string {
	rows := make([][]string, len(pkgs))
	for i, p := range pkgs {
		rows[i] = packageRow(p)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.tableBorder).
		Headers(tableHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.tableHeader
			}
			return st.tableCell
		})

	if width > 0 {
		budget := descriptionBudget(rows, width)
		for _, row := range rows {
			row[descriptionColumn] = runewidth.Truncate(row[descriptionColumn], budget, "…")
		}
		if budget == minDescription {
			// even the fixed columns overflow; let the table squeeze them
			t.Width(width)
		}
	}

	return t.Rows(rows...).String()
}

// descriptionBudget returns how many cells the description column may use
func descriptionBudget(rows [][]string, width int) int {
	used := tableBorderWidth + len(tableHeaders)*tableCellPadding
	for col := range tableHeaders {
		if col == descriptionColumn {
			continue
		}
		w := lipgloss.Width(tableHeaders[col])
		for _, row := range rows {
			w = max(w, lipgloss.Width(row[col]))
		}
		used += w
	}
	return max(width-used, minDescription)
}
