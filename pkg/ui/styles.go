package ui

import "github.com/charmbracelet/lipgloss"

var (
	condaGreen  = lipgloss.Color("#43b049")
	condaOrange = lipgloss.Color("#DB6015")
	mutedGray   = lipgloss.Color("#767676")
	errorRed    = lipgloss.Color("#E0463C")
)

type styles struct {
	header, headerTitle, headerInfo  lipgloss.Style
	footer                           lipgloss.Style
	pane, paneFocused                lipgloss.Style
	treeLabel, treeCursor, treeHover lipgloss.Style
	logo                             lipgloss.Style
	tableHeader, tableCell           lipgloss.Style
	tableBorder                      lipgloss.Style
	message, errorMessage            lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()
	border := lipgloss.RoundedBorder()

	return styles{
		header:       base.Padding(0, 1).Background(condaGreen).Foreground(lipgloss.Color("#FFFFFF")),
		headerTitle:  base.Bold(true),
		headerInfo:   base.Faint(true),
		footer:       base.Padding(0, 1),
		pane:         base.BorderStyle(border).BorderForeground(mutedGray),
		paneFocused:  base.BorderStyle(border).BorderForeground(condaGreen),
		treeLabel:    base,
		treeCursor:   base.Reverse(true),
		treeHover:    base.Bold(true),
		logo:         base.Foreground(condaGreen),
		tableHeader:  base.Bold(true).Foreground(condaGreen).Padding(0, 1),
		tableCell:    base.Padding(0, 1),
		tableBorder:  base.Foreground(mutedGray),
		message:      base.Padding(1, 2).Faint(true),
		errorMessage: base.Padding(1, 2).Foreground(errorRed),
	}
}
