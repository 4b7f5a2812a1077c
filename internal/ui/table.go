package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sahilm/fuzzy"
)

// Table prints rows under headers. Plain mode uses ASCII borders.
func (p *Printer) Table(headers []string, rows [][]string) {
	border := lipgloss.RoundedBorder()
	if !p.color {
		border = lipgloss.ASCIIBorder()
	}

	headerStyle := p.styles.Bold.Padding(0, 1)
	cellStyle := p.renderer.NewStyle().Padding(0, 1)

	t := table.New().
		Border(border).
		BorderStyle(p.styles.Dim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintln(p.out, t.Render())
}

// FilterPackages returns the packages matching query by fuzzy match, best
// match first. An empty query returns pkgs unchanged.
func FilterPackages(query string, pkgs []string) []string {
	if query == "" {
		return pkgs
	}
	matches := fuzzy.Find(query, pkgs)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
