package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nconklindev/planilha/internal/present"
)

// renderPreview draws the first rows of a with the same colors the output
// workbook uses.
func renderPreview(a *present.Annotated, limit, width int) string {
	if a == nil || a.Table == nil || len(a.Table.Columns) == 0 || limit <= 0 {
		return ""
	}

	rows := a.Table.Strings()
	shown := min(limit, len(rows))

	headerStyle := lipgloss.NewStyle().
		Bold(a.Header.Bold).
		Foreground(lipgloss.Color(a.Header.Font)).
		Background(lipgloss.Color(a.Header.Fill)).
		Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor))).
		Headers(a.Table.Columns...).
		Rows(rows[:shown]...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			s := a.StyleAt(row, col)
			return lipgloss.NewStyle().
				Bold(s.Bold).
				Foreground(lipgloss.Color(s.Font)).
				Background(lipgloss.Color(s.Fill)).
				Padding(0, 1)
		})

	out := t.Render()
	if width > 0 && lipgloss.Width(out) > width {
		out = t.Width(width).Render()
	}
	if shown < len(rows) {
		out += "\n" + HelpStyle.Render(fmt.Sprintf("… %d more row(s) in the output file", len(rows)-shown))
	}
	return out
}
