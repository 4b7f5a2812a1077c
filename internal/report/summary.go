package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// SummaryLines returns one line per entry: "pkg: A, B" listing suspicious
// permissions, or "pkg: no suspicious permissions".
func SummaryLines(entries []Entry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		if len(e.Suspicious) == 0 {
			lines[i] = e.Package + ": no suspicious permissions"
			continue
		}
		lines[i] = e.Package + ": " + strings.Join(e.Suspicious, ", ")
	}
	return lines
}

// Markdown renders entries as a markdown table.
func Markdown(entries []Entry) string {
	var b strings.Builder
	b.WriteString("## Scan results\n\n")
	b.WriteString("| Package | Score | Level | Suspicious |\n")
	b.WriteString("|---|---:|:---:|---|\n")
	for _, e := range entries {
		suspicious := "-"
		if len(e.Suspicious) > 0 {
			short := make([]string, len(e.Suspicious))
			for i, p := range e.Suspicious {
				short[i] = "`" + strings.TrimPrefix(p, "android.permission.") + "`"
			}
			suspicious = strings.Join(short, ", ")
		}
		if e.Error != "" {
			suspicious = "_" + tableCell(e.Error) + "_"
		}
		fmt.Fprintf(&b, "| %s | %.1f | %s | %s |\n", tableCell(e.Package), e.Score, e.Level, suspicious)
	}
	return b.String()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// tableCell keeps s inside a single markdown table cell.
func tableCell(s string) string {
	return strings.TrimSpace(cellEscaper.Replace(s))
}

// RenderMarkdown renders md for the terminal. Without color the notty
// style is used so no escape codes are emitted.
func RenderMarkdown(md string, color bool, width int) (string, error) {
	style := "dark"
	if !color {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
