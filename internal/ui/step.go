package ui

import (
	"fmt"
	"strings"
)

// Logo is the ASCII art banner shown by the interactive menu.
const Logo = `
 _   _      _   _     _
| \ | | ___| |_| |__ (_)_ __ __ _
|  \| |/ _ \ __| '_ \| | '__/ _` + "`" + ` |
| |\  |  __/ |_| | | | | | | (_| |
|_| \_|\___|\__|_| |_|_|_|  \__,_|
`

// RenderLogo returns the styled logo with version underneath.
func (p *Printer) RenderLogo(version string) string {
	var result strings.Builder
	for _, line := range strings.Split(Logo, "\n") {
		if line != "" {
			result.WriteString(p.styles.Logo.Render(line) + "\n")
		}
	}
	result.WriteString("\n")
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	result.WriteString(p.styles.Dim.Render(version) + "\n\n")
	return result.String()
}

// StepTracker tracks progress through numbered steps of a run.
type StepTracker struct {
	p       *Printer
	current int
	total   int
}

// NewStepTracker creates a new step tracker with the given total number of steps.
func (p *Printer) NewStepTracker(total int) *StepTracker {
	return &StepTracker{p: p, total: total}
}

// StartStep begins a new step and prints its header.
func (s *StepTracker) StartStep(name string) {
	s.current++
	if s.p.Quiet() {
		return
	}

	w := s.p.errOut
	fmt.Fprintln(w)
	header := fmt.Sprintf(" %d/%d > %s", s.current, s.total, strings.ToUpper(name))
	if !s.p.color {
		header = fmt.Sprintf("=== STEP %d/%d: %s ===", s.current, s.total, strings.ToUpper(name))
	}
	fmt.Fprintln(w, s.p.styles.Bold.Render(header))
}

// Skip skips the current step number without printing anything.
func (s *StepTracker) Skip() {
	s.current++
}

// Current returns the current step number.
func (s *StepTracker) Current() int { return s.current }

// KeyValue represents a key-value pair for ordered summary output.
type KeyValue struct {
	Key   string
	Value string
}

// KeyValues prints aligned key-value pairs to out. Empty values print as N/A.
func (p *Printer) KeyValues(items []KeyValue) {
	width := 0
	for _, item := range items {
		width = max(width, len(item.Key)+1)
	}
	for _, item := range items {
		v := item.Value
		if v == "" {
			v = p.styles.Dim.Render("N/A")
		}
		fmt.Fprintf(p.out, "  %s  %s\n", p.styles.Bold.Render(fmt.Sprintf("%-*s", width, item.Key+":")), v)
	}
}
