package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// pickerHeight is the number of option rows shown at once.
const pickerHeight = 12

// picker is the bubbletea model behind Select and SelectMultiple. Typing
// "/" starts a fuzzy filter over the options.
type picker struct {
	title   string
	options []string
	multi   bool
	plain   bool
	styles  pickerStyles

	visible []int // option indices in display order
	cursor  int   // position in visible
	offset  int   // first rendered row
	height  int

	filtering bool
	query     string

	checked map[int]bool
	chosen  int
	aborted bool
}

type pickerStyles struct {
	title   lipgloss.Style
	cursor  lipgloss.Style
	current lipgloss.Style
	other   lipgloss.Style
	checked lipgloss.Style
	dim     lipgloss.Style
}

func (p *Printer) pickerStyles() pickerStyles {
	r := p.renderer
	if !p.color {
		plain := r.NewStyle()
		return pickerStyles{plain, plain, plain, plain, plain, plain}
	}
	return pickerStyles{
		title:   p.styles.Title,
		cursor:  r.NewStyle().Foreground(lipgloss.Color("#6b8c6b")),
		current: r.NewStyle().Foreground(lipgloss.Color("#e0e0e0")).Bold(true),
		other:   r.NewStyle().Foreground(lipgloss.Color("#808080")),
		checked: r.NewStyle().Foreground(lipgloss.Color("#6b8c6b")).Bold(true),
		dim:     p.styles.Dim,
	}
}

func (p *Printer) newPicker(title string, options []string, multi bool) picker {
	m := picker{
		title:   title,
		options: options,
		multi:   multi,
		plain:   !p.color,
		styles:  p.pickerStyles(),
		height:  pickerHeight,
		checked: make(map[int]bool),
		chosen:  -1,
	}
	m.refilter()
	return m
}

// refilter recomputes the visible rows for the current query, best match
// first, and resets the cursor.
func (m *picker) refilter() {
	m.visible = make([]int, 0, len(m.options))
	if m.query == "" {
		for i := range m.options {
			m.visible = append(m.visible, i)
		}
	} else {
		for _, match := range fuzzy.Find(m.query, m.options) {
			m.visible = append(m.visible, match.Index)
		}
	}
	m.cursor, m.offset = 0, 0
}

func (m *picker) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.visible)-1, m.cursor+delta))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m picker) current() (int, bool) {
	if len(m.visible) == 0 {
		return -1, false
	}
	return m.visible[m.cursor], true
}

func (m picker) Init() tea.Cmd {
	return nil
}

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.filtering {
		return m.updateFilter(key)
	}

	switch key.String() {
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.move(-m.height)
	case "pgdown":
		m.move(m.height)
	case "/":
		m.filtering = true
	case " ", "space", "x":
		if !m.multi {
			return m.confirm()
		}
		if idx, ok := m.current(); ok {
			m.toggle(idx)
		}
	case "a":
		if m.multi {
			m.toggleVisible()
		}
	case "enter":
		return m.confirm()
	case "ctrl+c", "q", "esc":
		m.aborted = true
		return m, tea.Quit
	default:
		// 1-9 pick a visible row directly
		if n, err := strconv.Atoi(key.String()); err == nil && !m.multi && n >= 1 && n <= len(m.visible) {
			m.chosen = m.visible[n-1]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m picker) updateFilter(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyEscape:
		m.filtering = false
		m.query = ""
		m.refilter()
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
			m.refilter()
		}
	case tea.KeyUp:
		m.move(-1)
	case tea.KeyDown:
		m.move(1)
	case tea.KeyRunes:
		m.query += string(key.Runes)
		m.refilter()
	}
	return m, nil
}

func (m picker) confirm() (tea.Model, tea.Cmd) {
	if m.multi {
		return m, tea.Quit
	}
	idx, ok := m.current()
	if !ok {
		return m, nil
	}
	m.chosen = idx
	return m, tea.Quit
}

func (m picker) toggle(idx int) {
	if m.checked[idx] {
		delete(m.checked, idx)
	} else {
		m.checked[idx] = true
	}
}

// toggleVisible checks every visible row, or unchecks them all when they
// are already checked.
func (m picker) toggleVisible() {
	all := true
	for _, idx := range m.visible {
		all = all && m.checked[idx]
	}
	for _, idx := range m.visible {
		if all {
			delete(m.checked, idx)
		} else {
			m.checked[idx] = true
		}
	}
}

func (m picker) selection() []int {
	var out []int
	for i := range m.options {
		if m.checked[i] {
			out = append(out, i)
		}
	}
	return out
}

func (m picker) hint() string {
	switch {
	case m.filtering:
		return "type to filter, enter done, esc clear"
	case m.multi && m.plain:
		return "up/down navigate, space toggle, a all, / filter, enter confirm"
	case m.multi:
		return "↑/↓ navigate • space toggle • a all • / filter • enter confirm"
	case m.plain:
		return "up/down navigate, / filter, enter select, q quit"
	}
	return "↑/↓ navigate • / filter • enter select • q quit"
}

func (m picker) View() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(m.styles.title.Render(m.title) + "\n")
	}
	b.WriteString(m.styles.dim.Render(m.hint()) + "\n")
	if m.filtering || m.query != "" {
		prompt := "Filter: " + m.query
		if m.filtering {
			prompt += "_"
		}
		b.WriteString(prompt + "\n")
	}
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(m.styles.dim.Render("  no matches") + "\n")
		return b.String()
	}

	end := min(len(m.visible), m.offset+m.height)
	for row := m.offset; row < end; row++ {
		idx := m.visible[row]
		at := row == m.cursor

		switch {
		case at && m.plain:
			b.WriteString("> ")
		case at:
			b.WriteString(m.styles.cursor.Render("› "))
		default:
			b.WriteString("  ")
		}

		if m.multi {
			switch {
			case m.checked[idx] && m.plain:
				b.WriteString("[x] ")
			case m.checked[idx]:
				b.WriteString(m.styles.checked.Render("● "))
			case m.plain:
				b.WriteString("[ ] ")
			default:
				b.WriteString("○ ")
			}
		}

		style := m.styles.other
		if at {
			style = m.styles.current
		} else if m.checked[idx] {
			style = m.styles.checked
		}
		b.WriteString(style.Render(m.options[idx]) + "\n")
	}
	if rest := len(m.visible) - end; rest > 0 {
		b.WriteString(m.styles.dim.Render(fmt.Sprintf("  (%d more)", rest)) + "\n")
	}
	return b.String()
}

func (p *Printer) runPicker(m picker) (picker, error) {
	final, err := tea.NewProgram(m, tea.WithOutput(p.errOut)).Run()
	if err != nil {
		return m, fmt.Errorf("selector failed: %w", err)
	}
	result := final.(picker)
	if result.aborted {
		return result, ErrInterrupted
	}
	return result, nil
}

// Select presents options for arrow-key selection and returns the chosen
// index. Aborting returns ErrInterrupted.
func (p *Printer) Select(title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("no options provided")
	}
	m, err := p.runPicker(p.newPicker(title, options, false))
	if err != nil {
		return -1, err
	}
	return m.chosen, nil
}

// SelectMultiple presents options for multiple selection. Space toggles
// a row and Enter confirms; the result is sorted.
func (p *Printer) SelectMultiple(title string, options []string) ([]int, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("no options provided")
	}
	m, err := p.runPicker(p.newPicker(title, options, true))
	if err != nil {
		return nil, err
	}
	return m.selection(), nil
}
