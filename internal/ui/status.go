package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// VerbWidth is the fixed width for right-aligned action verbs in status lines.
const VerbWidth = 12

// Verbosity levels.
const (
	VerbQuiet   = -1 // -q: results + errors only
	VerbNormal  = 0  // default: status + results + errors
	VerbVerbose = 1  // -v: above + detail (hashes, paths)
)

// Printer writes results to out and status to errOut. Its color setting
// is decided once by the caller.
type Printer struct {
	out       io.Writer
	errOut    io.Writer
	color     bool
	animate   bool
	verbosity int
	renderer  *lipgloss.Renderer
	styles    Styles
}

// Option configures a Printer.
type Option func(*Printer)

// WithVerbosity sets the verbosity level (VerbQuiet..VerbVerbose).
func WithVerbosity(v int) Option {
	return func(p *Printer) { p.verbosity = v }
}

// WithAnimation enables spinners and redrawn progress bars. Leave it off
// when errOut is not a terminal.
func WithAnimation(on bool) Option {
	return func(p *Printer) { p.animate = on }
}

// New returns a Printer. color selects styled output or bracketed plain
// prefixes.
func New(out, errOut io.Writer, color bool, opts ...Option) *Printer {
	r := newRenderer(out, color)
	p := &Printer{
		out:      out,
		errOut:   errOut,
		color:    color,
		renderer: r,
		styles:   NewStyles(r, color),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Color reports whether this printer emits ANSI styling.
func (p *Printer) Color() bool { return p.color }

// Styles returns the printer's palette.
func (p *Printer) Styles() Styles { return p.styles }

// Out is where results go.
func (p *Printer) Out() io.Writer { return p.out }

// Quiet reports whether status output is suppressed.
func (p *Printer) Quiet() bool { return p.verbosity <= VerbQuiet }

func (p *Printer) statusLine(style lipgloss.Style, verb, detail string) string {
	return fmt.Sprintf("%s  %s", style.Render(fmt.Sprintf("%*s", VerbWidth, verb)), detail)
}

// Status prints a right-aligned verb and detail to errOut, for step
// progress such as "     Pulling  com.example.app". Suppressed in quiet mode.
func (p *Printer) Status(verb, detail string) {
	if p.Quiet() {
		return
	}
	fmt.Fprintln(p.errOut, p.statusLine(p.styles.Accent, verb, detail))
}

// Detail prints a status line only at -v.
func (p *Printer) Detail(verb, detail string) {
	if p.verbosity < VerbVerbose {
		return
	}
	fmt.Fprintln(p.errOut, p.statusLine(p.styles.Dim, verb, detail))
}

// WarningStatus prints a warning-colored status line. Shown in quiet mode.
func (p *Printer) WarningStatus(verb, detail string) {
	fmt.Fprintln(p.errOut, p.statusLine(p.styles.Warning, verb, detail))
}

// ErrorStatus prints an error-colored status line. Shown in quiet mode.
func (p *Printer) ErrorStatus(verb, detail string) {
	fmt.Fprintln(p.errOut, p.statusLine(p.styles.Error, verb, detail))
}

// Result writes scriptable output to out. Always prints.
func (p *Printer) Result(s string) {
	fmt.Fprintln(p.out, s)
}

// Resultf is Result with formatting.
func (p *Printer) Resultf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Success, Error, Warn and Info print a one-line message with a marker:
// a styled glyph in color mode, a bracketed tag otherwise.
func (p *Printer) Success(msg string) { p.marked(p.styles.Success, "✓", "[ OK  ]", msg) }
func (p *Printer) Error(msg string)   { p.marked(p.styles.Error, "✗", "[ERROR]", msg) }
func (p *Printer) Warn(msg string)    { p.marked(p.styles.Warning, "⚠", "[WARN ]", msg) }
func (p *Printer) Info(msg string)    { p.marked(p.styles.Info, "•", "[INFO ]", msg) }

func (p *Printer) marked(style lipgloss.Style, glyph, tag, msg string) {
	if p.color {
		fmt.Fprintf(p.errOut, "%s %s\n", style.Render(glyph), msg)
		return
	}
	fmt.Fprintf(p.errOut, "%s %s\n", tag, msg)
}

// Section prints a titled header line to out.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.out)
	if p.color {
		fmt.Fprintln(p.out, p.styles.Title.Render(title))
		return
	}
	fmt.Fprintf(p.out, "=== %s ===\n", title)
}

// FormatError builds a multi-line error message in "Error -> why -> fix" form.
// Use when the error has an actionable suggestion. Empty why/fix are omitted.
func FormatError(what, why, fix string) string {
	out := "Error: " + what
	if why != "" {
		out += "\n  " + string('→') + " " + why
	}
	if fix != "" {
		out += "\n  " + string('→') + " " + fix
	}
	return out
}
