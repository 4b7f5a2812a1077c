package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
)

// Spinner animates a status line on errOut while a blocking call runs.
type Spinner struct {
	p     *Printer
	msg   string
	style spinner.Spinner

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSpinner returns a stopped spinner. Without animation Start is a no-op.
func (p *Printer) NewSpinner(message string) *Spinner {
	style := spinner.MiniDot
	if !p.color {
		style = spinner.Line
	}
	return &Spinner{p: p, msg: message, style: style}
}

// Start begins the animation. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	if !s.p.animate {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop, s.done = make(chan struct{}), make(chan struct{})
	go s.run(s.stop, s.done)
}

func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.style.FPS)
	defer ticker.Stop()

	for i := 0; ; i++ {
		frame := s.style.Frames[i%len(s.style.Frames)]
		fmt.Fprintf(s.p.errOut, "\r%s %s", frame, s.msg)
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the animation and clears its line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	fmt.Fprint(s.p.errOut, "\r\033[K")
}

// StopWithError stops the spinner and prints message as an error.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	s.p.Error(message)
}

// Progress displays progress through a batch of items with an animated bar.
type Progress struct {
	p       *Printer
	total   int
	current int
	message string
	bar     progress.Model
	mu      sync.Mutex
}

// NewProgress creates a progress indicator over total items.
func (p *Printer) NewProgress(message string, total int) *Progress {
	opts := []progress.Option{progress.WithWidth(30), progress.WithoutPercentage()}
	if p.color {
		opts = append(opts, progress.WithDefaultGradient())
	} else {
		opts = append(opts, progress.WithFillCharacters('#', '-'), progress.WithColorProfile(p.renderer.ColorProfile()))
	}
	return &Progress{
		p:       p,
		message: message,
		total:   total,
		bar:     progress.New(opts...),
	}
}

// Step advances the bar by one item labelled label.
func (pr *Progress) Step(label string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.current++
	if !pr.p.animate {
		pr.p.Status(fmt.Sprintf("[%d/%d]", pr.current, pr.total), label)
		return
	}
	pct := 1.0
	if pr.total > 0 {
		pct = float64(pr.current) / float64(pr.total)
	}
	fmt.Fprintf(pr.p.errOut, "\r\033[K%s %s %d/%d %s", pr.message, pr.bar.ViewAs(pct), pr.current, pr.total, label)
}

// Done finishes the bar line.
func (pr *Progress) Done() {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if !pr.p.animate {
		return
	}
	fmt.Fprintf(pr.p.errOut, "\r\033[K%s %s %d/%d\n", pr.message, pr.bar.ViewAs(1.0), pr.current, pr.total)
}

// FormatBytes formats a byte count with binary units, e.g. "1.5 KB".
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
