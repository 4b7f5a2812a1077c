package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidSelection is returned for input that names no offered choice.
var ErrInvalidSelection = errors.New("invalid selection")

// Prompter reads answers from in. When arrows is set, choices are offered
// with the arrow-key selector instead of typed numbers.
type Prompter struct {
	in     io.Reader
	p      *Printer
	arrows bool
}

// NewPrompter returns a prompter reading from in and echoing through p.
func NewPrompter(in io.Reader, p *Printer, arrows bool) *Prompter {
	return &Prompter{in: in, p: p, arrows: arrows}
}

// readLineResult holds the result of a non-blocking line read.
type readLineResult struct {
	line string
	err  error
}

// readLineAsync reads a line in a goroutine, one byte at a time so no
// input is buffered away from a later bubbletea program. The goroutine is
// abandoned if the context is cancelled.
func (pr *Prompter) readLineAsync() <-chan readLineResult {
	ch := make(chan readLineResult, 1)
	go func() {
		var line []byte
		buf := make([]byte, 1)
		for {
			n, err := pr.in.Read(buf)
			if n > 0 {
				if buf[0] == '\n' {
					ch <- readLineResult{line: strings.TrimSpace(string(line))}
					return
				}
				if buf[0] != '\r' {
					line = append(line, buf[0])
				}
			}
			if err != nil {
				if err == io.EOF && len(line) > 0 {
					ch <- readLineResult{line: strings.TrimSpace(string(line))}
					return
				}
				ch <- readLineResult{err: err}
				return
			}
		}
	}()
	return ch
}

// Line prints message and reads one line.
// Returns ErrInterrupted if ctx is cancelled first.
func (pr *Prompter) Line(ctx context.Context, message string) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInterrupted
	}

	fmt.Fprint(pr.p.out, message)

	select {
	case <-ctx.Done():
		fmt.Fprintln(pr.p.out)
		return "", ErrInterrupted
	case result := <-pr.readLineAsync():
		if result.err != nil {
			return "", result.err
		}
		return result.line, nil
	}
}

// Default asks for input with a default value.
func (pr *Prompter) Default(ctx context.Context, message, defaultValue string) (string, error) {
	if defaultValue != "" {
		message = fmt.Sprintf("%s [%s]: ", message, defaultValue)
	} else {
		message += ": "
	}

	input, err := pr.Line(ctx, message)
	if err != nil {
		return "", err
	}
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// Confirm asks for yes/no confirmation.
func (pr *Prompter) Confirm(ctx context.Context, message string, defaultYes bool) (bool, error) {
	suffix := " [y/N]: "
	if defaultYes {
		suffix = " [Y/n]: "
	}

	input, err := pr.Line(ctx, message+suffix)
	if err != nil {
		return false, err
	}

	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return defaultYes, nil
	}
	return input == "y" || input == "yes", nil
}

// Choice is one entry of a numbered menu.
type Choice struct {
	Key   string
	Label string
}

// NumberedChoices keys labels "1".."n".
func NumberedChoices(labels []string) []Choice {
	choices := make([]Choice, len(labels))
	for i, l := range labels {
		choices[i] = Choice{Key: strconv.Itoa(i + 1), Label: l}
	}
	return choices
}

// ParseChoice returns the key of the choice named by input.
func ParseChoice(input string, choices []Choice) (string, error) {
	input = strings.TrimSpace(input)
	for _, c := range choices {
		if input == c.Key {
			return c.Key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSelection, input)
}

// Choose offers choices and returns the chosen key, asking again until the
// answer is valid.
func (pr *Prompter) Choose(ctx context.Context, title string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	if pr.arrows {
		labels := make([]string, len(choices))
		for i, c := range choices {
			labels[i] = c.Label
		}
		idx, err := pr.p.Select(title, labels)
		if err != nil {
			return "", err
		}
		return choices[idx].Key, nil
	}

	for {
		fmt.Fprintln(pr.p.out, pr.p.styles.Title.Render(title))
		for _, c := range choices {
			fmt.Fprintf(pr.p.out, "  [%s] %s\n", c.Key, c.Label)
		}
		input, err := pr.Line(ctx, "Select: ")
		if err != nil {
			return "", err
		}
		key, err := ParseChoice(input, choices)
		if err == nil {
			return key, nil
		}
		pr.p.Warn(err.Error())
	}
}

// ParseSelection parses a multi-selection such as "1,3-5" or "all" over
// options numbered 1..n. It returns sorted 0-based indices.
func ParseSelection(input string, n int) ([]int, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSelection)
	}
	if input == "all" || input == "a" {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelection, part)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidSelection, part)
			}
		}
		if start < 1 || end > n || start > end {
			return nil, fmt.Errorf("%w: %q out of range 1-%d", ErrInvalidSelection, part, n)
		}
		for i := start; i <= end; i++ {
			seen[i-1] = true
		}
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// ChooseMany offers labels for multiple selection and returns 0-based
// indices, asking again until the answer is valid.
func (pr *Prompter) ChooseMany(ctx context.Context, title string, labels []string) ([]int, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no options provided")
	}
	if pr.arrows {
		return pr.p.SelectMultiple(title, labels)
	}

	for {
		fmt.Fprintln(pr.p.out, pr.p.styles.Title.Render(title))
		for i, l := range labels {
			fmt.Fprintf(pr.p.out, "  [%d] %s\n", i+1, l)
		}
		input, err := pr.Line(ctx, "Select (e.g. 1,3-5 or all): ")
		if err != nil {
			return nil, err
		}
		idx, err := ParseSelection(input, len(labels))
		if err == nil {
			return idx, nil
		}
		pr.p.Warn(err.Error())
	}
}
