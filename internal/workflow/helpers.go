package workflow

import (
	"github.com/kevin-ch-day/Nethira/internal/ui"
)

// WithSpinner runs fn behind a spinner. The spinner is silent when the
// printer does not animate.
func WithSpinner[A, B any](p *ui.Printer, message string, fn func() (A, B, error)) (A, B, error) {
	spinner := p.NewSpinner(message)
	spinner.Start()

	a, b, err := fn()
	if err != nil {
		spinner.StopWithError(err.Error())
		return a, b, err
	}
	spinner.Stop()
	return a, b, nil
}

// WithSpinnerValue is WithSpinner for single-value calls.
func WithSpinnerValue[T any](p *ui.Printer, message string, fn func() (T, error)) (T, error) {
	v, _, err := WithSpinner(p, message, func() (T, struct{}, error) {
		v, err := fn()
		return v, struct{}{}, err
	})
	return v, err
}
