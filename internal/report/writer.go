// Package report writes scan and device reports. Every report is a new
// file with a timestamped, uniquely suffixed name, published atomically.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the timestamp embedded in report file names.
const TimestampLayout = "20060102_150405"

// Writer publishes report files into a directory.
type Writer struct {
	dir   string
	now   func() time.Time
	newID func() string
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the time source used in file names.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithIDs overrides the unique suffix generator.
func WithIDs(newID func() string) Option {
	return func(w *Writer) { w.newID = newID }
}

// NewWriter returns a writer publishing into dir.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir:   dir,
		now:   time.Now,
		newID: func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Name returns a fresh file name: <prefix>_<timestamp>_<id>.<ext>.
func (w *Writer) Name(prefix, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, w.now().Format(TimestampLayout), w.newID(), ext)
}

// Publish writes a new report file. Content is written to a temp file in
// the same directory, synced, then renamed into place, so readers never
// see a partial report.
func (w *Writer) Publish(prefix, ext string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(w.dir, w.Name(prefix, ext))

	tmp, err := os.CreateTemp(w.dir, "."+prefix+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish report: %w", err)
	}
	return path, nil
}
