// Package watch runs a handler for every APK file dropped into a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Handler processes one file. Handlers run one at a time.
type Handler func(ctx context.Context, path string) error

// Watcher watches a single directory for *.apk files.
type Watcher struct {
	dir      string
	handler  Handler
	logger   *logrus.Logger
	debounce time.Duration
	settle   time.Duration
	attempts int
	existing bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must stay quiet after its last event
// before it is handled.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithSettle sets the interval between the two size checks that decide
// whether a file has finished writing.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// WithExisting makes Run handle APKs already present in the directory
// before it starts watching.
func WithExisting() Option {
	return func(w *Watcher) { w.existing = true }
}

// New returns a watcher for dir. The directory is created if missing.
func New(dir string, handler Handler, logger *logrus.Logger, opts ...Option) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create watch directory: %w", err)
	}
	w := &Watcher{
		dir:      dir,
		handler:  handler,
		logger:   logger,
		debounce: 2 * time.Second,
		settle:   500 * time.Millisecond,
		attempts: 10,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// IsAPK reports whether name has an .apk extension, ignoring case.
func IsAPK(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".apk")
}

// Run watches until ctx is cancelled. Handler errors are logged and do
// not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.WithField("dir", w.dir).Info("watching for APK files")

	if w.existing {
		if err := w.handleExisting(ctx); err != nil {
			return err
		}
	}

	due := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsAPK(event.Name) {
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"event": event.Op.String(),
				"file":  filepath.Base(event.Name),
			}).Debug("file event")

			if t, ok := timers[event.Name]; ok {
				t.Stop()
			}
			name := event.Name
			timers[name] = time.AfterFunc(w.debounce, func() {
				select {
				case due <- name:
				case <-ctx.Done():
				}
			})

		case path := <-due:
			delete(timers, path)
			w.handle(ctx, path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			w.logger.WithError(err).Error("watcher error")
		}
	}
}

func (w *Watcher) handleExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !IsAPK(entry.Name()) {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		w.handle(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, path string) {
	log := w.logger.WithField("file", path)
	if err := w.waitReady(ctx, path); err != nil {
		log.WithError(err).Warn("file not ready")
		return
	}
	log.Info("processing file")
	if err := w.handler(ctx, path); err != nil {
		log.WithError(err).Error("failed to process file")
		return
	}
	log.Debug("file processed")
}

// waitReady waits until the file has a non-zero size that is unchanged
// across one settle interval.
func (w *Watcher) waitReady(ctx context.Context, path string) error {
	for i := 0; i < w.attempts; i++ {
		before, err := os.Stat(path)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.settle):
		}
		after, err := os.Stat(path)
		if err != nil {
			return err
		}
		if before.Size() == after.Size() && after.Size() > 0 {
			return nil
		}
	}
	return fmt.Errorf("size still changing after %d checks", w.attempts)
}
