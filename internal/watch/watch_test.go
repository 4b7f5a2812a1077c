package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	seen  chan string
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan string, 16)}
}

func (r *recorder) handle(_ context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.seen <- path
	if filepath.Base(path) == "bad.apk" {
		return errors.New("corrupt")
	}
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.PanicLevel)
	return l
}

func start(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func waitFor(t *testing.T, r *recorder) string {
	t.Helper()
	select {
	case p := <-r.seen:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
		return ""
	}
}

func TestIsAPK(t *testing.T) {
	assert.True(t, IsAPK("/tmp/app.apk"))
	assert.True(t, IsAPK("APP.APK"))
	assert.False(t, IsAPK("app.apk.part"))
	assert.False(t, IsAPK("notes.txt"))
}

func TestWatcherHandlesDroppedAPK(t *testing.T) {
	dir := t.TempDir()
	r := newRecorder()
	w, err := New(dir, r.handle, quietLogger(), WithDebounce(50*time.Millisecond), WithSettle(10*time.Millisecond))
	require.NoError(t, err)
	start(t, w)

	// fsnotify needs a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.apk"), []byte("PK"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.apk"), []byte("PK"), 0644))

	got := map[string]bool{}
	got[filepath.Base(waitFor(t, r))] = true
	got[filepath.Base(waitFor(t, r))] = true
	assert.Equal(t, map[string]bool{"bad.apk": true, "app.apk": true}, got)

	select {
	case p := <-r.seen:
		t.Errorf("unexpected extra call for %s", p)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherHandlesExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "present.apk"), []byte("PK"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.apk"), nil, 0644))

	r := newRecorder()
	w, err := New(dir, r.handle, quietLogger(), WithExisting(), WithSettle(5*time.Millisecond))
	require.NoError(t, err)
	w.attempts = 2
	start(t, w)

	assert.Equal(t, "present.apk", filepath.Base(waitFor(t, r)))
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drop", "apks")
	w, err := New(dir, newRecorder().handle, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, dir, w.Dir())
	assert.DirExists(t, dir)
}
