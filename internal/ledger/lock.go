package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

const (
	lockRetryInterval = 10 * time.Millisecond
	defaultLockWait   = 5 * time.Second

	// staleLockAge is how old a lock file must be before it is treated as
	// left behind by a crashed writer.
	staleLockAge = 30 * time.Second
)

// ErrLockTimeout is returned when the lock could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for ledger lock")

// fileLock is an exclusive lock held by creating path+".lock" with O_EXCL.
// It works across processes on every platform Go supports.
type fileLock struct {
	path string
}

func lockFor(path string) *fileLock {
	return &fileLock{path: path + ".lock"}
}

func (l *fileLock) acquire(wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			return f.Close()
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create lock %s: %w", l.path, err)
		}

		if fi, statErr := os.Stat(l.path); statErr == nil && time.Since(fi.ModTime()) > staleLockAge {
			l.breakStale(fi)
			continue
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, l.path)
		}
		time.Sleep(lockRetryInterval)
	}
}

// breakStale removes the lock file last seen as stale. The file is first
// renamed aside so that two waiters cannot both delete it; if what got
// renamed is no longer the file seen, another waiter already replaced it
// and the fresh lock is linked back into place.
func (l *fileLock) breakStale(seen fs.FileInfo) {
	aside := fmt.Sprintf("%s.%d.%d.stale", l.path, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(l.path, aside); err != nil {
		return
	}
	if got, err := os.Stat(aside); err == nil && !(os.SameFile(seen, got) && got.ModTime().Equal(seen.ModTime())) {
		os.Link(aside, l.path)
	}
	os.Remove(aside)
}

func (l *fileLock) release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
