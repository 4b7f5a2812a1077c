// Package ledger keeps the append-only CSV logs: the version ledger and
// the APK pull log.
package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// csvLog appends rows to a CSV file whose header is written once, when
// the file is created. Appends take an exclusive lock so concurrent
// writers never interleave or duplicate the header.
type csvLog struct {
	path     string
	header   []string
	lockWait time.Duration
}

func newCSVLog(path string, header []string) *csvLog {
	return &csvLog{path: path, header: header, lockWait: defaultLockWait}
}

func (c *csvLog) append(row []string) (err error) {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	lock := lockFor(c.path)
	if err := lock.acquire(c.lockWait); err != nil {
		return err
	}
	defer func() {
		if rerr := lock.release(); err == nil {
			err = rerr
		}
	}()

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	// One Write per append so a crash never leaves half a row.
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if fi.Size() == 0 {
		w.Write(c.header)
	}
	w.Write(row)
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append to %s: %w", c.path, err)
	}
	return f.Sync()
}

// rows returns every data row. A missing file yields no rows and no error.
func (c *csvLog) rows() ([][]string, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out [][]string
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c.path, err)
		}
		if first {
			first = false
			if slices.Equal(rec, c.header) {
				continue
			}
		}
		if len(rec) < len(c.header) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
