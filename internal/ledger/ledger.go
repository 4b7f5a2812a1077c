package ledger

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultLedgerFile is the version ledger filename under the output dir.
const DefaultLedgerFile = "update_timeline.csv"

// TimestampLayout is UTC with second precision.
const TimestampLayout = "2006-01-02T15:04:05Z"

var ledgerHeader = []string{"timestamp", "package", "version", "content_hash"}

// Entry is one row of the version ledger.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Package     string    `json:"package"`
	Version     string    `json:"version"`
	ContentHash string    `json:"content_hash"`
}

// Ledger is an append-only lineage log of (package, version, hash).
// Re-recording identical content adds a new row.
type Ledger struct {
	log    *csvLog
	now    func() time.Time
	logger logrus.FieldLogger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets where skipped rows are reported.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithLockWait bounds how long Record waits for the file lock.
func WithLockWait(d time.Duration) Option {
	return func(l *Ledger) { l.log.lockWait = d }
}

// New returns a ledger stored at path.
func New(path string, opts ...Option) *Ledger {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	l := &Ledger{log: newCSVLog(path, ledgerHeader), now: time.Now, logger: quiet}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.log.path }

// Record appends an entry stamped with the current UTC second.
func (l *Ledger) Record(pkg, version, contentHash string) (Entry, error) {
	e := Entry{
		Timestamp:   l.now().UTC().Truncate(time.Second),
		Package:     pkg,
		Version:     version,
		ContentHash: contentHash,
	}
	row := []string{e.Timestamp.Format(TimestampLayout), e.Package, e.Version, e.ContentHash}
	if err := l.log.append(row); err != nil {
		return Entry{}, fmt.Errorf("record %s in ledger: %w", pkg, err)
	}
	return e, nil
}

// History returns the entries for pkg in storage order. A ledger that
// does not exist yet has no history. Rows with an unreadable timestamp
// are skipped.
func (l *Ledger) History(pkg string) ([]Entry, error) {
	rows, err := l.log.rows()
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, row := range rows {
		if row[1] != pkg {
			continue
		}
		ts, err := time.Parse(TimestampLayout, row[0])
		if err != nil {
			l.logger.WithFields(logrus.Fields{
				"package":   pkg,
				"timestamp": row[0],
			}).Warn("skipping ledger row with bad timestamp")
			continue
		}
		out = append(out, Entry{Timestamp: ts, Package: row[1], Version: row[2], ContentHash: row[3]})
	}
	return out, nil
}

// Changes reports the history entries whose content hash differs from the
// entry before them. The first entry always counts as a change.
func Changes(history []Entry) []Entry {
	var out []Entry
	prev := ""
	for _, e := range history {
		if e.ContentHash != prev {
			out = append(out, e)
		}
		prev = e.ContentHash
	}
	return out
}
