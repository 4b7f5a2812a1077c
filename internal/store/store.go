// Package store archives scan results in SQLite so earlier analyses can be
// looked up by package or by content hash.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kevin-ch-day/Nethira/internal/report"
	"github.com/kevin-ch-day/Nethira/internal/risk"
)

// ErrNotFound is returned when no scan matches a lookup.
var ErrNotFound = errors.New("no archived scan")

// Scan is one archived analysis.
type Scan struct {
	ID          int64
	Package     string
	Version     string
	ContentHash string
	Score       float64
	Level       risk.Level
	Source      string
	ScannedAt   time.Time
	Entry       report.Entry
}

// Store reads and writes the scan archive.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time recorded for new scans.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens or creates the database at path and applies migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveScan archives e. source names where the APK came from, such as a
// device serial or a local path.
func (s *Store) SaveScan(ctx context.Context, e report.Entry, source string) (int64, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("encode scan %s: %w", e.Package, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scans(package, version, content_hash, score, level, source, result_json, scanned_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Package, e.Version, e.ContentHash, e.Score, string(e.Level), source, string(raw), s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("insert scan %s: %w", e.Package, err)
	}
	return res.LastInsertId()
}

const scanColumns = `id, package, version, content_hash, score, level, source, result_json, scanned_at`

// LatestByPackage returns the most recent scan of pkg.
func (s *Store) LatestByPackage(ctx context.Context, pkg string) (Scan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		WHERE package = ?
		ORDER BY scanned_at DESC, id DESC
		LIMIT 1
	`, pkg)
	sc, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Scan{}, fmt.Errorf("%s: %w", pkg, ErrNotFound)
	}
	return sc, err
}

// ListByHash returns every scan of content with the given hash, oldest
// first.
func (s *Store) ListByHash(ctx context.Context, contentHash string) ([]Scan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		WHERE content_hash = ?
		ORDER BY scanned_at ASC, id ASC
	`, contentHash)
	if err != nil {
		return nil, fmt.Errorf("query scans by hash: %w", err)
	}
	defer rows.Close()

	var out []Scan
	for rows.Next() {
		sc, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(r rowScanner) (Scan, error) {
	var (
		sc    Scan
		level string
		raw   string
		at    int64
	)
	if err := r.Scan(&sc.ID, &sc.Package, &sc.Version, &sc.ContentHash, &sc.Score, &level, &sc.Source, &raw, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scan{}, err
		}
		return Scan{}, fmt.Errorf("read scan row: %w", err)
	}
	sc.Level = risk.Level(level)
	sc.ScannedAt = time.Unix(0, at)
	if err := json.Unmarshal([]byte(raw), &sc.Entry); err != nil {
		return Scan{}, fmt.Errorf("decode scan %d: %w", sc.ID, err)
	}
	return sc, nil
}
