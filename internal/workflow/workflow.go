// Package workflow orchestrates the analysis pipeline: pull an APK from a
// device or take a local file, extract and decode its manifest, scan and
// score it, then record the result in the ledger, the archive and reports.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kevin-ch-day/Nethira/internal/apk"
	"github.com/kevin-ch-day/Nethira/internal/config"
	"github.com/kevin-ch-day/Nethira/internal/device"
	"github.com/kevin-ch-day/Nethira/internal/ledger"
	"github.com/kevin-ch-day/Nethira/internal/manifest"
	"github.com/kevin-ch-day/Nethira/internal/report"
	"github.com/kevin-ch-day/Nethira/internal/scan"
	"github.com/kevin-ch-day/Nethira/internal/store"
	"github.com/kevin-ch-day/Nethira/internal/ui"
)

// Analyzer runs the pipeline. It processes one package at a time because
// every device package shares a single adb transport.
type Analyzer struct {
	cfg     *config.Config
	p       *ui.Printer
	logger  *logrus.Logger
	client  *device.Client
	decoder *manifest.Decoder
	scanner *scan.Scanner
	signers apk.SignerInspector
	ledger  *ledger.Ledger
	pulls   *ledger.PullLog
	reports *report.Writer
	store   *store.Store
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClient sets the device client used by device operations.
func WithClient(c *device.Client) Option {
	return func(a *Analyzer) { a.client = c }
}

// WithStore enables the scan archive.
func WithStore(s *store.Store) Option {
	return func(a *Analyzer) { a.store = s }
}

// WithReportWriter replaces the default report writer.
func WithReportWriter(w *report.Writer) Option {
	return func(a *Analyzer) { a.reports = w }
}

// WithLedger replaces the default version ledger.
func WithLedger(l *ledger.Ledger) Option {
	return func(a *Analyzer) { a.ledger = l }
}

// NewAnalyzer builds an analyzer from cfg. Decoder providers and the
// signer inspector are fixed here; a provider that is missing or not
// supported yields UnsupportedError results later, never a panic.
func NewAnalyzer(cfg *config.Config, p *ui.Printer, logger *logrus.Logger, opts ...Option) (*Analyzer, error) {
	providers, err := cfg.ManifestProviders()
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:     cfg,
		p:       p,
		logger:  logger,
		decoder: manifest.NewDecoder(providers...),
		scanner: scan.New(scan.NewAllowlist(cfg.SensitivePermissions...)),
		signers: apk.DisabledSignerInspector{},
		ledger:  ledger.New(cfg.LedgerPath(), ledger.WithLogger(logger)),
		pulls:   ledger.NewPullLog(cfg.PullLogPath()),
		reports: report.NewWriter(cfg.ReportDir()),
	}
	if cfg.VerifySignatures {
		a.signers = apk.NewSignerInspector()
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Ledger returns the version ledger.
func (a *Analyzer) Ledger() *ledger.Ledger { return a.ledger }

// Reports returns the report writer.
func (a *Analyzer) Reports() *report.Writer { return a.reports }

func (a *Analyzer) requireClient() error {
	if a.client == nil {
		return errors.New("no device client configured")
	}
	return nil
}

// AnalyzeFile runs the static chain over a local APK. pkg names the entry
// when the manifest cannot supply a package name. Failures never escape:
// they are recorded in the entry's Error and its sets stay empty.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path, pkg, source string) report.Entry {
	log := a.logger.WithFields(logrus.Fields{"package": pkg, "file": path})

	hash, err := apk.HashFile(path)
	if err != nil {
		log.WithError(err).Warn("hash failed")
		return failedEntry(pkg, err)
	}

	raw, err := apk.ExtractManifest(path)
	if err != nil {
		if errors.Is(err, apk.ErrNotFound) {
			err = fmt.Errorf("%s: %w", apk.ManifestEntry, err)
		}
		log.WithError(err).Warn("manifest unavailable")
		e := failedEntry(pkg, err)
		e.ContentHash = hash
		return e
	}

	m, err := a.decoder.Decode(raw)
	if err != nil {
		if errors.Is(err, manifest.ErrUnsupported) {
			log.WithError(err).Warn("manifest format unsupported in this build")
		} else {
			log.WithError(err).Warn("manifest decode failed")
		}
		e := failedEntry(pkg, err)
		e.ContentHash = hash
		return e
	}

	res := a.scanner.Scan(m)
	if res.Package == "" {
		res.Package = pkg
	}
	entry := report.NewEntry(res)
	entry.Version = m.Version()
	entry.ContentHash = hash

	if _, err := a.ledger.Record(res.Package, entry.Version, hash); err != nil {
		log.WithError(err).Error("ledger append failed")
		a.p.Warn(fmt.Sprintf("%s: %v", res.Package, err))
	}

	info, err := apk.Inspect(path, a.signers)
	if err != nil {
		log.WithError(err).Warn("inspect failed")
	} else {
		entry.APK = info
	}

	a.archive(ctx, entry, source)
	log.WithFields(logrus.Fields{
		"score":      entry.Score,
		"level":      entry.Level,
		"suspicious": len(entry.Suspicious),
	}).Info("package analyzed")
	return entry
}

// archive saves entry to the scan archive when one is configured.
func (a *Analyzer) archive(ctx context.Context, entry report.Entry, source string) {
	if a.store == nil {
		return
	}
	if _, err := a.store.SaveScan(ctx, entry, source); err != nil {
		a.logger.WithError(err).WithField("package", entry.Package).Error("archive scan failed")
	}
}

// PullAndAnalyze pulls pkg's base APK from serial, logs the pull and runs
// AnalyzeFile over the copy. A transport failure yields an entry with only
// the package name and the error.
func (a *Analyzer) PullAndAnalyze(ctx context.Context, serial, pkg string) report.Entry {
	if err := a.requireClient(); err != nil {
		return failedEntry(pkg, err)
	}
	remote, local, err := a.client.PullPackage(ctx, serial, pkg, a.cfg.PullDir())
	if err != nil {
		a.logger.WithError(err).WithField("package", pkg).Warn("pull failed")
		return failedEntry(pkg, err)
	}

	hash, err := apk.HashFile(local)
	if err == nil {
		err = a.pulls.Append(ledger.PullRecord{
			Package:     pkg,
			RemotePath:  remote,
			LocalPath:   local,
			ContentHash: hash,
		})
	}
	if err != nil {
		a.logger.WithError(err).WithField("package", pkg).Error("pull log append failed")
	}

	return a.AnalyzeFile(ctx, local, pkg, serial)
}

// QuickScan scans pkg from `dumpsys package` output without pulling the
// APK. Only permission sets are available this way.
func (a *Analyzer) QuickScan(ctx context.Context, serial, pkg string) report.Entry {
	if err := a.requireClient(); err != nil {
		return failedEntry(pkg, err)
	}
	out, err := a.client.Dumpsys(ctx, serial, pkg)
	if err != nil {
		return failedEntry(pkg, err)
	}
	return report.NewEntry(a.scanner.ScanDumpsys(pkg, out))
}

// WatchHandler returns a handler that analyzes one dropped APK and prints
// its verdict. Its error reports a failed analysis so the watcher can log it.
func (a *Analyzer) WatchHandler() func(ctx context.Context, path string) error {
	return func(ctx context.Context, path string) error {
		e := a.AnalyzeFile(ctx, path, packageFromFile(path), path)
		a.printEntry(e)
		if e.Error != "" {
			return errors.New(e.Error)
		}
		return nil
	}
}

func failedEntry(pkg string, err error) report.Entry {
	e := report.NewEntry(scan.Empty(pkg))
	e.Error = err.Error()
	return e
}

// packageFromFile names a local APK before its manifest is read.
func packageFromFile(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
