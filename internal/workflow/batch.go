package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kevin-ch-day/Nethira/internal/report"
	"github.com/kevin-ch-day/Nethira/internal/ui"
)

// ScanOptions selects how device packages are analyzed.
type ScanOptions struct {
	// Quick scans permissions from dumpsys output instead of pulling.
	Quick bool
	// PDF also writes a PDF report.
	PDF bool
}

// Batch is the outcome of one multi-package run.
type Batch struct {
	Entries  []report.Entry
	JSONPath string
	CSVPath  string
	PDFPath  string
}

// Failed counts entries that carry an error.
func (b *Batch) Failed() int {
	n := 0
	for _, e := range b.Entries {
		if e.Error != "" {
			n++
		}
	}
	return n
}

// ScanPackages analyzes pkgs on serial in order and publishes reports.
// Every package yields an entry; only cancellation stops the batch early.
func (a *Analyzer) ScanPackages(ctx context.Context, serial string, pkgs []string, opts ScanOptions) (*Batch, error) {
	if err := a.requireClient(); err != nil {
		return nil, err
	}
	steps := a.p.NewStepTracker(2)

	steps.StartStep("Analyze Packages")
	entries, err := a.each(ctx, pkgs, func(pkg string) report.Entry {
		if opts.Quick {
			return a.QuickScan(ctx, serial, pkg)
		}
		return a.PullAndAnalyze(ctx, serial, pkg)
	})
	if err != nil {
		return nil, err
	}

	steps.StartStep("Write Reports")
	return a.publish(entries, serial, opts.PDF)
}

// InspectFiles analyzes local APK files and publishes reports.
func (a *Analyzer) InspectFiles(ctx context.Context, paths []string, pdf bool) (*Batch, error) {
	entries, err := a.each(ctx, paths, func(path string) report.Entry {
		return a.AnalyzeFile(ctx, path, packageFromFile(path), path)
	})
	if err != nil {
		return nil, err
	}
	return a.publish(entries, "", pdf)
}

func (a *Analyzer) each(ctx context.Context, items []string, analyze func(string) report.Entry) ([]report.Entry, error) {
	bar := a.p.NewProgress("Analyzing", len(items))
	defer bar.Done()

	entries := make([]report.Entry, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			return nil, ui.ContextError(ctx, ctx.Err())
		}
		bar.Step(item)
		e := analyze(item)
		a.printEntry(e)
		entries = append(entries, e)
	}
	return entries, nil
}

func (a *Analyzer) publish(entries []report.Entry, serial string, pdf bool) (*Batch, error) {
	b := &Batch{Entries: entries}
	var err error

	b.JSONPath, b.CSVPath, err = WithSpinner(a.p, "Writing reports...", func() (string, string, error) {
		return a.reports.ScanReports(entries)
	})
	if err != nil {
		return b, fmt.Errorf("write scan reports: %w", err)
	}

	if pdf {
		meta := report.PDFMeta{Title: "Nethira scan report", Serial: serial, GeneratedAt: time.Now()}
		b.PDFPath, err = a.reports.PDF(meta, entries)
		if err != nil {
			return b, fmt.Errorf("write PDF report: %w", err)
		}
	}
	return b, nil
}

// printEntry reports one package as it finishes.
func (a *Analyzer) printEntry(e report.Entry) {
	if e.Error != "" {
		a.p.WarningStatus("Skipped", fmt.Sprintf("%s: %s", e.Package, e.Error))
		return
	}
	level := a.p.Styles().LevelStyle(string(e.Level)).Render(string(e.Level))
	detail := fmt.Sprintf("%s  %.1f %s", e.Package, e.Score, level)
	if len(e.Suspicious) > 0 {
		short := make([]string, len(e.Suspicious))
		for i, s := range e.Suspicious {
			short[i] = strings.TrimPrefix(s, "android.permission.")
		}
		detail += "  " + strings.Join(short, ",")
	}
	a.p.Status("Scored", detail)
	if e.APK != nil {
		a.p.Detail("APK", fmt.Sprintf("%s  sha256:%.12s", ui.FormatBytes(e.APK.Size), e.APK.SHA256))
	}
}
