// Package app implements the nethira commands on top of the analysis
// workflow: device listing, categorized package views, scans, ledger
// history, the watch loop and the interactive menu.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kevin-ch-day/Nethira/internal/categorize"
	"github.com/kevin-ch-day/Nethira/internal/device"
	"github.com/kevin-ch-day/Nethira/internal/report"
	"github.com/kevin-ch-day/Nethira/internal/ui"
	"github.com/kevin-ch-day/Nethira/internal/watch"
	"github.com/kevin-ch-day/Nethira/internal/workflow"
)

// ErrNoDevices is returned when no device is attached and ready.
var ErrNoDevices = errors.New("no ready device attached")

// App runs commands against one analyzer.
type App struct {
	p        *ui.Printer
	pr       *ui.Prompter
	logger   *logrus.Logger
	analyzer *workflow.Analyzer
	width    int
}

// New returns an App. width is the terminal width used for rendered
// summaries.
func New(p *ui.Printer, pr *ui.Prompter, logger *logrus.Logger, analyzer *workflow.Analyzer, width int) *App {
	if width <= 0 {
		width = 100
	}
	return &App{p: p, pr: pr, logger: logger, analyzer: analyzer, width: width}
}

// Devices prints every ready device with its property record.
func (a *App) Devices(ctx context.Context) error {
	ready, err := a.analyzer.Devices(ctx)
	if err != nil {
		return err
	}
	if len(ready) == 0 {
		return ErrNoDevices
	}
	for _, d := range ready {
		rec, err := a.analyzer.DeviceInfo(ctx, d.Serial)
		if err != nil {
			a.p.Error(err.Error())
			continue
		}
		a.printRecord(rec)
	}
	return nil
}

func (a *App) printRecord(rec device.Record) {
	a.p.Section("Device " + rec.Serial)
	fields := rec.Fields()
	items := make([]ui.KeyValue, len(fields))
	for i, f := range fields {
		items[i] = ui.KeyValue{Key: f[0], Value: f[1]}
	}
	a.p.KeyValues(items)
}

// SelectDevice returns serial when given, the only ready device when one
// is attached, and otherwise asks.
func (a *App) SelectDevice(ctx context.Context, serial string) (string, error) {
	if serial != "" {
		return serial, nil
	}
	ready, err := a.analyzer.Devices(ctx)
	if err != nil {
		return "", err
	}
	switch len(ready) {
	case 0:
		return "", ErrNoDevices
	case 1:
		return ready[0].Serial, nil
	}
	labels := make([]string, len(ready))
	for i, d := range ready {
		labels[i] = d.Serial
	}
	choices := ui.NumberedChoices(labels)
	key, err := a.pr.Choose(ctx, "Select a device", choices)
	if err != nil {
		return "", err
	}
	for i, c := range choices {
		if c.Key == key {
			return ready[i].Serial, nil
		}
	}
	return "", ui.ErrInvalidSelection
}

// AppsOptions controls Apps.
type AppsOptions struct {
	Serial   string
	Filter   string
	NoReport bool
}

// Apps prints the categorized package listing of a device and writes its
// device report.
func (a *App) Apps(ctx context.Context, opts AppsOptions) error {
	serial, err := a.SelectDevice(ctx, opts.Serial)
	if err != nil {
		return err
	}
	o, err := a.analyzer.DeviceOverview(ctx, serial)
	if err != nil {
		return err
	}

	if opts.Filter != "" {
		a.p.Section(fmt.Sprintf("Packages matching %q", opts.Filter))
		for _, pkg := range ui.FilterPackages(opts.Filter, o.Packages) {
			bucket, _ := o.Categories.BucketOf(pkg)
			a.p.Resultf("  %-50s %s", pkg, bucket)
		}
	} else {
		a.printCategories(o.Categories)
	}

	if len(o.Social) > 0 {
		a.p.Section("Social media")
		for _, platform := range categorize.Platforms() {
			if pkgs, ok := o.Social[platform]; ok {
				a.p.Resultf("  %s: %s", platform, strings.Join(pkgs, ", "))
			}
		}
	}

	if opts.NoReport {
		return nil
	}
	path, err := a.analyzer.WriteDeviceReport(o)
	if err != nil {
		return err
	}
	a.p.Success("Device report: " + path)
	return nil
}

func (a *App) printCategories(cats categorize.Result) {
	a.p.Section("Categories")
	var rows [][]string
	for _, s := range cats.Summarize() {
		rows = append(rows, []string{s.Bucket.Title(), fmt.Sprint(s.Count)})
	}
	a.p.Table([]string{"Category", "Packages"}, rows)

	for _, s := range cats.Summarize() {
		a.p.Section(fmt.Sprintf("%s (%d)", s.Bucket.Title(), s.Count))
		for _, pkg := range cats[s.Bucket] {
			a.p.Result("  " + pkg)
		}
	}
}

// ScanOptions controls Scan.
type ScanOptions struct {
	Serial   string
	Quick    bool
	PDF      bool
	Markdown bool
}

// Scan analyzes pkgs on a device. With no packages, user packages are
// offered for selection.
func (a *App) Scan(ctx context.Context, pkgs []string, opts ScanOptions) error {
	serial, err := a.SelectDevice(ctx, opts.Serial)
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		if pkgs, err = a.pickPackages(ctx, serial); err != nil {
			return err
		}
	}

	batch, err := a.analyzer.ScanPackages(ctx, serial, pkgs, workflow.ScanOptions{Quick: opts.Quick, PDF: opts.PDF})
	if err != nil {
		return err
	}
	return a.summarize(batch, opts.Markdown)
}

func (a *App) pickPackages(ctx context.Context, serial string) ([]string, error) {
	user, err := a.analyzer.Packages(ctx, serial, device.UserPackages)
	if err != nil {
		return nil, err
	}
	if len(user) == 0 {
		return nil, fmt.Errorf("no user-installed packages on %s", serial)
	}
	idx, err := a.pr.ChooseMany(ctx, "Select packages to scan", user)
	if err != nil {
		return nil, err
	}
	pkgs := make([]string, len(idx))
	for i, n := range idx {
		pkgs[i] = user[n]
	}
	return pkgs, nil
}

// Inspect analyzes local APK files. Arguments may be files, directories
// or glob patterns.
func (a *App) Inspect(ctx context.Context, args []string, pdf, markdown bool) error {
	if len(args) == 0 {
		return errors.New("inspect needs at least one APK file")
	}
	paths, err := ExpandInputs(args)
	if err != nil {
		return err
	}
	batch, err := a.analyzer.InspectFiles(ctx, paths, pdf)
	if err != nil {
		return err
	}
	return a.summarize(batch, markdown)
}

func (a *App) summarize(batch *workflow.Batch, markdown bool) error {
	a.p.Section("Results")
	if markdown {
		out, err := report.RenderMarkdown(report.Markdown(batch.Entries), a.p.Color(), a.width)
		if err != nil {
			return err
		}
		fmt.Fprint(a.p.Out(), out)
	} else {
		for _, line := range report.SummaryLines(batch.Entries) {
			a.p.Result(line)
		}
	}

	for _, path := range []string{batch.JSONPath, batch.CSVPath, batch.PDFPath} {
		if path != "" {
			a.p.Success("Report: " + path)
		}
	}
	if n := batch.Failed(); n > 0 {
		a.p.Warn(fmt.Sprintf("%d of %d packages could not be fully analyzed", n, len(batch.Entries)))
	}
	return nil
}

// History prints the version ledger for pkg. Rows where the content hash
// changed are marked.
func (a *App) History(pkg string) error {
	if pkg == "" {
		return errors.New("history needs a package name")
	}
	all, changes, err := a.analyzer.History(pkg)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		a.p.Info("No ledger entries for " + pkg)
		return nil
	}

	changed := make(map[int]bool)
	c := 0
	for i, e := range all {
		if c < len(changes) && changes[c] == e {
			changed[i] = true
			c++
		}
	}

	rows := make([][]string, len(all))
	for i, e := range all {
		mark := ""
		if changed[i] {
			mark = "*"
		}
		rows[i] = []string{e.Timestamp.Format("2006-01-02 15:04:05"), e.Version, shortHash(e.ContentHash), mark}
	}
	a.p.Section("History of " + pkg)
	a.p.Table([]string{"Time (UTC)", "Version", "SHA-256", "Changed"}, rows)
	a.p.Resultf("%d entries, %d distinct content changes", len(all), len(changes))
	return nil
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}

// Watch analyzes APKs dropped into dir until ctx is cancelled.
func (a *App) Watch(ctx context.Context, dir string, existing bool) error {
	if dir == "" {
		return errors.New("watch needs a directory")
	}
	var opts []watch.Option
	if existing {
		opts = append(opts, watch.WithExisting())
	}
	w, err := watch.New(dir, a.analyzer.WatchHandler(), a.logger, opts...)
	if err != nil {
		return err
	}
	a.p.Info(fmt.Sprintf("Watching %s for APK files (Ctrl+C to stop)", w.Dir()))
	return w.Run(ctx)
}
