package workflow

import (
	"context"
	"fmt"

	"github.com/kevin-ch-day/Nethira/internal/categorize"
	"github.com/kevin-ch-day/Nethira/internal/device"
	"github.com/kevin-ch-day/Nethira/internal/ledger"
	"github.com/kevin-ch-day/Nethira/internal/report"
)

// Devices lists attached devices ready for commands.
func (a *Analyzer) Devices(ctx context.Context) ([]device.Attached, error) {
	if err := a.requireClient(); err != nil {
		return nil, err
	}
	all, err := a.client.Devices(ctx)
	if err != nil {
		return nil, err
	}
	var ready []device.Attached
	for _, d := range all {
		if d.Ready() {
			ready = append(ready, d)
			continue
		}
		a.p.WarningStatus("Ignoring", fmt.Sprintf("%s (%s)", d.Serial, d.State))
	}
	return ready, nil
}

// DeviceInfo reads serial's property record.
func (a *Analyzer) DeviceInfo(ctx context.Context, serial string) (device.Record, error) {
	if err := a.requireClient(); err != nil {
		return device.Record{}, err
	}
	return WithSpinnerValue(a.p, "Reading device properties...", func() (device.Record, error) {
		return a.client.Info(ctx, serial)
	})
}

// Packages lists packages on serial.
func (a *Analyzer) Packages(ctx context.Context, serial string, filter device.ListFilter) ([]string, error) {
	if err := a.requireClient(); err != nil {
		return nil, err
	}
	return a.client.Packages(ctx, serial, filter)
}

// Overview is a device's record with its categorized package listing.
type Overview struct {
	Record     device.Record
	Categories categorize.Result
	Social     map[string][]string
	Packages   []string
}

// DeviceOverview reads serial's properties and package lists and
// categorizes them.
func (a *Analyzer) DeviceOverview(ctx context.Context, serial string) (*Overview, error) {
	rec, err := a.DeviceInfo(ctx, serial)
	if err != nil {
		return nil, err
	}
	in, err := WithSpinnerValue(a.p, "Listing packages...", func() (categorize.Input, error) {
		return a.client.Listing(ctx, serial, rec.Manufacturer)
	})
	if err != nil {
		return nil, fmt.Errorf("list packages on %s: %w", serial, err)
	}
	return &Overview{
		Record:     rec,
		Categories: categorize.Categorize(in),
		Social:     categorize.DetectSocial(in.Packages),
		Packages:   in.Packages,
	}, nil
}

// WriteDeviceReport publishes o as a device report JSON.
func (a *Analyzer) WriteDeviceReport(o *Overview) (string, error) {
	return a.reports.DeviceReport(report.NewDeviceReport(o.Record, o.Categories, o.Social))
}

// History returns pkg's ledger entries and the subset where the content
// hash changed.
func (a *Analyzer) History(pkg string) (all, changes []ledger.Entry, err error) {
	all, err = a.ledger.History(pkg)
	if err != nil {
		return nil, nil, err
	}
	return all, ledger.Changes(all), nil
}
