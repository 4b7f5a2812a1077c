package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kevin-ch-day/Nethira/internal/categorize"
	"github.com/kevin-ch-day/Nethira/internal/device"
)

// DeviceReport is the per-device summary: properties, the category
// partition of installed packages and detected social media apps.
type DeviceReport struct {
	DeviceInfo    device.Record       `json:"device_info"`
	AppCategories categorize.Result   `json:"app_categories"`
	SocialMedia   map[string][]string `json:"social_media"`
}

// NewDeviceReport assembles a report. Empty buckets are kept as empty
// lists so every bucket appears in the output.
func NewDeviceReport(rec device.Record, cats categorize.Result, social map[string][]string) DeviceReport {
	buckets := make(categorize.Result, len(categorize.Buckets))
	for _, b := range categorize.Buckets {
		pkgs := cats[b]
		if pkgs == nil {
			pkgs = []string{}
		}
		buckets[b] = pkgs
	}
	if social == nil {
		social = map[string][]string{}
	}
	return DeviceReport{DeviceInfo: rec, AppCategories: buckets, SocialMedia: social}
}

// WriteDeviceJSON writes rep as indented JSON.
func WriteDeviceJSON(w io.Writer, rep DeviceReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode device report: %w", err)
	}
	return nil
}

// DeviceReport publishes rep as report_<serial>_<timestamp>_<id>.json.
func (w *Writer) DeviceReport(rep DeviceReport) (string, error) {
	return w.Publish("report_"+rep.DeviceInfo.Serial, "json", func(out io.Writer) error {
		return WriteDeviceJSON(out, rep)
	})
}
