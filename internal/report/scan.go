package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kevin-ch-day/Nethira/internal/apk"
	"github.com/kevin-ch-day/Nethira/internal/risk"
	"github.com/kevin-ch-day/Nethira/internal/scan"
)

// Entry is one analyzed package in a scan report.
type Entry struct {
	scan.Result
	Score       float64    `json:"score"`
	Level       risk.Level `json:"level"`
	Version     string     `json:"version,omitempty"`
	ContentHash string     `json:"content_hash,omitempty"`
	APK         *apk.Info  `json:"apk,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// NewEntry pairs a scan result with its assessment.
func NewEntry(r scan.Result) Entry {
	a := risk.Assess(r)
	return Entry{Result: r, Score: a.Score, Level: a.Level}
}

// csvHeader lists the scan report columns. The first three are fixed.
var csvHeader = []string{
	"package", "permissions", "suspicious",
	"exported_components", "intent_actions",
	"score", "level", "version", "content_hash", "error",
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return nil
}

// WriteCSV writes entries as CSV with list columns comma-joined.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, e := range entries {
		exported := make([]string, len(e.ExportedComponents))
		for i, c := range e.ExportedComponents {
			exported[i] = string(c.Kind) + ":" + c.Name
		}
		row := []string{
			e.Package,
			strings.Join(e.Permissions, ","),
			strings.Join(e.Suspicious, ","),
			strings.Join(exported, ","),
			strings.Join(e.IntentActions, ","),
			strconv.FormatFloat(e.Score, 'f', 1, 64),
			string(e.Level),
			e.Version,
			e.ContentHash,
			e.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ScanReports publishes the JSON and CSV forms of entries and returns
// their paths.
func (w *Writer) ScanReports(entries []Entry) (jsonPath, csvPath string, err error) {
	jsonPath, err = w.Publish("manifest", "json", func(out io.Writer) error {
		return WriteJSON(out, entries)
	})
	if err != nil {
		return "", "", err
	}
	csvPath, err = w.Publish("manifest", "csv", func(out io.Writer) error {
		return WriteCSV(out, entries)
	})
	if err != nil {
		return jsonPath, "", err
	}
	return jsonPath, csvPath, nil
}
