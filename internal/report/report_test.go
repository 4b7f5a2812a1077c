package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin-ch-day/Nethira/internal/categorize"
	"github.com/kevin-ch-day/Nethira/internal/device"
	"github.com/kevin-ch-day/Nethira/internal/manifest"
	"github.com/kevin-ch-day/Nethira/internal/risk"
	"github.com/kevin-ch-day/Nethira/internal/scan"
)

func fixedWriter(t *testing.T) *Writer {
	t.Helper()
	n := 0
	return NewWriter(t.TempDir(),
		WithClock(func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }),
		WithIDs(func() string { n++; return fmt.Sprintf("id%06d", n) }),
	)
}

func sampleEntries() []Entry {
	camera := NewEntry(scan.Result{
		Package:     "com.example.cam",
		Permissions: []string{"android.permission.CAMERA", "android.permission.INTERNET", "android.permission.READ_SMS"},
		Suspicious:  []string{"android.permission.CAMERA", "android.permission.READ_SMS"},
		ExportedComponents: []scan.ExportedComponent{
			{Kind: manifest.KindActivity, Name: "com.example.cam.Main"},
		},
		IntentActions: []string{"android.intent.action.MAIN", "android.intent.action.SEND"},
	})
	camera.Version = "1.2"
	camera.ContentHash = "abc123"

	broken := NewEntry(scan.Empty("com.example.broken"))
	broken.Error = "manifest not found"
	return []Entry{camera, broken}
}

func TestNewEntryAssesses(t *testing.T) {
	e := sampleEntries()[0]
	assert.InDelta(t, 2.9, e.Score, 1e-9)
	assert.Equal(t, risk.Low, e.Level)
}

func TestWriterName(t *testing.T) {
	w := fixedWriter(t)
	assert.Equal(t, "manifest_20240309_140507_id000001.json", w.Name("manifest", "json"))
	assert.Equal(t, "manifest_20240309_140507_id000002.json", w.Name("manifest", "json"))
}

func TestPublishIsAtomic(t *testing.T) {
	w := fixedWriter(t)

	_, err := w.Publish("manifest", "json", func(out io.Writer) error {
		fmt.Fprint(out, "partial")
		return fmt.Errorf("boom")
	})
	require.EqualError(t, err, "boom")

	entries, err := os.ReadDir(w.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "failed publish must leave nothing behind")

	path, err := w.Publish("manifest", "json", func(out io.Writer) error {
		_, err := fmt.Fprint(out, "[]")
		return err
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	entries, err = os.ReadDir(w.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestScanReports(t *testing.T) {
	w := fixedWriter(t)
	jsonPath, csvPath, err := w.ScanReports(sampleEntries())
	require.NoError(t, err)
	assert.NotEqual(t, filepath.Base(jsonPath), filepath.Base(csvPath))
	assert.True(t, strings.HasPrefix(filepath.Base(jsonPath), "manifest_20240309_140507_"))

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "com.example.cam", decoded[0]["package"])
	assert.Equal(t, "LOW", decoded[0]["level"])
	assert.Equal(t, []any{}, decoded[1]["suspicious"])
	assert.Equal(t, "manifest not found", decoded[1]["error"])

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"package", "permissions", "suspicious"}, rows[0][:3])
	assert.Equal(t, "android.permission.CAMERA,android.permission.READ_SMS", rows[1][2])
	assert.Equal(t, "activity:com.example.cam.Main", rows[1][3])
	assert.Equal(t, "2.9", rows[1][5])
	assert.Equal(t, "", rows[2][2])
}

func TestWriteJSONDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteJSON(&a, sampleEntries()))
	require.NoError(t, WriteJSON(&b, sampleEntries()))
	assert.Equal(t, a.String(), b.String())

	var empty bytes.Buffer
	require.NoError(t, WriteJSON(&empty, nil))
	assert.Equal(t, "[]\n", empty.String())
}

func TestDeviceReport(t *testing.T) {
	w := fixedWriter(t)
	cats := categorize.Result{categorize.Google: {"com.google.android.gms"}}
	rep := NewDeviceReport(device.Record{Serial: "R58M", Model: "SM-G970U"}, cats, nil)

	path, err := w.DeviceReport(rep)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "report_R58M_20240309_140507_"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded struct {
		DeviceInfo    map[string]string   `json:"device_info"`
		AppCategories map[string][]string `json:"app_categories"`
		SocialMedia   map[string][]string `json:"social_media"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "SM-G970U", decoded.DeviceInfo["model"])
	assert.Equal(t, []string{"com.google.android.gms"}, decoded.AppCategories["google"])
	assert.Len(t, decoded.AppCategories, len(categorize.Buckets))
	assert.NotNil(t, decoded.AppCategories["tiktok"])
	assert.NotNil(t, decoded.SocialMedia)
	assert.Contains(t, string(raw), `"uncategorized": []`)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	meta := PDFMeta{Title: "Nethira scan report", Serial: "R58M", GeneratedAt: time.Unix(0, 0)}
	require.NoError(t, WritePDF(&buf, meta, sampleEntries()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	w := fixedWriter(t)
	path, err := w.PDF(meta, sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(path))
}

func TestSummaryLines(t *testing.T) {
	assert.Equal(t, []string{
		"com.example.cam: android.permission.CAMERA, android.permission.READ_SMS",
		"com.example.broken: no suspicious permissions",
	}, SummaryLines(sampleEntries()))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleEntries())
	assert.Contains(t, md, "| com.example.cam | 2.9 | LOW | `CAMERA`, `READ_SMS` |")
	assert.Contains(t, md, "| com.example.broken | 0.0 | LOW | _manifest not found_ |")

	out, err := RenderMarkdown(md, false, 100)
	require.NoError(t, err)
	assert.Contains(t, out, "com.example.cam")
}

func TestMarkdownEscapesErrorCells(t *testing.T) {
	broken := NewEntry(scan.Empty("com.example.broken"))
	broken.Error = "pull failed: a|b\nadb: device offline"

	md := Markdown([]Entry{broken})
	assert.Contains(t, md, `| com.example.broken | 0.0 | LOW | _pull failed: a\|b adb: device offline_ |`)

	rows := strings.Split(strings.TrimSpace(md), "\n")
	require.Len(t, rows, 5, "title, blank, header, rule and one row")
	assert.Equal(t, 5, strings.Count(rows[4], "|")-strings.Count(rows[4], `\|`))
}
