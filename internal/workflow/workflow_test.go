package workflow

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin-ch-day/Nethira/internal/apktest"
	"github.com/kevin-ch-day/Nethira/internal/categorize"
	"github.com/kevin-ch-day/Nethira/internal/config"
	"github.com/kevin-ch-day/Nethira/internal/device"
	"github.com/kevin-ch-day/Nethira/internal/logging"
	"github.com/kevin-ch-day/Nethira/internal/risk"
	"github.com/kevin-ch-day/Nethira/internal/store"
	"github.com/kevin-ch-day/Nethira/internal/ui"
)

var cameraManifest = apktest.Manifest{
	Package:     "com.example.cam",
	VersionCode: 3,
	VersionName: "1.2",
	Permissions: []string{"android.permission.CAMERA", "android.permission.READ_SMS", "android.permission.INTERNET"},
	Components: []apktest.Component{
		{
			Kind:       "activity",
			Name:       "com.example.cam.Main",
			Exported:   "true",
			Actions:    []string{"android.intent.action.MAIN", "android.intent.action.SEND"},
			Categories: []string{"android.intent.category.LAUNCHER"},
		},
		{Kind: "service", Name: "com.example.cam.Sync", Exported: "false"},
	},
}

type harness struct {
	cfg    *config.Config
	fake   *device.Fake
	a      *Analyzer
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")

	fake := &device.Fake{
		Responses: map[string]string{},
		Failures:  map[string]error{},
		Files:     map[string]string{},
	}
	var out, errOut bytes.Buffer
	p := ui.New(&out, &errOut, false)
	logger := logging.Discard()

	opts = append([]Option{WithClient(device.NewClient(fake, logger))}, opts...)
	a, err := NewAnalyzer(cfg, p, logger, opts...)
	require.NoError(t, err)
	return &harness{cfg: cfg, fake: fake, a: a, out: &out, errOut: &errOut}
}

// install makes pkg pullable from the fake device.
func (h *harness) install(pkg, localAPK string) {
	remote := "/data/app/" + pkg + "-1/base.apk"
	h.fake.Responses["pm path "+pkg] = "package:" + remote + "\n"
	h.fake.Files[remote] = localAPK
}

func TestScanPackagesEndToEnd(t *testing.T) {
	encodings := []struct {
		name  string
		write func(testing.TB, string, string, apktest.Manifest) string
	}{
		{"binary manifest", apktest.WriteBinaryManifestAPK},
		{"text manifest", apktest.WriteManifestAPK},
	}
	for _, enc := range encodings {
		t.Run(enc.name, func(t *testing.T) {
			scanEndToEnd(t, enc.write)
		})
	}
}

func scanEndToEnd(t *testing.T, write func(testing.TB, string, string, apktest.Manifest) string) {
	h := newHarness(t)
	src := t.TempDir()

	h.install("com.example.cam", write(t, src, "cam.apk", cameraManifest))
	h.install("com.example.empty", apktest.WriteAPK(t, src, "empty.apk",
		apktest.Entry{Name: "classes.dex", Data: []byte("dex\n035\x00")},
	))
	h.fake.Failures["pm path com.example.gone"] = errors.New("device offline")

	batch, err := h.a.ScanPackages(context.Background(), "R58M",
		[]string{"com.example.cam", "com.example.empty", "com.example.gone"}, ScanOptions{})
	require.NoError(t, err)
	require.Len(t, batch.Entries, 3)
	assert.Equal(t, 2, batch.Failed())

	cam := batch.Entries[0]
	assert.Equal(t, "com.example.cam", cam.Package)
	assert.Len(t, cam.Suspicious, 2)
	assert.Len(t, cam.ExportedComponents, 1)
	assert.Len(t, cam.IntentActions, 2)
	assert.InDelta(t, 2.9, cam.Score, 1e-9)
	assert.Equal(t, risk.Low, cam.Level)
	assert.Equal(t, "3", cam.Version)
	assert.NotEmpty(t, cam.ContentHash)
	require.NotNil(t, cam.APK)
	assert.Equal(t, cam.ContentHash, cam.APK.SHA256)
	assert.Empty(t, cam.Error)

	empty := batch.Entries[1]
	assert.Equal(t, "com.example.empty", empty.Package)
	assert.Empty(t, empty.Permissions)
	assert.Empty(t, empty.Suspicious)
	assert.Contains(t, empty.Error, "AndroidManifest.xml")
	assert.NotEmpty(t, empty.ContentHash)

	gone := batch.Entries[2]
	assert.Equal(t, "com.example.gone", gone.Package)
	assert.Contains(t, gone.Error, "device offline")

	assert.Equal(t, []string{
		"shell pm path com.example.cam",
		"pull /data/app/com.example.cam-1/base.apk",
		"shell pm path com.example.empty",
		"pull /data/app/com.example.empty-1/base.apk",
		"shell pm path com.example.gone",
	}, h.fake.Calls)

	assert.FileExists(t, batch.JSONPath)
	assert.FileExists(t, batch.CSVPath)
	assert.Empty(t, batch.PDFPath)
	assert.Equal(t, h.cfg.ReportDir(), filepath.Dir(batch.JSONPath))

	history, changes, err := h.a.History("com.example.cam")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "3", history[0].Version)
	assert.Equal(t, cam.ContentHash, history[0].ContentHash)
	assert.Len(t, changes, 1)

	pulls, err := h.a.pulls.Records()
	require.NoError(t, err)
	require.Len(t, pulls, 2)
	assert.Equal(t, filepath.Join(h.cfg.PullDir(), "com.example.cam", "base.apk"), pulls[0].LocalPath)
	assert.Equal(t, cam.ContentHash, pulls[0].ContentHash)

	assert.Contains(t, h.errOut.String(), "com.example.cam  2.9 LOW  CAMERA,READ_SMS")
}

func TestScanPackagesRecordsRepeatedPulls(t *testing.T) {
	h := newHarness(t)
	h.install("com.example.cam", apktest.WriteManifestAPK(t, t.TempDir(), "cam.apk", cameraManifest))

	for i := 0; i < 2; i++ {
		_, err := h.a.ScanPackages(context.Background(), "R58M", []string{"com.example.cam"}, ScanOptions{})
		require.NoError(t, err)
	}

	history, changes, err := h.a.History("com.example.cam")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Len(t, changes, 1)
}

func TestQuickScan(t *testing.T) {
	h := newHarness(t)
	h.fake.Responses["dumpsys package com.example.cam"] = `
Packages:
  Package [com.example.cam] (1a2b3c):
    requested permissions:
      android.permission.CAMERA
      android.permission.INTERNET
    install permissions:
      android.permission.INTERNET: granted=true
    runtime permissions:
      android.permission.CAMERA: granted=false
`
	batch, err := h.a.ScanPackages(context.Background(), "R58M", []string{"com.example.cam"}, ScanOptions{Quick: true, PDF: true})
	require.NoError(t, err)
	require.Len(t, batch.Entries, 1)

	e := batch.Entries[0]
	assert.Equal(t, []string{"android.permission.CAMERA", "android.permission.INTERNET"}, e.Permissions)
	assert.Equal(t, []string{"android.permission.CAMERA"}, e.Suspicious)
	assert.InDelta(t, 1.0, e.Score, 1e-9)
	assert.FileExists(t, batch.PDFPath)
	assert.Equal(t, []string{"shell dumpsys package com.example.cam"}, h.fake.Calls)
}

func TestScanPackagesInterrupted(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.a.ScanPackages(ctx, "R58M", []string{"com.example.cam"}, ScanOptions{})
	assert.ErrorIs(t, err, ui.ErrInterrupted)
	assert.Empty(t, h.fake.Calls)
}

func TestInspectFilesWithStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	defer s.Close()

	h := newHarness(t, WithStore(s))
	dir := t.TempDir()
	good := apktest.WriteManifestAPK(t, dir, "cam.apk", cameraManifest)
	corrupt := filepath.Join(dir, "corrupt.apk")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a zip"), 0644))

	batch, err := h.a.InspectFiles(ctx, []string{corrupt, good}, false)
	require.NoError(t, err)
	require.Len(t, batch.Entries, 2)
	assert.Equal(t, "corrupt", batch.Entries[0].Package)
	assert.NotEmpty(t, batch.Entries[0].Error)
	assert.Equal(t, "com.example.cam", batch.Entries[1].Package)

	latest, err := s.LatestByPackage(ctx, "com.example.cam")
	require.NoError(t, err)
	assert.Equal(t, good, latest.Source)
	assert.Equal(t, batch.Entries[1].ContentHash, latest.ContentHash)

	same, err := s.ListByHash(ctx, latest.ContentHash)
	require.NoError(t, err)
	assert.Len(t, same, 1)
}

func TestWatchHandler(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	handle := h.a.WatchHandler()

	require.NoError(t, handle(context.Background(), apktest.WriteManifestAPK(t, dir, "cam.apk", cameraManifest)))
	err := handle(context.Background(), apktest.WriteAPK(t, dir, "bare.apk"))
	assert.Error(t, err)

	history, _, err := h.a.History("com.example.cam")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDeviceOverview(t *testing.T) {
	h := newHarness(t)
	h.fake.DevicesOutput = "List of devices attached\nR58M\tdevice\nEMU1\toffline\n"
	h.fake.Responses["getprop"] = "[ro.product.model]: [SM-G970U]\n[ro.product.manufacturer]: [samsung]\n"
	h.fake.Responses["pm list packages"] = "package:com.samsung.android.app.notes\npackage:com.facebook.katana\npackage:com.google.android.gms\npackage:org.example.user\n"
	h.fake.Responses["pm list packages -s"] = "package:com.samsung.android.app.notes\npackage:com.google.android.gms\n"
	h.fake.Responses["pm list packages -3"] = "package:com.facebook.katana\npackage:org.example.user\n"

	ready, err := h.a.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "R58M", ready[0].Serial)

	o, err := h.a.DeviceOverview(context.Background(), "R58M")
	require.NoError(t, err)
	assert.Equal(t, "SM-G970U", o.Record.Model)
	assert.Equal(t, []string{"com.samsung.android.app.notes"}, o.Categories[categorize.Manufacturer])
	assert.Equal(t, []string{"com.facebook.katana"}, o.Categories[categorize.Facebook])
	assert.Equal(t, []string{"org.example.user"}, o.Categories[categorize.User])
	assert.Equal(t, []string{"com.facebook.katana"}, o.Social["facebook"])

	path, err := h.a.WriteDeviceReport(o)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "report_R58M_")
}

func TestAnalyzerWithoutClient(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	a, err := NewAnalyzer(cfg, ui.New(&bytes.Buffer{}, &bytes.Buffer{}, false), logging.Discard())
	require.NoError(t, err)

	_, err = a.Devices(context.Background())
	assert.Error(t, err)
	e := a.PullAndAnalyze(context.Background(), "R58M", "com.example")
	assert.NotEmpty(t, e.Error)
}
