package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kevin-ch-day/Nethira/internal/ui"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "empty file uses defaults",
			yaml: ``,
			check: func(c *Config) bool {
				return c.OutputDir == "output" &&
					c.Color == "auto" &&
					c.CommandTimeout == 2*time.Minute &&
					c.Log.Level == "info" &&
					c.Log.Format == "text"
			},
		},
		{
			name: "full config",
			yaml: `
adb_path: /opt/platform-tools/adb
output_dir: results
color: never
sensitive_permissions:
  - android.permission.BODY_SENSORS
decoders: [binary-xml, text-xml]
verify_signatures: true
store: scans.db
command_timeout: 30s
log:
  level: debug
  format: json
  file: nethira.log
`,
			check: func(c *Config) bool {
				return c.ADBPath == "/opt/platform-tools/adb" &&
					c.OutputDir == "results" &&
					c.ColorMode() == ui.ColorNever &&
					len(c.SensitivePermissions) == 1 &&
					len(c.Decoders) == 2 &&
					c.VerifySignatures &&
					c.Store == "scans.db" &&
					c.CommandTimeout == 30*time.Second &&
					c.Log.Level == "debug" &&
					c.Log.Format == "json" &&
					c.Log.File == "nethira.log"
			},
		},
		{
			name:    "unknown key",
			yaml:    `adb: /usr/bin/adb`,
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "color: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(strings.NewReader(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.check != nil && !tt.check(cfg) {
				t.Errorf("Parse() check failed for %+v", cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad color", mutate: func(c *Config) { c.Color = "rainbow" }, wantErr: "invalid color"},
		{name: "bad decoder", mutate: func(c *Config) { c.Decoders = []string{"protobuf"} }, wantErr: "invalid decoders"},
		{name: "bad permission", mutate: func(c *Config) { c.SensitivePermissions = []string{"CAMERA"} }, wantErr: "invalid sensitive permission"},
		{name: "negative timeout", mutate: func(c *Config) { c.CommandTimeout = -time.Second }, wantErr: "command_timeout"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "invalid log level"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nethira.yaml")
	if err := os.WriteFile(path, []byte("output_dir: out\nstore: db/scans.db\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, dir)
	}
	if got, want := cfg.PullDir(), filepath.Join(dir, "out", "app_static_profiles"); got != want {
		t.Errorf("PullDir() = %q, want %q", got, want)
	}
	if got, want := cfg.LedgerPath(), filepath.Join(dir, "out", "update_timeline.csv"); got != want {
		t.Errorf("LedgerPath() = %q, want %q", got, want)
	}
	if got, want := cfg.PullLogPath(), filepath.Join(dir, "out", "apk_pull_log.csv"); got != want {
		t.Errorf("PullLogPath() = %q, want %q", got, want)
	}
	if got, want := cfg.StorePath(), filepath.Join(dir, "db", "scans.db"); got != want {
		t.Errorf("StorePath() = %q, want %q", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.OutputDir != "output" {
		t.Errorf("OutputDir = %q, want output", cfg.OutputDir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.ADBPath = "/usr/bin/adb"
	cfg.SensitivePermissions = []string{"android.permission.CAMERA"}
	cfg.CommandTimeout = 45 * time.Second

	path := filepath.Join(t.TempDir(), "nethira.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.ADBPath != cfg.ADBPath || got.CommandTimeout != cfg.CommandTimeout || len(got.SensitivePermissions) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestGetEnvFallsBackToDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NETHIRA_ADB", "")
	if err := os.WriteFile(".env", []byte("OTHER=1\nNETHIRA_ADB=\"/tmp/adb\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := GetEnv("NETHIRA_ADB"); got != "/tmp/adb" {
		t.Errorf("GetEnv() = %q, want /tmp/adb", got)
	}

	t.Setenv("NETHIRA_ADB", "/env/adb")
	cfg := Default()
	cfg.ApplyEnv()
	if cfg.ADBPath != "/env/adb" {
		t.Errorf("ApplyEnv() ADBPath = %q, want /env/adb", cfg.ADBPath)
	}
}

func TestManifestProviders(t *testing.T) {
	cfg := Default()
	all, err := cfg.ManifestProviders()
	if err != nil || len(all) != 3 {
		t.Fatalf("ManifestProviders() = %d providers, err %v", len(all), err)
	}
	cfg.Decoders = []string{"text-xml"}
	one, err := cfg.ManifestProviders()
	if err != nil || len(one) != 1 {
		t.Fatalf("ManifestProviders() = %d providers, err %v", len(one), err)
	}
}

func TestRunWizard(t *testing.T) {
	answers := strings.Join([]string{
		"",                          // adb path
		"scans",                     // output dir
		"3",                         // color: never
		"y",                         // verify signatures
		"archive.db",                // store
		"android.permission.CAMERA", // extra permissions
	}, "\n") + "\n"

	p := ui.New(io.Discard, io.Discard, false)
	pr := ui.NewPrompter(strings.NewReader(answers), p, false)

	cfg, err := RunWizard(context.Background(), p, pr, nil)
	if err != nil {
		t.Fatalf("RunWizard() error: %v", err)
	}
	if cfg.OutputDir != "scans" || cfg.Color != "never" || !cfg.VerifySignatures || cfg.Store != "archive.db" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.SensitivePermissions) != 1 || cfg.SensitivePermissions[0] != "android.permission.CAMERA" {
		t.Errorf("SensitivePermissions = %v", cfg.SensitivePermissions)
	}
}
