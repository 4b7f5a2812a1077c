// Package config handles YAML configuration parsing and validation.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kevin-ch-day/Nethira/internal/ledger"
	"github.com/kevin-ch-day/Nethira/internal/manifest"
	"github.com/kevin-ch-day/Nethira/internal/ui"
)

// DefaultFile is the config file looked up when --config is not given.
const DefaultFile = "nethira.yaml"

// Config represents the nethira.yaml configuration file.
type Config struct {
	// adb binary; empty searches platform_tools/ and PATH
	ADBPath string `yaml:"adb_path,omitempty"`

	// Root for pulled APKs, ledgers and reports
	OutputDir string `yaml:"output_dir,omitempty"`

	// auto, always or never
	Color string `yaml:"color,omitempty"`

	// Added to the built-in sensitive permission allowlist
	SensitivePermissions []string `yaml:"sensitive_permissions,omitempty"`

	// Enabled manifest decoders by name; empty enables all
	Decoders []string `yaml:"decoders,omitempty"`

	// Read signer certificates with full APK signature verification
	VerifySignatures bool `yaml:"verify_signatures,omitempty"`

	// SQLite scan archive path; empty disables the archive
	Store string `yaml:"store,omitempty"`

	// Per adb command timeout
	CommandTimeout time.Duration `yaml:"command_timeout,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	// BaseDir is the directory containing the config file (for relative paths).
	// Not parsed from YAML, set by Load().
	BaseDir string `yaml:"-"`
}

// LogConfig configures the diagnostic log.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	// Empty logs to stderr
	File string `yaml:"file,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Color == "" {
		c.Color = string(ui.ColorAuto)
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = 2 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, err
	}

	// Set base directory for relative path resolution
	absPath, err := filepath.Abs(path)
	if err == nil {
		cfg.BaseDir = filepath.Dir(absPath)
	}

	return cfg, nil
}

// LoadOrDefault loads path. When path was not given explicitly and the
// default file does not exist, defaults are returned instead.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(DefaultFile)
}

// Parse reads and parses config from a reader. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// ApplyEnv applies environment overrides. NETHIRA_ADB replaces adb_path and
// NETHIRA_OUTPUT replaces output_dir.
func (c *Config) ApplyEnv() {
	if v := GetEnv("NETHIRA_ADB"); v != "" {
		c.ADBPath = v
	}
	if v := GetEnv("NETHIRA_OUTPUT"); v != "" {
		c.OutputDir = v
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, ok := ui.ParseColorMode(c.Color); !ok {
		return fmt.Errorf("invalid color %q: must be auto, always or never", c.Color)
	}
	if _, err := manifest.ProvidersFor(c.Decoders); err != nil {
		return fmt.Errorf("invalid decoders: %w", err)
	}
	for _, p := range c.SensitivePermissions {
		if !strings.Contains(p, ".") || strings.ContainsAny(p, " \t,") {
			return fmt.Errorf("invalid sensitive permission %q: expected a dotted name like android.permission.CAMERA", p)
		}
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must not be negative")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format %q: must be text or json", c.Log.Format)
	}
	return nil
}

// ManifestProviders returns the decoder providers enabled by Decoders.
func (c *Config) ManifestProviders() ([]manifest.Provider, error) {
	if len(c.Decoders) == 0 {
		return manifest.DefaultProviders(), nil
	}
	return manifest.ProvidersFor(c.Decoders)
}

// ColorMode returns the parsed color preference.
func (c *Config) ColorMode() ui.ColorMode {
	m, _ := ui.ParseColorMode(c.Color)
	return m
}

// Resolve returns p relative to the config file's directory, or p itself
// when it is absolute or there is no config file.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Output returns the resolved output directory.
func (c *Config) Output() string { return c.Resolve(c.OutputDir) }

// PullDir is where pulled APKs are stored, one subdirectory per package.
func (c *Config) PullDir() string { return filepath.Join(c.Output(), "app_static_profiles") }

// LedgerPath is the version ledger CSV.
func (c *Config) LedgerPath() string { return filepath.Join(c.Output(), ledger.DefaultLedgerFile) }

// PullLogPath is the APK pull log CSV.
func (c *Config) PullLogPath() string { return filepath.Join(c.Output(), ledger.DefaultPullLogFile) }

// ReportDir is where scan and device reports are written.
func (c *Config) ReportDir() string { return filepath.Join(c.Output(), "reports") }

// StorePath is the resolved scan archive path, or "" when disabled.
func (c *Config) StorePath() string { return c.Resolve(c.Store) }

// Save writes c as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetEnv returns key from the environment, falling back to a KEY=value
// line in ./.env.
func GetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	data, err := os.ReadFile(".env")
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, key+"="); ok {
			return strings.Trim(v, `"'`)
		}
	}
	return ""
}
