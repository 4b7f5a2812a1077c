package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevin-ch-day/Nethira/internal/ui"
)

// RunWizard asks for each setting and returns the resulting config.
// If defaults is non-nil, those values are offered as the answers.
func RunWizard(ctx context.Context, p *ui.Printer, pr *ui.Prompter, defaults *Config) (*Config, error) {
	cfg := Default()
	if defaults != nil {
		*cfg = *defaults
	}

	p.Section("Nethira configuration")
	p.Info("Press Enter to keep the value in brackets.")

	var err error
	if cfg.ADBPath, err = pr.Default(ctx, "adb path (empty searches PATH)", cfg.ADBPath); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = pr.Default(ctx, "Output directory", cfg.OutputDir); err != nil {
		return nil, err
	}

	colorChoices := []ui.Choice{
		{Key: "1", Label: "auto"},
		{Key: "2", Label: "always"},
		{Key: "3", Label: "never"},
	}
	key, err := pr.Choose(ctx, "Color output", colorChoices)
	if err != nil {
		return nil, err
	}
	for _, c := range colorChoices {
		if c.Key == key {
			cfg.Color = c.Label
		}
	}

	if cfg.VerifySignatures, err = pr.Confirm(ctx, "Verify APK signatures when inspecting?", cfg.VerifySignatures); err != nil {
		return nil, err
	}

	storeDefault := cfg.Store
	if storeDefault == "" {
		storeDefault = "none"
	}
	store, err := pr.Default(ctx, "Scan archive database (none disables)", storeDefault)
	if err != nil {
		return nil, err
	}
	cfg.Store = store
	if strings.EqualFold(store, "none") {
		cfg.Store = ""
	}

	extra, err := pr.Default(ctx, "Extra sensitive permissions (comma separated)", strings.Join(cfg.SensitivePermissions, ","))
	if err != nil {
		return nil, err
	}
	cfg.SensitivePermissions = splitList(extra)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid answers: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
