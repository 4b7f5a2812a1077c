package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kevin-ch-day/Nethira/internal/config"
	"github.com/kevin-ch-day/Nethira/internal/ui"
)

var menuChoices = []ui.Choice{
	{Key: "1", Label: "Connected devices"},
	{Key: "2", Label: "Apps by category"},
	{Key: "3", Label: "Scan packages"},
	{Key: "4", Label: "Version history"},
	{Key: "0", Label: "Exit"},
}

// Menu runs the interactive main menu until the user exits, input ends
// or ctx is cancelled. Failed actions are reported and the menu shown
// again.
func (a *App) Menu(ctx context.Context, version string) error {
	fmt.Fprint(a.p.Out(), a.p.RenderLogo(version))
	for {
		key, err := a.pr.Choose(ctx, "Main menu", menuChoices)
		if err != nil {
			return menuExit(ctx, err)
		}

		switch key {
		case "0":
			return nil
		case "1":
			err = a.Devices(ctx)
		case "2":
			err = a.Apps(ctx, AppsOptions{})
		case "3":
			err = a.Scan(ctx, nil, ScanOptions{})
		case "4":
			err = a.historyPrompt(ctx)
		}

		if err != nil {
			if errors.Is(err, ui.ErrInterrupted) || errors.Is(err, io.EOF) {
				return menuExit(ctx, err)
			}
			a.p.Error(err.Error())
		}
		fmt.Fprintln(a.p.Out())
	}
}

func (a *App) historyPrompt(ctx context.Context) error {
	pkg, err := a.pr.Line(ctx, "Package name: ")
	if err != nil {
		return err
	}
	if pkg == "" {
		return nil
	}
	return a.History(pkg)
}

// menuExit treats end of input as a normal exit.
func menuExit(ctx context.Context, err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return ui.ContextError(ctx, err)
}

// Init asks for configuration values and writes them to path. An existing
// file is only replaced after confirmation.
func Init(ctx context.Context, p *ui.Printer, pr *ui.Prompter, path string, defaults *config.Config) error {
	if path == "" {
		path = config.DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		ok, err := pr.Confirm(ctx, path+" exists. Overwrite?", false)
		if err != nil {
			return err
		}
		if !ok {
			p.Info("Left " + path + " unchanged")
			return nil
		}
	}

	cfg, err := config.RunWizard(ctx, p, pr, defaults)
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	p.Success("Wrote " + path)
	return nil
}
