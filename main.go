package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/kevin-ch-day/Nethira/internal/app"
	"github.com/kevin-ch-day/Nethira/internal/cli"
	"github.com/kevin-ch-day/Nethira/internal/config"
	"github.com/kevin-ch-day/Nethira/internal/device"
	"github.com/kevin-ch-day/Nethira/internal/help"
	"github.com/kevin-ch-day/Nethira/internal/logging"
	"github.com/kevin-ch-day/Nethira/internal/store"
	"github.com/kevin-ch-day/Nethira/internal/ui"
	"github.com/kevin-ch-day/Nethira/internal/workflow"
)

var version = "dev"

func main() {
	// Set up signal handler first - this handles Ctrl+C globally
	sigHandler := cli.NewSignalHandler(os.Stderr)
	defer sigHandler.Stop()

	os.Exit(run(sigHandler))
}

func run(sigHandler *cli.SignalHandler) int {
	ctx := sigHandler.Context()
	opts := cli.Parse(os.Args[1:], os.Stderr)

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))
	color := !opts.Global.NoColor && ui.ColorEnabled(cfg.ColorMode(), os.LookupEnv, stdoutTTY)
	p := ui.New(os.Stdout, os.Stderr, color,
		ui.WithVerbosity(opts.Verbosity()),
		ui.WithAnimation(term.IsTerminal(int(os.Stderr.Fd()))),
	)

	if opts.Global.Help {
		help.Show(p, opts.Command, version)
		return 0
	}
	if opts.Global.Version {
		fmt.Print(p.RenderLogo(version))
		fmt.Printf("nethira version %s\n", version)
		return 0
	}

	pr := ui.NewPrompter(os.Stdin, p, color && term.IsTerminal(int(os.Stdin.Fd())))

	if opts.Command == cli.CommandInit {
		if err := app.Init(ctx, p, pr, opts.Global.Config, cfg); err != nil {
			return exitCode(ctx, err)
		}
		return 0
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()
	if opts.Global.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	analyzerOpts, cleanup, err := setup(ctx, opts.Command, cfg, logger)
	if errors.Is(err, device.ErrADBNotFound) {
		fmt.Fprintln(os.Stderr, ui.FormatError(
			"adb was not found",
			err.Error(),
			"Install Android platform-tools, or set adb_path in nethira.yaml or NETHIRA_ADB",
		))
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	analyzer, err := workflow.NewAnalyzer(cfg, p, logger, analyzerOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	a := app.New(p, pr, logger, analyzer, terminalWidth())
	if err := dispatch(ctx, a, opts); err != nil {
		return exitCode(ctx, err)
	}
	return 0
}

// loadConfig reads --config or ./nethira.yaml, then applies environment
// overrides.
func loadConfig(opts *cli.Options) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.Global.Config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup opens the device client and scan archive. Commands that work on
// local files run without adb.
func setup(ctx context.Context, cmd cli.Command, cfg *config.Config, logger *logrus.Logger) ([]workflow.Option, func(), error) {
	var opts []workflow.Option
	cleanup := func() {}

	adbPath, err := device.LocateADB(cfg.ADBPath)
	switch {
	case err == nil:
		client := device.NewClient(device.NewADB(adbPath, cfg.CommandTimeout, logger), logger)
		opts = append(opts, workflow.WithClient(client))
	case needsDevice(cmd):
		return nil, cleanup, err
	default:
		logger.WithError(err).Debug("continuing without adb")
	}

	if path := cfg.StorePath(); path != "" {
		s, err := store.Open(ctx, path)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open scan archive: %w", err)
		}
		opts = append(opts, workflow.WithStore(s))
		cleanup = func() { s.Close() }
	}
	return opts, cleanup, nil
}

func needsDevice(cmd cli.Command) bool {
	switch cmd {
	case cli.CommandInspect, cli.CommandHistory, cli.CommandWatch:
		return false
	}
	return true
}

func dispatch(ctx context.Context, a *app.App, opts *cli.Options) error {
	args := opts.Args
	switch opts.Command {
	case cli.CommandDevices:
		return a.Devices(ctx)
	case cli.CommandApps:
		return a.Apps(ctx, app.AppsOptions(opts.Apps))
	case cli.CommandScan:
		return a.Scan(ctx, args, app.ScanOptions(opts.Scan))
	case cli.CommandInspect:
		return a.Inspect(ctx, args, opts.Inspect.PDF, opts.Inspect.Markdown)
	case cli.CommandHistory:
		if len(args) != 1 {
			return errors.New("usage: nethira history <package>")
		}
		return a.History(args[0])
	case cli.CommandWatch:
		if len(args) != 1 {
			return errors.New("usage: nethira watch [--existing] <dir>")
		}
		return a.Watch(ctx, args[0], opts.Watch.Existing)
	default:
		return a.Menu(ctx, version)
	}
}

// exitCode prints err and maps it to a process status.
func exitCode(ctx context.Context, err error) int {
	if errors.Is(err, ui.ErrInterrupted) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return cli.ExitInterrupted
	}
	if errors.Is(err, io.EOF) {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
