// Package cli handles command-line interface concerns.
package cli

import (
	"flag"
	"io"
	"strings"
)

// Command represents the active subcommand.
type Command string

const (
	CommandMenu    Command = "menu"
	CommandDevices Command = "devices"
	CommandApps    Command = "apps"
	CommandScan    Command = "scan"
	CommandInspect Command = "inspect"
	CommandHistory Command = "history"
	CommandWatch   Command = "watch"
	CommandInit    Command = "init"
)

// Commands lists every subcommand in help order.
var Commands = []Command{
	CommandDevices, CommandApps, CommandScan, CommandInspect,
	CommandHistory, CommandWatch, CommandMenu, CommandInit,
}

// GlobalOptions holds flags available at root level and shared across subcommands.
type GlobalOptions struct {
	Config  string
	Verbose bool
	Quiet   bool
	NoColor bool
	Version bool
	Help    bool
}

// AppsOptions holds flags for the apps subcommand.
type AppsOptions struct {
	Serial   string
	Filter   string
	NoReport bool
}

// ScanOptions holds flags for the scan subcommand.
type ScanOptions struct {
	Serial   string
	Quick    bool
	PDF      bool
	Markdown bool
}

// InspectOptions holds flags for the inspect subcommand.
type InspectOptions struct {
	PDF      bool
	Markdown bool
}

// WatchOptions holds flags for the watch subcommand.
type WatchOptions struct {
	Existing bool
}

// Options holds all CLI configuration options.
type Options struct {
	Command Command
	Args    []string // Remaining positional arguments

	Global  GlobalOptions
	Apps    AppsOptions
	Scan    ScanOptions
	Inspect InspectOptions
	Watch   WatchOptions
}

// Verbosity maps -q and -v onto printer verbosity levels.
func (o *Options) Verbosity() int {
	switch {
	case o.Global.Quiet:
		return -1
	case o.Global.Verbose:
		return 1
	}
	return 0
}

// Parse parses command-line arguments (without the program name). Flag
// errors are written to errOut and turn on Help, so the caller shows usage.
// With no command the interactive menu runs.
func Parse(args []string, errOut io.Writer) *Options {
	opts := &Options{Command: CommandMenu}

	root := flag.NewFlagSet("nethira", flag.ContinueOnError)
	root.SetOutput(errOut)
	globalFlags(root, opts)
	if err := root.Parse(args); err != nil {
		opts.Global.Help = true
		return opts
	}

	rest := root.Args()
	if len(rest) == 0 {
		return opts
	}
	cmd, rest := Command(rest[0]), rest[1:]

	fs := flag.NewFlagSet(string(cmd), flag.ContinueOnError)
	fs.SetOutput(errOut)
	globalFlags(fs, opts)
	valued := map[string]bool{"-c": true, "--config": true}

	switch cmd {
	case CommandApps:
		fs.StringVar(&opts.Apps.Serial, "s", "", "Device serial")
		fs.StringVar(&opts.Apps.Filter, "filter", "", "Fuzzy filter applied to package names")
		fs.BoolVar(&opts.Apps.NoReport, "no-report", false, "Do not write the device report")
		valued["-s"], valued["--filter"], valued["-filter"] = true, true, true
	case CommandScan:
		fs.StringVar(&opts.Scan.Serial, "s", "", "Device serial")
		fs.BoolVar(&opts.Scan.Quick, "quick", false, "Scan dumpsys permissions without pulling")
		fs.BoolVar(&opts.Scan.PDF, "pdf", false, "Also write a PDF report")
		fs.BoolVar(&opts.Scan.Markdown, "markdown", false, "Render the summary as a table")
		valued["-s"] = true
	case CommandInspect:
		fs.BoolVar(&opts.Inspect.PDF, "pdf", false, "Also write a PDF report")
		fs.BoolVar(&opts.Inspect.Markdown, "markdown", false, "Render the summary as a table")
	case CommandWatch:
		fs.BoolVar(&opts.Watch.Existing, "existing", false, "Also analyze APKs already in the directory")
	case CommandDevices, CommandHistory, CommandMenu, CommandInit:
	default:
		opts.Global.Help = true
		opts.Args = append([]string{string(cmd)}, rest...)
		return opts
	}
	opts.Command = cmd

	if err := fs.Parse(reorderArgsForFlagSet(rest, valued)); err != nil {
		opts.Global.Help = true
		return opts
	}
	opts.Args = fs.Args()
	return opts
}

func globalFlags(fs *flag.FlagSet, opts *Options) {
	fs.StringVar(&opts.Global.Config, "config", opts.Global.Config, "Config file (default ./nethira.yaml)")
	fs.StringVar(&opts.Global.Config, "c", opts.Global.Config, "Config file (alias)")
	fs.BoolVar(&opts.Global.Verbose, "v", opts.Global.Verbose, "Verbose output")
	fs.BoolVar(&opts.Global.Verbose, "verbose", opts.Global.Verbose, "Verbose output")
	fs.BoolVar(&opts.Global.Quiet, "q", opts.Global.Quiet, "Results and errors only")
	fs.BoolVar(&opts.Global.NoColor, "no-color", opts.Global.NoColor, "Disable colored output")
	fs.BoolVar(&opts.Global.Version, "version", opts.Global.Version, "Print version")
	fs.BoolVar(&opts.Global.Help, "h", opts.Global.Help, "Show help")
	fs.BoolVar(&opts.Global.Help, "help", opts.Global.Help, "Show help")
}

// reorderArgsForFlagSet moves flags before positional arguments, so
// "scan com.a --pdf" parses like "scan --pdf com.a".
func reorderArgsForFlagSet(args []string, valuedFlags map[string]bool) []string {
	var flags, positional []string
	terminated := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			terminated = true
			positional = append(positional, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "-") && arg != "-" {
			flags = append(flags, arg)
			if valuedFlags[arg] && !strings.Contains(arg, "=") && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	if terminated {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}
