// Package help renders CLI help output.
package help

import (
	"fmt"
	"strings"

	"github.com/kevin-ch-day/Nethira/internal/cli"
	"github.com/kevin-ch-day/Nethira/internal/ui"
)

type renderer struct {
	s ui.Styles
	b strings.Builder
}

func (r *renderer) heading(s string) {
	r.b.WriteString(r.s.Title.Render(s) + "\n")
}

func (r *renderer) line(s string) {
	r.b.WriteString(s + "\n")
}

// flag writes an aligned name/description pair.
func (r *renderer) flag(name, desc string) {
	padding := 26 - len(name)
	if padding < 1 {
		padding = 1
	}
	r.b.WriteString("  " + r.s.Accent.Render(name) + strings.Repeat(" ", padding) + desc + "\n")
}

func (r *renderer) example(cmd, desc string) {
	padding := 38 - len(cmd)
	if padding < 1 {
		padding = 1
	}
	r.b.WriteString("  " + r.s.Accent.Render(cmd) + strings.Repeat(" ", padding) + r.s.Dim.Render(desc) + "\n")
}

func (r *renderer) globalFlags() {
	r.heading("GLOBAL FLAGS")
	r.flag("-c, --config <file>", "Config file (default ./nethira.yaml)")
	r.flag("-v, --verbose", "Show details and debug logging")
	r.flag("-q", "Results and errors only")
	r.flag("--no-color", "Disable colored output")
	r.flag("--version", "Print version")
	r.flag("-h, --help", "Show help")
	r.line("")
}

var summaries = map[cli.Command]string{
	cli.CommandDevices: "List connected devices and their properties",
	cli.CommandApps:    "Categorize installed packages and write a device report",
	cli.CommandScan:    "Pull and analyze packages from a device",
	cli.CommandInspect: "Analyze local APK files",
	cli.CommandHistory: "Show the version ledger for a package",
	cli.CommandWatch:   "Analyze APKs dropped into a directory",
	cli.CommandMenu:    "Interactive menu (default)",
	cli.CommandInit:    "Create nethira.yaml interactively",
}

// Root returns the top-level help.
func Root(p *ui.Printer, version string) string {
	r := &renderer{s: p.Styles()}
	r.b.WriteString(p.RenderLogo(version))
	r.line("Android device and APK static risk analysis")
	r.line("")

	r.heading("USAGE")
	r.line("  nethira [global flags] <command> [args]")
	r.line("")

	r.heading("COMMANDS")
	for _, c := range cli.Commands {
		r.flag(string(c), summaries[c])
	}
	r.line("")

	r.heading("EXAMPLES")
	r.example("nethira devices", "Show attached devices")
	r.example("nethira apps --filter fcbk", "Fuzzy-find packages by name")
	r.example("nethira scan com.example.app", "Pull, scan and score one package")
	r.example("nethira scan --quick --pdf", "Pick packages, scan dumpsys, add a PDF")
	r.example("nethira inspect app.apk", "Analyze a local file")
	r.example("nethira watch ./drop", "Analyze APKs as they arrive")
	r.line("")

	r.globalFlags()

	r.heading("ENVIRONMENT")
	r.flag("NETHIRA_ADB", "adb binary (overrides adb_path)")
	r.flag("NETHIRA_OUTPUT", "Output directory (overrides output_dir)")
	r.flag("NO_COLOR", "Disable color when color is auto")
	r.flag("FORCE_COLOR", "Force color when color is auto")
	return r.b.String()
}

// Command returns help for one subcommand.
func Command(p *ui.Printer, cmd cli.Command) string {
	r := &renderer{s: p.Styles()}
	r.b.WriteString(r.s.Bold.Render("nethira "+string(cmd)) + " - " + summaries[cmd] + "\n\n")

	r.heading("USAGE")
	switch cmd {
	case cli.CommandApps:
		r.line("  nethira apps [-s serial] [--filter query] [--no-report]")
		r.line("")
		r.heading("FLAGS")
		r.flag("-s <serial>", "Device serial (prompted when several are attached)")
		r.flag("--filter <query>", "Fuzzy filter applied to package names")
		r.flag("--no-report", "Do not write report_<serial>_*.json")
	case cli.CommandScan:
		r.line("  nethira scan [-s serial] [--quick] [--pdf] [--markdown] [package ...]")
		r.line("")
		r.line("  With no packages, user-installed packages are offered for selection.")
		r.line("")
		r.heading("FLAGS")
		r.flag("-s <serial>", "Device serial")
		r.flag("--quick", "Scan dumpsys permissions without pulling the APK")
		r.flag("--pdf", "Also write a PDF report")
		r.flag("--markdown", "Render the summary as a table")
	case cli.CommandInspect:
		r.line("  nethira inspect [--pdf] [--markdown] <file.apk> ...")
		r.line("")
		r.heading("FLAGS")
		r.flag("--pdf", "Also write a PDF report")
		r.flag("--markdown", "Render the summary as a table")
	case cli.CommandHistory:
		r.line("  nethira history <package>")
	case cli.CommandWatch:
		r.line("  nethira watch [--existing] <dir>")
		r.line("")
		r.heading("FLAGS")
		r.flag("--existing", "Also analyze APKs already in the directory")
	default:
		r.line("  nethira " + string(cmd))
	}
	r.line("")
	r.globalFlags()
	return r.b.String()
}

// Show writes help for cmd, or the root help, to the printer's output.
func Show(p *ui.Printer, cmd cli.Command, version string) {
	if _, ok := summaries[cmd]; ok && cmd != cli.CommandMenu {
		fmt.Fprint(p.Out(), Command(p, cmd))
		return
	}
	fmt.Fprint(p.Out(), Root(p, version))
}
