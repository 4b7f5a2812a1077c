package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kevin-ch-day/Nethira/internal/categorize"
)

// Attached is one line of `adb devices`.
type Attached struct {
	Serial string `json:"serial"`
	State  string `json:"state"`
}

// Ready reports whether the device accepts commands.
func (a Attached) Ready() bool { return a.State == "device" }

// Record holds a device's identifying properties. Properties that could
// not be read are empty.
type Record struct {
	Serial         string `json:"serial"`
	Model          string `json:"model"`
	Manufacturer   string `json:"manufacturer"`
	Device         string `json:"device"`
	AndroidVersion string `json:"android_version"`
	SDK            string `json:"sdk"`
	BuildID        string `json:"build_id"`
	SecurityPatch  string `json:"security_patch"`
	Fingerprint    string `json:"fingerprint"`
	Bootloader     string `json:"bootloader"`
	CPUABI         string `json:"cpu_abi"`
}

// propKeys maps getprop keys onto Record fields.
var propKeys = []struct {
	key   string
	field func(*Record) *string
}{
	{"ro.product.model", func(r *Record) *string { return &r.Model }},
	{"ro.product.manufacturer", func(r *Record) *string { return &r.Manufacturer }},
	{"ro.product.device", func(r *Record) *string { return &r.Device }},
	{"ro.build.version.release", func(r *Record) *string { return &r.AndroidVersion }},
	{"ro.build.version.sdk", func(r *Record) *string { return &r.SDK }},
	{"ro.build.display.id", func(r *Record) *string { return &r.BuildID }},
	{"ro.build.version.security_patch", func(r *Record) *string { return &r.SecurityPatch }},
	{"ro.build.fingerprint", func(r *Record) *string { return &r.Fingerprint }},
	{"ro.bootloader", func(r *Record) *string { return &r.Bootloader }},
	{"ro.product.cpu.abi", func(r *Record) *string { return &r.CPUABI }},
}

// Fields returns label/value pairs in display order.
func (r Record) Fields() [][2]string {
	return [][2]string{
		{"Serial", r.Serial},
		{"Model", r.Model},
		{"Manufacturer", r.Manufacturer},
		{"Device", r.Device},
		{"Android", r.AndroidVersion},
		{"SDK", r.SDK},
		{"Build", r.BuildID},
		{"Security patch", r.SecurityPatch},
		{"Fingerprint", r.Fingerprint},
		{"Bootloader", r.Bootloader},
		{"CPU ABI", r.CPUABI},
	}
}

// ListFilter selects a `pm list packages` variant.
type ListFilter string

const (
	AllPackages    ListFilter = ""
	SystemPackages ListFilter = "-s"
	UserPackages   ListFilter = "-3"
)

// ErrInvalidPackage is returned for names that are not package
// identifiers. They are refused before reaching the device shell.
var ErrInvalidPackage = errors.New("invalid package name")

var packagePattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// ValidatePackage reports whether pkg is safe to pass to pm and dumpsys
// and to use as a directory name.
func ValidatePackage(pkg string) error {
	if !packagePattern.MatchString(pkg) {
		return fmt.Errorf("%w: %q", ErrInvalidPackage, pkg)
	}
	return nil
}

// ErrNoPackagePath is returned when `pm path` reports nothing.
var ErrNoPackagePath = errors.New("package path not found on device")

// Client wraps a Transport with parsed device operations.
type Client struct {
	transport Transport
	logger    *logrus.Logger
}

// NewClient returns a client over t.
func NewClient(t Transport, logger *logrus.Logger) *Client {
	return &Client{transport: t, logger: logger}
}

// Transport returns the underlying transport.
func (c *Client) Transport() Transport { return c.transport }

// Devices lists attached devices in adb order.
func (c *Client) Devices(ctx context.Context) ([]Attached, error) {
	out, err := c.transport.Devices(ctx)
	if err != nil {
		return nil, err
	}
	return ParseDevices(out), nil
}

// ParseDevices parses `adb devices` output, skipping the banner and
// daemon notices.
func ParseDevices(out string) []Attached {
	var devices []Attached
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, Attached{Serial: fields[0], State: fields[1]})
	}
	return devices
}

// Info reads the device's properties with a single getprop call.
func (c *Client) Info(ctx context.Context, serial string) (Record, error) {
	rec := Record{Serial: serial}
	out, err := c.transport.Shell(ctx, serial, "getprop")
	if err != nil {
		return rec, fmt.Errorf("read properties of %s: %w", serial, err)
	}

	props := ParseProps(out)
	for _, pk := range propKeys {
		v, ok := props[pk.key]
		if !ok {
			c.logger.WithFields(logrus.Fields{"serial": serial, "prop": pk.key}).Debug("property missing")
		}
		*pk.field(&rec) = v
	}
	return rec, nil
}

// ParseProps parses `getprop` output lines of the form "[key]: [value]".
func ParseProps(out string) map[string]string {
	props := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, "]: [")
		if !ok || !strings.HasPrefix(key, "[") || !strings.HasSuffix(value, "]") {
			continue
		}
		props[key[1:]] = value[:len(value)-1]
	}
	return props
}

// Packages runs `pm list packages` with the given filter.
func (c *Client) Packages(ctx context.Context, serial string, filter ListFilter) ([]string, error) {
	cmd := "pm list packages"
	if filter != AllPackages {
		cmd += " " + string(filter)
	}
	out, err := c.transport.Shell(ctx, serial, cmd)
	if err != nil {
		return nil, err
	}
	return ParsePackageLines(out), nil
}

// Listing gathers the all/system/user package lists for categorization.
func (c *Client) Listing(ctx context.Context, serial, manufacturer string) (categorize.Input, error) {
	in := categorize.Input{Manufacturer: manufacturer}
	var err error
	if in.Packages, err = c.Packages(ctx, serial, AllPackages); err != nil {
		return in, err
	}
	if in.System, err = c.Packages(ctx, serial, SystemPackages); err != nil {
		return in, err
	}
	if in.User, err = c.Packages(ctx, serial, UserPackages); err != nil {
		return in, err
	}
	return in, nil
}

// ParsePackageLines extracts the values of "package:" lines.
func ParsePackageLines(out string) []string {
	var pkgs []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "package:"); ok && v != "" {
			pkgs = append(pkgs, strings.TrimSpace(v))
		}
	}
	return pkgs
}

// PackagePath returns the base APK path of pkg: the first `pm path` line.
func (c *Client) PackagePath(ctx context.Context, serial, pkg string) (string, error) {
	if err := ValidatePackage(pkg); err != nil {
		return "", err
	}
	out, err := c.transport.Shell(ctx, serial, "pm path "+pkg)
	if err != nil {
		return "", err
	}
	paths := ParsePackageLines(out)
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoPackagePath, pkg)
	}
	return paths[0], nil
}

// Dumpsys returns `dumpsys package <pkg>` output.
func (c *Client) Dumpsys(ctx context.Context, serial, pkg string) (string, error) {
	if err := ValidatePackage(pkg); err != nil {
		return "", err
	}
	return c.transport.Shell(ctx, serial, "dumpsys package "+pkg)
}

// PullPackage copies pkg's base APK into dir/<pkg>/ and returns the remote
// and local paths.
func (c *Client) PullPackage(ctx context.Context, serial, pkg, dir string) (remote, local string, err error) {
	remote, err = c.PackagePath(ctx, serial, pkg)
	if err != nil {
		return "", "", err
	}
	local = filepath.Join(dir, pkg, path.Base(remote))
	c.logger.WithFields(logrus.Fields{"package": pkg, "remote": remote, "local": local}).Info("pulling APK")
	if err := c.transport.Pull(ctx, serial, remote, local); err != nil {
		return "", "", err
	}
	return remote, local, nil
}
