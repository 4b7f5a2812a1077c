// Package device talks to Android devices over adb: enumeration,
// properties, package listings and APK pulls.
package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Transport is the request/response channel to a device. Calls block
// until the command finishes or fails.
type Transport interface {
	// Devices returns the raw `adb devices` listing.
	Devices(ctx context.Context) (string, error)
	// Shell runs command on the device and returns its stdout.
	Shell(ctx context.Context, serial, command string) (string, error)
	// Pull copies remote to local.
	Pull(ctx context.Context, serial, remote, local string) error
}

// TransportError is an adb invocation that failed.
type TransportError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("adb %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrADBNotFound is returned when no adb binary can be located.
var ErrADBNotFound = errors.New("adb executable not found")

// LocateADB resolves the adb binary: an explicit path first, then a
// bundled platform_tools/ directory, then PATH.
func LocateADB(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("%w: %s", ErrADBNotFound, configured)
		}
		return configured, nil
	}

	name := "adb"
	if runtime.GOOS == "windows" {
		name = "adb.exe"
	}
	bundled := filepath.Join("platform_tools", name)
	if _, err := os.Stat(bundled); err == nil {
		return bundled, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", ErrADBNotFound
	}
	return path, nil
}

// ADB runs the adb command-line client.
type ADB struct {
	path    string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewADB returns a transport using the adb binary at path. A zero timeout
// leaves commands bounded only by ctx.
func NewADB(path string, timeout time.Duration, logger *logrus.Logger) *ADB {
	return &ADB{path: path, timeout: timeout, logger: logger}
}

func (a *ADB) Devices(ctx context.Context) (string, error) {
	return a.run(ctx, "devices")
}

func (a *ADB) Shell(ctx context.Context, serial, command string) (string, error) {
	return a.run(ctx, "-s", serial, "shell", command)
}

func (a *ADB) Pull(ctx context.Context, serial, remote, local string) error {
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return fmt.Errorf("create pull directory: %w", err)
	}
	_, err := a.run(ctx, "-s", serial, "pull", remote, local)
	return err
}

func (a *ADB) run(ctx context.Context, args ...string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, a.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	entry := a.logger.WithFields(logrus.Fields{
		"args":     strings.Join(args, " "),
		"duration": time.Since(start).Round(time.Millisecond),
	})
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		entry.WithError(err).Warn("adb command failed")
		return "", &TransportError{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	entry.Debug("adb command completed")
	return stdout.String(), nil
}
