package device

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestParseDevices(t *testing.T) {
	out := "* daemon not running; starting now at tcp:5037\n" +
		"* daemon started successfully\n" +
		"List of devices attached\n" +
		"ZY22ABCDEF\tdevice\n" +
		"emulator-5554\toffline\n" +
		"\n" +
		"R58M123\tunauthorized\n"

	got := ParseDevices(out)
	require.Len(t, got, 3)
	assert.Equal(t, Attached{Serial: "ZY22ABCDEF", State: "device"}, got[0])
	assert.True(t, got[0].Ready())
	assert.False(t, got[1].Ready())
	assert.Equal(t, "unauthorized", got[2].State)

	assert.Empty(t, ParseDevices("List of devices attached\n\n"))
}

func TestParseProps(t *testing.T) {
	props := ParseProps("[ro.product.model]: [moto g power]\n" +
		"[ro.build.version.sdk]: [33]\n" +
		"[persist.empty]: []\n" +
		"garbage line\n")
	assert.Equal(t, "moto g power", props["ro.product.model"])
	assert.Equal(t, "33", props["ro.build.version.sdk"])
	v, ok := props["persist.empty"]
	assert.True(t, ok)
	assert.Empty(t, v)
	assert.Len(t, props, 3)
}

func TestInfo(t *testing.T) {
	fake := &Fake{Responses: map[string]string{
		"getprop": "[ro.product.model]: [Pixel 7]\n" +
			"[ro.product.manufacturer]: [Google]\n" +
			"[ro.build.version.release]: [14]\n" +
			"[ro.build.version.sdk]: [34]\n",
	}}
	c := NewClient(fake, quietLogger())

	rec, err := c.Info(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.Serial)
	assert.Equal(t, "Pixel 7", rec.Model)
	assert.Equal(t, "Google", rec.Manufacturer)
	assert.Equal(t, "14", rec.AndroidVersion)
	assert.Equal(t, "34", rec.SDK)
	assert.Empty(t, rec.Bootloader)
	assert.Len(t, rec.Fields(), 11)
}

func TestInfoTransportFailure(t *testing.T) {
	boom := errors.New("device offline")
	c := NewClient(&Fake{Failures: map[string]error{"getprop": boom}}, quietLogger())

	_, err := c.Info(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestPackagesAndListing(t *testing.T) {
	fake := &Fake{Responses: map[string]string{
		"pm list packages":    "package:com.android.settings\npackage:com.example.app\n\n",
		"pm list packages -s": "package:com.android.settings\n",
		"pm list packages -3": "package:com.example.app\n",
	}}
	c := NewClient(fake, quietLogger())
	ctx := context.Background()

	all, err := c.Packages(ctx, "abc", AllPackages)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.android.settings", "com.example.app"}, all)

	in, err := c.Listing(ctx, "abc", "google")
	require.NoError(t, err)
	assert.Equal(t, all, in.Packages)
	assert.Equal(t, []string{"com.android.settings"}, in.System)
	assert.Equal(t, []string{"com.example.app"}, in.User)
	assert.Equal(t, "google", in.Manufacturer)
}

func TestPackagePath(t *testing.T) {
	fake := &Fake{Responses: map[string]string{
		"pm path com.example.app": "package:/data/app/~~x/com.example.app-1/base.apk\n" +
			"package:/data/app/~~x/com.example.app-1/split_config.arm64_v8a.apk\n",
	}}
	c := NewClient(fake, quietLogger())

	p, err := c.PackagePath(context.Background(), "abc", "com.example.app")
	require.NoError(t, err)
	assert.Equal(t, "/data/app/~~x/com.example.app-1/base.apk", p)

	_, err = c.PackagePath(context.Background(), "abc", "com.missing")
	assert.ErrorIs(t, err, ErrNoPackagePath)
}

func TestPullPackage(t *testing.T) {
	src := filepath.Join(t.TempDir(), "device-base.apk")
	require.NoError(t, os.WriteFile(src, []byte("apk bytes"), 0644))

	remote := "/data/app/com.example.app-1/base.apk"
	fake := &Fake{
		Responses: map[string]string{"pm path com.example.app": "package:" + remote + "\n"},
		Files:     map[string]string{remote: src},
	}
	c := NewClient(fake, quietLogger())
	out := t.TempDir()

	gotRemote, local, err := c.PullPackage(context.Background(), "abc", "com.example.app", out)
	require.NoError(t, err)
	assert.Equal(t, remote, gotRemote)
	assert.Equal(t, filepath.Join(out, "com.example.app", "base.apk"), local)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "apk bytes", string(data))
	assert.Equal(t, []string{"shell pm path com.example.app", "pull " + remote}, fake.Calls)
}

func TestRejectsInvalidPackageNames(t *testing.T) {
	fake := &Fake{Responses: map[string]string{}, Files: map[string]string{}}
	c := NewClient(fake, quietLogger())
	ctx := context.Background()

	for _, pkg := range []string{"", "com.example;reboot", "com.example app", "../../etc", "com..example", ".com", "com.example$(id)"} {
		_, err := c.PackagePath(ctx, "abc", pkg)
		assert.ErrorIs(t, err, ErrInvalidPackage, pkg)
		_, err = c.Dumpsys(ctx, "abc", pkg)
		assert.ErrorIs(t, err, ErrInvalidPackage, pkg)
		_, _, err = c.PullPackage(ctx, "abc", pkg, t.TempDir())
		assert.ErrorIs(t, err, ErrInvalidPackage, pkg)
	}
	assert.Empty(t, fake.Calls, "nothing reaches the device")

	for _, pkg := range []string{"com.example.app", "com.Example_2.app", "android"} {
		assert.NoError(t, ValidatePackage(pkg), pkg)
	}
}

func TestTransportErrorMessage(t *testing.T) {
	err := &TransportError{Args: []string{"-s", "abc", "shell", "getprop"}, Stderr: "error: device 'abc' not found", Err: errors.New("exit status 1")}
	assert.Equal(t, "adb -s abc shell getprop: exit status 1: error: device 'abc' not found", err.Error())
}

func TestLocateADBConfigured(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "adb")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	got, err := LocateADB(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	_, err = LocateADB(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrADBNotFound)
}
