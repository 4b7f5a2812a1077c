// Package apktest builds synthetic APK containers and manifests for tests.
package apktest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// AndroidNS is the android: attribute namespace.
const AndroidNS = "http://schemas.android.com/apk/res/android"

// Component describes one <activity>, <provider>, <receiver> or <service>.
// Exported is written verbatim; empty omits the attribute.
type Component struct {
	Kind       string
	Name       string
	Exported   string
	Actions    []string
	Categories []string
}

// Manifest describes an AndroidManifest.xml fixture.
type Manifest struct {
	Package     string
	VersionCode int
	VersionName string
	MinSDK      int
	TargetSDK   int
	Permissions []string
	Components  []Component
}

// Node is an element of a manifest tree.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
}

// Attr is an element attribute. Value is a string, int or bool.
type Attr struct {
	Android bool
	Name    string
	Value   any
}

func (a Attr) text() string {
	switch v := a.Value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	default:
		return a.Value.(string)
	}
}

// Tree converts m into an element tree.
func (m Manifest) Tree() *Node {
	root := &Node{Name: "manifest", Attrs: []Attr{{Name: "package", Value: m.Package}}}
	if m.VersionCode != 0 {
		root.Attrs = append(root.Attrs, Attr{Android: true, Name: "versionCode", Value: m.VersionCode})
	}
	if m.VersionName != "" {
		root.Attrs = append(root.Attrs, Attr{Android: true, Name: "versionName", Value: m.VersionName})
	}

	if m.MinSDK != 0 || m.TargetSDK != 0 {
		sdk := &Node{Name: "uses-sdk"}
		if m.MinSDK != 0 {
			sdk.Attrs = append(sdk.Attrs, Attr{Android: true, Name: "minSdkVersion", Value: m.MinSDK})
		}
		if m.TargetSDK != 0 {
			sdk.Attrs = append(sdk.Attrs, Attr{Android: true, Name: "targetSdkVersion", Value: m.TargetSDK})
		}
		root.Children = append(root.Children, sdk)
	}

	for _, p := range m.Permissions {
		root.Children = append(root.Children, &Node{
			Name:  "uses-permission",
			Attrs: []Attr{{Android: true, Name: "name", Value: p}},
		})
	}

	app := &Node{Name: "application"}
	for _, c := range m.Components {
		n := &Node{Name: c.Kind, Attrs: []Attr{{Android: true, Name: "name", Value: c.Name}}}
		switch c.Exported {
		case "":
		case "true", "false":
			n.Attrs = append(n.Attrs, Attr{Android: true, Name: "exported", Value: c.Exported == "true"})
		default:
			n.Attrs = append(n.Attrs, Attr{Android: true, Name: "exported", Value: c.Exported})
		}
		if len(c.Actions) > 0 || len(c.Categories) > 0 {
			filter := &Node{Name: "intent-filter"}
			for _, a := range c.Actions {
				filter.Children = append(filter.Children, &Node{
					Name:  "action",
					Attrs: []Attr{{Android: true, Name: "name", Value: a}},
				})
			}
			for _, cat := range c.Categories {
				filter.Children = append(filter.Children, &Node{
					Name:  "category",
					Attrs: []Attr{{Android: true, Name: "name", Value: cat}},
				})
			}
			n.Children = append(n.Children, filter)
		}
		app.Children = append(app.Children, n)
	}
	root.Children = append(root.Children, app)
	return root
}

// TextXML renders m as a plain-text manifest.
func (m Manifest) TextXML() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	writeText(&buf, m.Tree(), true)
	return buf.Bytes()
}

// BinaryXML renders m in the compiled AXML encoding.
func (m Manifest) BinaryXML() []byte {
	return EncodeAXML(m.Tree())
}

func writeText(buf *bytes.Buffer, n *Node, root bool) {
	buf.WriteString("<" + n.Name)
	if root {
		buf.WriteString(` xmlns:android="` + AndroidNS + `"`)
	}
	for _, a := range n.Attrs {
		name := a.Name
		if a.Android {
			name = "android:" + name
		}
		buf.WriteString(" " + name + `="`)
		xml.EscapeText(buf, []byte(a.text()))
		buf.WriteString(`"`)
	}
	if len(n.Children) == 0 {
		buf.WriteString("/>\n")
		return
	}
	buf.WriteString(">\n")
	for _, c := range n.Children {
		writeText(buf, c, false)
	}
	buf.WriteString("</" + n.Name + ">\n")
}

// Entry is one file inside a synthetic APK.
type Entry struct {
	Name string
	Data []byte
}

// WriteAPK writes a zip container with entries in the given order and
// returns its path.
func WriteAPK(t testing.TB, dir, name string, entries ...Entry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return path
}

// WriteManifestAPK writes an APK holding m as a text manifest and a fake
// signature block.
func WriteManifestAPK(t testing.TB, dir, name string, m Manifest) string {
	t.Helper()
	return writeManifest(t, dir, name, m.TextXML())
}

// WriteBinaryManifestAPK is WriteManifestAPK with the manifest compiled to
// binary XML, as in APKs produced by the Android build tools.
func WriteBinaryManifestAPK(t testing.TB, dir, name string, m Manifest) string {
	t.Helper()
	return writeManifest(t, dir, name, m.BinaryXML())
}

func writeManifest(t testing.TB, dir, name string, raw []byte) string {
	t.Helper()
	return WriteAPK(t, dir, name,
		Entry{Name: "AndroidManifest.xml", Data: raw},
		Entry{Name: "classes.dex", Data: []byte("dex\n035\x00")},
		Entry{Name: "META-INF/CERT.RSA", Data: []byte("not a real pkcs7 block")},
	)
}
