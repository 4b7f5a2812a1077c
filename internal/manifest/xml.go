package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/shogo82148/androidbinary"
)

// Element shapes shared by the compiled and plain-text XML encodings.
// encoding/xml collects every occurrence of a repeated element into the
// slice, so a single <activity> and several land in the same field.
type xmlManifest struct {
	XMLName     xml.Name             `xml:"manifest"`
	Package     androidbinary.String `xml:"package,attr"`
	VersionCode androidbinary.Int32  `xml:"http://schemas.android.com/apk/res/android versionCode,attr"`
	VersionName androidbinary.String `xml:"http://schemas.android.com/apk/res/android versionName,attr"`

	SDK                  []xmlSDK   `xml:"uses-sdk"`
	UsesPermissions      []xmlNamed `xml:"uses-permission"`
	UsesPermissionsSDK23 []xmlNamed `xml:"uses-permission-sdk-23"`

	App []xmlApplication `xml:"application"`
}

type xmlSDK struct {
	Min    androidbinary.Int32 `xml:"http://schemas.android.com/apk/res/android minSdkVersion,attr"`
	Target androidbinary.Int32 `xml:"http://schemas.android.com/apk/res/android targetSdkVersion,attr"`
}

type xmlApplication struct {
	Activities      []xmlComponent `xml:"activity"`
	ActivityAliases []xmlComponent `xml:"activity-alias"`
	Providers       []xmlComponent `xml:"provider"`
	Receivers       []xmlComponent `xml:"receiver"`
	Services        []xmlComponent `xml:"service"`
}

type xmlComponent struct {
	Name          androidbinary.String `xml:"http://schemas.android.com/apk/res/android name,attr"`
	Exported      androidbinary.String `xml:"http://schemas.android.com/apk/res/android exported,attr"`
	IntentFilters []xmlIntentFilter    `xml:"intent-filter"`
}

type xmlIntentFilter struct {
	Actions    []xmlNamed `xml:"action"`
	Categories []xmlNamed `xml:"category"`
}

type xmlNamed struct {
	Name androidbinary.String `xml:"http://schemas.android.com/apk/res/android name,attr"`
}

// BinaryXMLProvider decodes the compiled AXML found inside APKs.
type BinaryXMLProvider struct{}

func (BinaryXMLProvider) Name() string    { return "androidbinary" }
func (BinaryXMLProvider) Format() Format  { return FormatBinaryXML }
func (BinaryXMLProvider) Supported() bool { return true }

func (BinaryXMLProvider) Decode(raw []byte) (m *Manifest, err error) {
	// androidbinary indexes its string pool without bounds checks on
	// some truncated inputs.
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("malformed binary XML: %v", r)
		}
	}()

	f, err := androidbinary.NewXMLFile(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var doc xmlManifest
	if err := f.Decode(&doc, nil, nil); err != nil {
		return nil, err
	}
	return doc.model()
}

// TextXMLProvider decodes a plain-text AndroidManifest.xml, as found in
// source trees and apktool output.
type TextXMLProvider struct{}

func (TextXMLProvider) Name() string    { return "encoding/xml" }
func (TextXMLProvider) Format() Format  { return FormatTextXML }
func (TextXMLProvider) Supported() bool { return true }

func (TextXMLProvider) Decode(raw []byte) (*Manifest, error) {
	var doc xmlManifest
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.model()
}

func (doc *xmlManifest) model() (*Manifest, error) {
	pkg := str(doc.Package)
	if pkg == "" {
		return nil, fmt.Errorf("manifest has no package attribute")
	}

	m := &Manifest{
		Package:     pkg,
		VersionCode: int64(i32(doc.VersionCode)),
		VersionName: str(doc.VersionName),
	}
	for _, sdk := range doc.SDK {
		if v := i32(sdk.Min); v != 0 {
			m.MinSDK = v
		}
		if v := i32(sdk.Target); v != 0 {
			m.TargetSDK = v
		}
	}
	for _, p := range doc.UsesPermissions {
		m.Permissions = append(m.Permissions, str(p.Name))
	}
	for _, p := range doc.UsesPermissionsSDK23 {
		m.Permissions = append(m.Permissions, str(p.Name))
	}

	var aliases []Component
	for _, app := range doc.App {
		m.Components = append(m.Components, components(KindActivity, app.Activities)...)
		m.Components = append(m.Components, components(KindProvider, app.Providers)...)
		m.Components = append(m.Components, components(KindReceiver, app.Receivers)...)
		m.Components = append(m.Components, components(KindService, app.Services)...)
		aliases = append(aliases, components(KindActivity, app.ActivityAliases)...)
	}
	m.resolveMainActivity(aliases)
	return m, nil
}

func components(kind ComponentKind, in []xmlComponent) []Component {
	out := make([]Component, 0, len(in))
	for _, c := range in {
		comp := Component{
			Kind:     kind,
			Name:     str(c.Name),
			Exported: str(c.Exported),
		}
		for _, f := range c.IntentFilters {
			filter := IntentFilter{Actions: []string{}}
			for _, a := range f.Actions {
				filter.Actions = append(filter.Actions, str(a.Name))
			}
			for _, cat := range f.Categories {
				filter.Categories = append(filter.Categories, str(cat.Name))
			}
			comp.IntentFilters = append(comp.IntentFilters, filter)
		}
		out = append(out, comp)
	}
	return out
}

// str reads an attribute without a resource table; references stay in
// their "@0x7f..." form.
func str(s androidbinary.String) string {
	v, err := s.String()
	if err != nil {
		return ""
	}
	return v
}

func i32(v androidbinary.Int32) int32 {
	n, err := v.Int32()
	if err != nil {
		return 0
	}
	return n
}
