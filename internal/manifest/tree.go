package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// TreeProvider decodes manifests exported as JSON trees in the
// attribute-prefixed layout produced by XML-to-dict converters:
//
//	{"manifest": {"@package": "...", "uses-permission": {...} | [{...}, ...]}}
//
// Any repeatable element may arrive as a bare object or as an array.
type TreeProvider struct{}

func (TreeProvider) Name() string    { return "json-tree" }
func (TreeProvider) Format() Format  { return FormatTree }
func (TreeProvider) Supported() bool { return true }

func (TreeProvider) Decode(raw []byte) (*Manifest, error) {
	var wrapped struct {
		Manifest *treeManifest `json:"manifest"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	doc := wrapped.Manifest
	if doc == nil {
		// Some exporters drop the root element.
		doc = new(treeManifest)
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, err
		}
	}
	return doc.model()
}

// oneOrMany accepts a JSON object, an array of objects, or null.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*o = nil
		return nil
	}
	if b[0] == '[' {
		var many []T
		if err := json.Unmarshal(b, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*o = oneOrMany[T]{one}
	return nil
}

// scalar accepts a JSON string, number or boolean as its text form.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = scalar(v)
		return nil
	}
	*s = scalar(b)
	return nil
}

type treeManifest struct {
	Package     scalar `json:"@package"`
	VersionCode scalar `json:"@android:versionCode"`
	VersionName scalar `json:"@android:versionName"`

	SDK                  oneOrMany[treeSDK]         `json:"uses-sdk"`
	UsesPermissions      oneOrMany[treeNamed]       `json:"uses-permission"`
	UsesPermissionsSDK23 oneOrMany[treeNamed]       `json:"uses-permission-sdk-23"`
	App                  oneOrMany[treeApplication] `json:"application"`
}

type treeSDK struct {
	Min    scalar `json:"@android:minSdkVersion"`
	Target scalar `json:"@android:targetSdkVersion"`
}

type treeApplication struct {
	Activities      oneOrMany[treeComponent] `json:"activity"`
	ActivityAliases oneOrMany[treeComponent] `json:"activity-alias"`
	Providers       oneOrMany[treeComponent] `json:"provider"`
	Receivers       oneOrMany[treeComponent] `json:"receiver"`
	Services        oneOrMany[treeComponent] `json:"service"`
}

type treeComponent struct {
	Name          scalar                      `json:"@android:name"`
	Exported      scalar                      `json:"@android:exported"`
	IntentFilters oneOrMany[treeIntentFilter] `json:"intent-filter"`
}

type treeIntentFilter struct {
	Actions    oneOrMany[treeNamed] `json:"action"`
	Categories oneOrMany[treeNamed] `json:"category"`
}

type treeNamed struct {
	Name scalar `json:"@android:name"`
}

func (doc *treeManifest) model() (*Manifest, error) {
	if doc.Package == "" {
		return nil, fmt.Errorf("manifest has no package attribute")
	}

	m := &Manifest{
		Package:     string(doc.Package),
		VersionCode: parseInt(doc.VersionCode),
		VersionName: string(doc.VersionName),
	}
	for _, sdk := range doc.SDK {
		if v := parseInt(sdk.Min); v != 0 {
			m.MinSDK = int32(v)
		}
		if v := parseInt(sdk.Target); v != 0 {
			m.TargetSDK = int32(v)
		}
	}
	for _, p := range doc.UsesPermissions {
		m.Permissions = append(m.Permissions, string(p.Name))
	}
	for _, p := range doc.UsesPermissionsSDK23 {
		m.Permissions = append(m.Permissions, string(p.Name))
	}

	var aliases []Component
	for _, app := range doc.App {
		m.Components = append(m.Components, treeComponents(KindActivity, app.Activities)...)
		m.Components = append(m.Components, treeComponents(KindProvider, app.Providers)...)
		m.Components = append(m.Components, treeComponents(KindReceiver, app.Receivers)...)
		m.Components = append(m.Components, treeComponents(KindService, app.Services)...)
		aliases = append(aliases, treeComponents(KindActivity, app.ActivityAliases)...)
	}
	m.resolveMainActivity(aliases)
	return m, nil
}

func treeComponents(kind ComponentKind, in []treeComponent) []Component {
	out := make([]Component, 0, len(in))
	for _, c := range in {
		comp := Component{
			Kind:     kind,
			Name:     string(c.Name),
			Exported: string(c.Exported),
		}
		for _, f := range c.IntentFilters {
			filter := IntentFilter{Actions: []string{}}
			for _, a := range f.Actions {
				filter.Actions = append(filter.Actions, string(a.Name))
			}
			for _, cat := range f.Categories {
				filter.Categories = append(filter.Categories, string(cat.Name))
			}
			comp.IntentFilters = append(comp.IntentFilters, filter)
		}
		out = append(out, comp)
	}
	return out
}

func parseInt(s scalar) int64 {
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
