// Package manifest decodes AndroidManifest.xml into a typed model.
package manifest

import "strconv"

// ComponentKind is one of the four scanned component element types.
type ComponentKind string

const (
	KindActivity ComponentKind = "activity"
	KindProvider ComponentKind = "provider"
	KindReceiver ComponentKind = "receiver"
	KindService  ComponentKind = "service"
)

// ComponentKinds lists kinds in scan order.
var ComponentKinds = []ComponentKind{KindActivity, KindProvider, KindReceiver, KindService}

const (
	actionMain       = "android.intent.action.MAIN"
	categoryLauncher = "android.intent.category.LAUNCHER"
)

// IntentFilter holds the action and category names of one <intent-filter>.
type IntentFilter struct {
	Actions    []string `json:"actions"`
	Categories []string `json:"categories,omitempty"`
}

// Component is a declared activity, provider, receiver or service.
type Component struct {
	Kind ComponentKind `json:"kind"`
	Name string        `json:"name"`

	// Exported is the raw android:exported value; empty when absent.
	Exported string `json:"exported,omitempty"`

	IntentFilters []IntentFilter `json:"intent_filters,omitempty"`
}

// IsExported reports whether the component carries an explicit
// android:exported="true". Intent filters do not imply export.
func (c Component) IsExported() bool {
	return c.Exported == "true"
}

// Actions returns every action name across the component's filters.
func (c Component) Actions() []string {
	var out []string
	for _, f := range c.IntentFilters {
		out = append(out, f.Actions...)
	}
	return out
}

func (c Component) isLauncher() bool {
	for _, f := range c.IntentFilters {
		if contains(f.Actions, actionMain) && contains(f.Categories, categoryLauncher) {
			return true
		}
	}
	return false
}

// Manifest is the decoded form of AndroidManifest.xml. Every repeatable
// element is a slice, so one declaration and many declarations share a shape.
type Manifest struct {
	Package     string `json:"package"`
	VersionCode int64  `json:"version_code"`
	VersionName string `json:"version_name,omitempty"`

	// MainActivity is the first activity filtering MAIN + LAUNCHER.
	MainActivity string `json:"main_activity,omitempty"`

	MinSDK    int32 `json:"min_sdk,omitempty"`
	TargetSDK int32 `json:"target_sdk,omitempty"`

	// Permissions in declaration order; duplicates are kept.
	Permissions []string `json:"permissions"`

	// Components grouped by kind in ComponentKinds order, declaration
	// order within a kind.
	Components []Component `json:"components"`
}

// Version returns the ledger version string: the version code when set,
// otherwise the version name.
func (m *Manifest) Version() string {
	if m.VersionCode != 0 {
		return strconv.FormatInt(m.VersionCode, 10)
	}
	return m.VersionName
}

// ComponentsOf returns the components of one kind in declaration order.
func (m *Manifest) ComponentsOf(kind ComponentKind) []Component {
	var out []Component
	for _, c := range m.Components {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// resolveMainActivity fills MainActivity from the launcher filters.
// aliases are activity-alias declarations, consulted after activities.
func (m *Manifest) resolveMainActivity(aliases []Component) {
	for _, c := range m.ComponentsOf(KindActivity) {
		if c.isLauncher() {
			m.MainActivity = c.Name
			return
		}
	}
	for _, c := range aliases {
		if c.isLauncher() {
			m.MainActivity = c.Name
			return
		}
	}
}

// normalize guarantees non-nil slices and kind-grouped component order.
func (m *Manifest) normalize() {
	if m.Permissions == nil {
		m.Permissions = []string{}
	}
	grouped := make([]Component, 0, len(m.Components))
	for _, kind := range ComponentKinds {
		grouped = append(grouped, m.ComponentsOf(kind)...)
	}
	m.Components = grouped
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
