// Package scan derives a permission and exported-component profile from a
// decoded manifest.
package scan

import (
	"sort"

	"github.com/kevin-ch-day/Nethira/internal/manifest"
)

// DefaultSensitivePermissions is the built-in allowlist of permissions
// flagged as suspicious.
var DefaultSensitivePermissions = []string{
	"android.permission.RECORD_AUDIO",
	"android.permission.CAMERA",
	"android.permission.READ_SMS",
	"android.permission.SEND_SMS",
	"android.permission.RECEIVE_SMS",
	"android.permission.READ_CALL_LOG",
	"android.permission.WRITE_CALL_LOG",
	"android.permission.READ_CONTACTS",
	"android.permission.WRITE_CONTACTS",
	"android.permission.WRITE_SETTINGS",
	"android.permission.REQUEST_INSTALL_PACKAGES",
	"android.permission.SYSTEM_ALERT_WINDOW",
}

// Allowlist is a set of sensitive permission identifiers.
type Allowlist map[string]struct{}

// NewAllowlist builds an allowlist from the defaults plus extra.
func NewAllowlist(extra ...string) Allowlist {
	a := make(Allowlist, len(DefaultSensitivePermissions)+len(extra))
	for _, p := range DefaultSensitivePermissions {
		a[p] = struct{}{}
	}
	for _, p := range extra {
		if p != "" {
			a[p] = struct{}{}
		}
	}
	return a
}

// Contains reports whether perm is on the allowlist.
func (a Allowlist) Contains(perm string) bool {
	_, ok := a[perm]
	return ok
}

// ExportedComponent names a component reachable from other apps.
type ExportedComponent struct {
	Kind manifest.ComponentKind `json:"kind"`
	Name string                 `json:"name"`
}

// Result is the permission/component profile of one package.
type Result struct {
	Package            string              `json:"package"`
	Permissions        []string            `json:"permissions"`
	Suspicious         []string            `json:"suspicious"`
	ExportedComponents []ExportedComponent `json:"exported_components"`
	IntentActions      []string            `json:"intent_actions"`
}

// Empty returns the result recorded for a package whose manifest was
// missing or could not be decoded.
func Empty(pkg string) Result {
	return Result{
		Package:            pkg,
		Permissions:        []string{},
		Suspicious:         []string{},
		ExportedComponents: []ExportedComponent{},
		IntentActions:      []string{},
	}
}

// Scanner intersects manifests against an allowlist.
type Scanner struct {
	allowlist Allowlist
}

// New returns a scanner using allowlist. A nil allowlist uses the defaults.
func New(allowlist Allowlist) *Scanner {
	if allowlist == nil {
		allowlist = NewAllowlist()
	}
	return &Scanner{allowlist: allowlist}
}

// Scan walks m. Components are visited activity, provider, receiver,
// service; intent actions keep first-seen order across all components.
func (s *Scanner) Scan(m *manifest.Manifest) Result {
	r := Empty(m.Package)

	r.Permissions = sortedSet(m.Permissions)
	r.Suspicious = s.suspicious(r.Permissions)

	seen := make(map[string]struct{})
	for _, kind := range manifest.ComponentKinds {
		for _, c := range m.ComponentsOf(kind) {
			if c.IsExported() {
				r.ExportedComponents = append(r.ExportedComponents, ExportedComponent{Kind: kind, Name: c.Name})
			}
			for _, a := range c.Actions() {
				if a == "" {
					continue
				}
				if _, ok := seen[a]; ok {
					continue
				}
				seen[a] = struct{}{}
				r.IntentActions = append(r.IntentActions, a)
			}
		}
	}
	return r
}

func (s *Scanner) suspicious(perms []string) []string {
	out := []string{}
	for _, p := range perms {
		if s.allowlist.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

func sortedSet(in []string) []string {
	set := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
