package scan

import "regexp"

var permissionPattern = regexp.MustCompile(`android\.permission\.[A-Z_.]+`)

// ScanDumpsys builds a permission-only result from `dumpsys package`
// output. Components are not visible there, so only the permission sets
// are filled.
func (s *Scanner) ScanDumpsys(pkg, output string) Result {
	r := Empty(pkg)
	r.Permissions = sortedSet(permissionPattern.FindAllString(output, -1))
	r.Suspicious = s.suspicious(r.Permissions)
	return r
}
