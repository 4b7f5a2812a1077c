package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kevin-ch-day/Nethira/internal/watch"
)

// ExpandInputs resolves inspect arguments into APK paths. Glob patterns
// are expanded, directories contribute the .apk files directly inside
// them, and anything else is passed through so a missing file is reported
// against its own entry.
func ExpandInputs(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			add(arg)
			continue
		}

		for _, m := range matches {
			fi, err := os.Stat(m)
			if err != nil || !fi.IsDir() {
				add(m)
				continue
			}
			files, err := apksIn(m)
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				return nil, fmt.Errorf("no APK files in %s", m)
			}
			for _, f := range files {
				add(f)
			}
		}
	}
	return out, nil
}

func apksIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && watch.IsAPK(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
