//go:build linux

package confine

import (
	"fmt"

	"github.com/landlock-lsm/go-landlock/landlock"
)

// Supported reports whether confinement is implemented on this platform.
func Supported() bool { return true }

// Restrict confines the current process to read-only access below root and
// read-write access below rw. Kernels without Landlock are tolerated: the
// restriction degrades to whatever the running kernel supports.
func Restrict(root string, rw []string) error {
	grants, err := Plan(root, rw)
	if err != nil {
		return err
	}
	if err := landlock.V6.BestEffort().RestrictPaths(rules(grants)...); err != nil {
		return fmt.Errorf("confine: landlock restriction failed: %w", err)
	}
	return nil
}

// Landlock rejects directory rights on regular files, so files get file rules.
func rules(grants []Grant) []landlock.Rule {
	out := make([]landlock.Rule, 0, len(grants))
	for _, g := range grants {
		switch {
		case g.Access == ReadWrite && g.IsDir:
			out = append(out, landlock.RWDirs(g.Path))
		case g.Access == ReadWrite:
			out = append(out, landlock.RWFiles(g.Path))
		case g.IsDir:
			out = append(out, landlock.RODirs(g.Path))
		default:
			out = append(out, landlock.ROFiles(g.Path))
		}
	}
	return out
}
