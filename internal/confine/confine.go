// Package confine restricts the running process to the sandbox root with the
// kernel's Landlock LSM. The cursor enforces the root boundary on its own;
// confinement only narrows what the rest of the process could reach.
package confine

import (
	"fmt"
	"os"
	"path/filepath"
)

// Access is the access level granted to a path.
type Access int

const (
	// ReadOnly allows reading files and listing directories.
	ReadOnly Access = iota
	// ReadWrite additionally allows creating and modifying entries.
	ReadWrite
)

func (a Access) String() string {
	if a == ReadWrite {
		return "rw"
	}
	return "ro"
}

// Grant is one path the confined process may still use.
type Grant struct {
	Path   string
	Access Access
	IsDir  bool
}

// Plan resolves root and the read-write paths into grants. Read-write paths
// that do not exist yet are replaced by their nearest existing parent, so a
// state directory created later stays writable. Empty entries are skipped.
func Plan(root string, rw []string) ([]Grant, error) {
	if root == "" {
		return nil, fmt.Errorf("confine: root is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("confine: resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("confine: stat root: %w", err)
	}

	grants := []Grant{{Path: absRoot, Access: ReadOnly, IsDir: info.IsDir()}}
	seen := map[string]bool{absRoot: true}

	for _, p := range rw {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("confine: resolve %s: %w", p, err)
		}
		existing, info := nearestExisting(abs)
		if info == nil {
			continue
		}
		if seen[existing] {
			// upgrade a read-only grant on the same path
			for i := range grants {
				if grants[i].Path == existing {
					grants[i].Access = ReadWrite
				}
			}
			continue
		}
		seen[existing] = true
		grants = append(grants, Grant{Path: existing, Access: ReadWrite, IsDir: info.IsDir()})
	}
	return grants, nil
}

func nearestExisting(path string) (string, os.FileInfo) {
	for {
		info, err := os.Stat(path)
		if err == nil {
			return path, info
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", nil
		}
		path = parent
	}
}
