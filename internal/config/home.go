package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the fileslice home directory.
const HomeEnv = "FILESLICE_HOME"

// HomeDirName is the per-project state directory.
const HomeDirName = ".fileslice"

// GetHome returns the fileslice home directory.
// Priority order:
//  1. FILESLICE_HOME environment variable (if set)
//  2. The nearest existing .fileslice directory at or above the working directory
//  3. .fileslice in the current working directory (created)
func GetHome() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if found, ok := findHome(cwd); ok {
		return found, nil
	}

	home := filepath.Join(cwd, HomeDirName)
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create fileslice home directory: %w", err)
	}
	return home, nil
}

// findHome walks up from start looking for a .fileslice directory.
func findHome(start string) (string, bool) {
	current := start
	for {
		candidate := filepath.Join(current, HomeDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// DefaultConfigPath returns <home>/config.yaml.
func DefaultConfigPath(home string) string {
	return filepath.Join(home, "config.yaml")
}
