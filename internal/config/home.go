package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Home returns the docval home directory, created if absent.
// Priority order:
//  1. DOCVAL_HOME environment variable (if set)
//  2. .docval under the nearest ancestor that already contains one
//  3. .docval under the current working directory
func Home() (string, error) {
	if home := os.Getenv("DOCVAL_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create docval home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if root := findProjectRoot(cwd); root != "" {
		return filepath.Join(root, ".docval"), nil
	}

	home := filepath.Join(cwd, ".docval")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create docval home directory: %w", err)
	}
	return home, nil
}

// findProjectRoot walks up from dir looking for an existing .docval
// directory. Returns "" when none is found.
func findProjectRoot(dir string) string {
	current := dir
	for {
		candidate := filepath.Join(current, ".docval")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current || strings.TrimSpace(parent) == "" {
			return ""
		}
		current = parent
	}
}
