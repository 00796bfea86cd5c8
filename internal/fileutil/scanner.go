package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExcludeDirs are directory names that never hold documentation
// worth validating: build output, vendored code and interpreter caches.
var DefaultExcludeDirs = []string{
	"node_modules",
	"vendor",
	"__pycache__",
	"venv",
	"build",
	"dist",
}

// ScanOptions configures directory scanning behavior.
type ScanOptions struct {
	// Extensions is the list of file extensions to include (e.g. ".md").
	// Empty means every file.
	Extensions []string
	// ExcludeDirs is a list of directory names to skip. Hidden
	// directories (leading dot) are always skipped.
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = top level only).
	MaxDepth int
}

// ScanResult contains the results of a directory scan.
type ScanResult struct {
	// Files contains the matched file paths, sorted, relative to
	// however the scan root was given.
	Files []string
	// Errors contains non-fatal problems encountered while walking.
	Errors []error
}

// ScanDirectory walks dir collecting files that match the options.
// Unreadable entries are recorded in Errors and the walk continues; only
// an inaccessible root is a hard error.
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	excludeMap := make(map[string]bool)
	for _, name := range opts.ExcludeDirs {
		excludeMap[name] = true
	}

	result := &ScanResult{}

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}

		if path == dir {
			return nil
		}

		if d.IsDir() {
			if excludeMap[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				relPath, _ := filepath.Rel(dir, path)
				depth := strings.Count(relPath, string(filepath.Separator)) + 1
				if depth >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if len(extMap) > 0 && !extMap[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		result.Files = append(result.Files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Files)
	return result, nil
}
