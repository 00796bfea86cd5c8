// Package extractor converts raw documentation sources into a flat, ordered
// list of executable examples. It handles Markdown and reStructuredText
// prose documents as well as Python modules with doctest-style docstring
// sessions.
//
// Extraction is total: malformed blocks are skipped and recorded as
// warnings, never raised as errors. Only true infrastructure failures
// (unreadable paths) abort extraction.
package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/harrison/docval/internal/fileutil"
	"github.com/harrison/docval/internal/models"
)

// Result holds everything one extraction pass produced.
type Result struct {
	Examples []models.Example
	Warnings []models.Warning
}

// Extractor parses documentation sources into Example records.
type Extractor struct {
	markdown *markdownExtractor
}

// New creates an Extractor with default settings.
func New() *Extractor {
	return &Extractor{
		markdown: newMarkdownExtractor(),
	}
}

// supportedExtensions maps file extensions to a human name for diagnostics.
var supportedExtensions = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".rst":      "restructuredtext",
	".py":       "python",
}

func extensionList() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	return exts
}

// DiscoverInputs expands the given paths into a deduplicated, sorted list
// of supported source files. Each path may be a file, a directory
// (scanned recursively, skipping hidden and vendored directories), or a
// doublestar glob pattern such as "docs/**/*.md". Returns an error only
// when a non-pattern path cannot be accessed: that is an infrastructure
// failure, not a content failure.
func DiscoverInputs(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if seen[path] {
			return
		}
		if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, path := range paths {
		// Glob patterns are expanded relative to the current directory.
		if strings.ContainsAny(path, "*?[{") {
			matches, err := doublestar.FilepathGlob(path)
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", path, err)
			}
			for _, m := range matches {
				if info, err := os.Stat(m); err == nil && !info.IsDir() {
					add(m)
				}
			}
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access input path %s: %w", path, err)
		}

		if info.IsDir() {
			scan, err := fileutil.ScanDirectory(path, fileutil.ScanOptions{
				Extensions:  extensionList(),
				ExcludeDirs: fileutil.DefaultExcludeDirs,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
			}
			for _, f := range scan.Files {
				add(f)
			}
			continue
		}

		add(path)
	}

	// Deterministic file order keeps example IDs and report ordering
	// stable across runs.
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no supported documentation files (.md, .rst, .py) found in inputs")
	}

	return files, nil
}

// ExtractFiles runs extraction over every file, in order. A file that
// cannot be read aborts the pass with an error; malformed content inside a
// readable file only produces warnings.
func (e *Extractor) ExtractFiles(files []string) (*Result, error) {
	res := &Result{}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		examples, warnings := e.extractOne(file, content)
		res.Examples = append(res.Examples, examples...)
		res.Warnings = append(res.Warnings, warnings...)
	}

	return res, nil
}

// extractOne dispatches on file extension and assigns sequence-indexed IDs.
func (e *Extractor) extractOne(file string, content []byte) ([]models.Example, []models.Warning) {
	var examples []models.Example
	var warnings []models.Warning

	switch strings.ToLower(filepath.Ext(file)) {
	case ".md", ".markdown":
		examples, warnings = e.markdown.extract(file, content)
	case ".rst":
		examples, warnings = extractRST(file, content)
	case ".py":
		examples, warnings = extractDocstrings(file, content)
	}

	for i := range examples {
		examples[i].ID = fmt.Sprintf("%s#%d", file, i)
	}

	return examples, warnings
}
