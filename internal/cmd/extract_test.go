package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `# Usage

Some narrative.

` + "```python" + `
x = 1
print(x)
` + "```" + `
`

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write doc: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestExtractListsExamples(t *testing.T) {
	doc := writeDoc(t, "usage.md", sampleDoc)

	out, _, err := runCommand(t, "extract", doc)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if !strings.Contains(out, "prose-block") {
		t.Errorf("Expected a prose-block entry, got %q", out)
	}
	if !strings.Contains(out, "1 example in 1 file") {
		t.Errorf("Expected summary line, got %q", out)
	}
}

func TestExtractJSON(t *testing.T) {
	doc := writeDoc(t, "usage.md", sampleDoc)

	out, _, err := runCommand(t, "extract", doc, "--json")
	if err != nil {
		t.Fatalf("extract --json failed: %v", err)
	}

	var decoded struct {
		Examples []struct {
			ID       string `json:"id"`
			Kind     string `json:"kind"`
			CodeText string `json:"code_text"`
		}
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, out)
	}
	if len(decoded.Examples) != 1 {
		t.Fatalf("Expected 1 example, got %d", len(decoded.Examples))
	}
	if decoded.Examples[0].Kind != "prose-block" {
		t.Errorf("Unexpected kind %s", decoded.Examples[0].Kind)
	}
	if !strings.Contains(decoded.Examples[0].CodeText, "x = 1") {
		t.Errorf("Code text missing, got %q", decoded.Examples[0].CodeText)
	}
}

func TestExtractWritesInventoryFile(t *testing.T) {
	doc := writeDoc(t, "usage.md", sampleDoc)
	outputPath := filepath.Join(filepath.Dir(doc), "inventory.json")

	out, _, err := runCommand(t, "extract", doc, "--output", outputPath)
	if err != nil {
		t.Fatalf("extract --output failed: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Inventory file not written: %v", err)
	}
	var decoded struct {
		Examples []struct {
			ID string `json:"id"`
		}
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Inventory file is not valid JSON: %v\n%s", err, data)
	}
	if len(decoded.Examples) != 1 {
		t.Errorf("Expected 1 example in inventory, got %d", len(decoded.Examples))
	}
	// The text listing still goes to stdout.
	if !strings.Contains(out, "prose-block") {
		t.Errorf("Expected text listing alongside --output, got %q", out)
	}
}

func TestExtractMissingPathIsInfraFailure(t *testing.T) {
	_, _, err := runCommand(t, "extract", filepath.Join(t.TempDir(), "nope.md"))

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("Expected ExitError with code 2, got %v", err)
	}
}

func TestExtractReportsMalformedBlocks(t *testing.T) {
	py := writeDoc(t, "core.py", `def f():
    """Docs.

    ... broken
    >>> x = 1
    """
    return 1
`)

	out, _, err := runCommand(t, "extract", py)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(out, "warning:") {
		t.Errorf("Expected a malformed-block warning, got %q", out)
	}
}
