package cmd

import (
	"strings"
	"testing"
)

func TestHistoryListEmpty(t *testing.T) {
	fx := newValidateFixture(t, "clean.md", cleanDoc)

	out, _, err := runCommand(t, "history", "list", "--config", fx.configPath)
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "No recorded runs.") {
		t.Errorf("Expected empty-history message, got %q", out)
	}
}

func TestHistoryListAfterValidate(t *testing.T) {
	fx := newValidateFixture(t, "broken.md", failingDoc)

	// The run fails with exit code 1 but is still recorded.
	runCommand(t, "validate", fx.docPath, "--config", fx.configPath)

	out, _, err := runCommand(t, "history", "list", "--config", fx.configPath)
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "FAIL") {
		t.Errorf("Expected a FAIL run in history, got %q", out)
	}
	if !strings.Contains(out, "1 failed") {
		t.Errorf("Expected failure count in listing, got %q", out)
	}
}

func TestHistoryFilesRanking(t *testing.T) {
	fx := newValidateFixture(t, "broken.md", failingDoc)

	runCommand(t, "validate", fx.docPath, "--config", fx.configPath)

	out, _, err := runCommand(t, "history", "files", "--config", fx.configPath)
	if err != nil {
		t.Fatalf("history files failed: %v", err)
	}
	if !strings.Contains(out, "broken.md") {
		t.Errorf("Expected broken.md in failing-files ranking, got %q", out)
	}
}
