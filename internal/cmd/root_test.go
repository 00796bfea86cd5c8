package cmd

import (
	"bytes"
	"errors"
	"testing"
)

func TestRootCommandStructure(t *testing.T) {
	root := NewRootCommand()

	if root.Use != "docval" {
		t.Errorf("Expected Use docval, got %s", root.Use)
	}

	want := map[string]bool{"extract": false, "validate": false, "history": false}
	for _, sub := range root.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Missing subcommand %s", name)
		}
	}
}

func TestRootCommandHelp(t *testing.T) {
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--help"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Help should not error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("validate")) {
		t.Errorf("Help output should mention validate: %s", buf.String())
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := infraFailure(inner)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatal("infraFailure should yield an ExitError")
	}
	if exitErr.Code != 2 {
		t.Errorf("Expected code 2, got %d", exitErr.Code)
	}
	if !errors.Is(err, inner) {
		t.Error("ExitError should unwrap to the inner error")
	}

	if contentErr := contentFailure(); !errors.As(contentErr, &exitErr) || exitErr.Code != 1 {
		t.Error("contentFailure should yield an ExitError with code 1")
	}
}
