package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestConsoleLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "warn")

	cl.Debugf("hidden %d", 1)
	cl.Infof("hidden %d", 2)
	cl.Warnf("shown %d", 3)
	cl.Errorf("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Messages below the configured level leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("Expected warn and error lines, got %q", out)
	}
}

func TestConsoleLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "bogus")

	cl.Debugf("hidden")
	cl.Infof("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug should be filtered at the default level: %q", out)
	}
	if !strings.Contains(out, "[INFO] shown") {
		t.Errorf("Expected info line, got %q", out)
	}
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	cl := NewConsoleLogger(nil, "info")
	// Must not panic.
	cl.Infof("discarded")
}

func TestConsoleLoggerTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	cl.Infof("message")

	line := buf.String()
	// "[HH:MM:SS] [INFO] message"
	if len(line) < 11 || line[0] != '[' || line[9] != ']' {
		t.Errorf("Expected leading timestamp bracket, got %q", line)
	}
	if line[3] != ':' || line[6] != ':' {
		t.Errorf("Expected HH:MM:SS timestamp, got %q", line)
	}
}

func TestConsoleLoggerConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cl.Infof("line %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 20 {
		t.Errorf("Expected 20 intact lines, got %d", len(lines))
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DEBUG", "debug"},
		{" warn ", "warn"},
		{"", "info"},
		{"verbose", "info"},
		{"trace", "trace"},
	}

	for _, tt := range tests {
		if got := normalizeLogLevel(tt.in); got != tt.want {
			t.Errorf("normalizeLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNoOpLogger(t *testing.T) {
	n := NewNoOpLogger()
	// All methods must be safe no-ops.
	n.Tracef("a")
	n.Debugf("b")
	n.Infof("c")
	n.Warnf("d")
	n.Errorf("e")
}
