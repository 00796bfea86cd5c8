package executor

import "testing"

func TestOutputMatches(t *testing.T) {
	tests := []struct {
		name      string
		expected  string
		actual    string
		tolerance float64
		want      bool
	}{
		{"exact", "4", "4\n", 0.1, true},
		{"trailing whitespace", "hello  ", "hello\n", 0.1, true},
		{"mismatch", "5", "4\n", 0.1, false},
		{"numeric within tolerance", "3.14", "3.1415926\n", 0.1, true},
		{"numeric outside tolerance", "3.14", "4.5\n", 0.1, false},
		{"tuple repr with slack", "(1.0, 2.0)", "(1.02, 1.99)\n", 0.05, true},
		{"line count mismatch", "a\nb", "a\n", 0.1, false},
		{"multi line exact", "a\nb", "a\nb\n", 0.1, true},
		{"text token mismatch", "Epoch", "epoch\n", 0.1, false},
		{"zero vs zero", "0.0", "0.0\n", 0.1, true},
		{"zero vs nonzero", "0.0", "0.001\n", 0.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputMatches(tt.expected, tt.actual, tt.tolerance)
			if got != tt.want {
				t.Errorf("outputMatches(%q, %q, %v) = %v, want %v",
					tt.expected, tt.actual, tt.tolerance, got, tt.want)
			}
		})
	}
}
