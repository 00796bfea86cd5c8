package executor

import (
	"math"
	"strconv"
	"strings"
)

// outputMatches compares a session example's actual printed output against
// its documented expected output. Comparison is line-by-line after
// normalizing trailing whitespace; numeric tokens are compared within the
// given relative tolerance so documented values survive platform rounding
// and minor upstream precision changes.
func outputMatches(expected, actual string, tolerance float64) bool {
	expLines := normalizeLines(expected)
	actLines := normalizeLines(actual)

	if len(expLines) != len(actLines) {
		return false
	}

	for i := range expLines {
		if !lineMatches(expLines[i], actLines[i], tolerance) {
			return false
		}
	}
	return true
}

// normalizeLines splits text into lines with trailing whitespace removed
// and outer blank lines dropped.
func normalizeLines(text string) []string {
	raw := strings.Split(strings.Trim(text, "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimRight(line, " \t\r"))
	}
	// Drop leading/trailing blank lines left by fence formatting.
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineMatches(expected, actual string, tolerance float64) bool {
	if expected == actual {
		return true
	}

	expTokens := strings.Fields(expected)
	actTokens := strings.Fields(actual)
	if len(expTokens) != len(actTokens) {
		return false
	}

	for i := range expTokens {
		if expTokens[i] == actTokens[i] {
			continue
		}
		if !numbersClose(expTokens[i], actTokens[i], tolerance) {
			return false
		}
	}
	return true
}

// numbersClose reports whether two tokens are both numeric and agree
// within the relative tolerance. Trailing punctuation from reprs
// ("(1.23," / "4.5)") is stripped before parsing.
func numbersClose(a, b string, tolerance float64) bool {
	fa, errA := strconv.ParseFloat(strings.Trim(a, "(),[]"), 64)
	fb, errB := strconv.ParseFloat(strings.Trim(b, "(),[]"), 64)
	if errA != nil || errB != nil {
		return false
	}

	diff := math.Abs(fa - fb)
	scale := math.Max(math.Abs(fa), math.Abs(fb))
	if scale == 0 {
		return diff == 0
	}
	return diff/scale <= tolerance
}
