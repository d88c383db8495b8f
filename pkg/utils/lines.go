package utils

import (
	"fmt"
	"strings"
)

// SplitLines breaks text into the line slice stored on workspace records.
// A trailing newline does not produce a phantom empty line.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// NumberLines renders lines in cat -n style, numbering from startLine.
func NumberLines(lines []string, startLine int) string {
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%6d\t%s\n", startLine+i, line)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
