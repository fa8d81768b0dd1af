package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opendash/cansim/internal/dispatcher"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double
// quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// cleanArgs normalizes every argument in place.
func cleanArgs(args []string) []string {
	for i, v := range args {
		args[i] = FixEscapeQuotes(TrimQuotes(strings.TrimSpace(v)))
	}
	return args
}

// ParseLine splits a pipe-delimited control line of the form
// `:CMD:|arg1|arg2` into a dispatchable command. The command name keeps its
// surrounding colons.
func ParseLine(line string) (dispatcher.Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return dispatcher.Command{}, fmt.Errorf("empty command line")
	}

	parts := strings.Split(line, "|")
	name := strings.TrimSpace(parts[0])
	if !strings.HasPrefix(name, ":") || !strings.HasSuffix(name, ":") || len(name) < 3 {
		return dispatcher.Command{}, fmt.Errorf("malformed command name: %q", name)
	}

	var args []string
	if len(parts) > 1 {
		args = cleanArgs(parts[1:])
	}
	return dispatcher.Command{Name: name, Args: args}, nil
}

// parsePercent parses a percentage argument and rejects values outside
// [0, 100].
func parsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("percentage out of range: %v", v)
	}
	return v, nil
}

// parseUnit parses a 0..1 control input.
func parseUnit(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid input %q: %w", s, err)
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("input out of range: %v", v)
	}
	return v, nil
}
