package extract

import (
	"regexp"
	"strings"
)

// ansiPattern matches CSI and OSC escape sequences, covering the color
// and cursor-movement codes test runners and linters emit.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|\x1b\][^\x07]*\x07`)

// StripANSI removes terminal escape sequences, applied once centrally
// before any plugin's detection or extraction runs (spec §4.5).
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// ciPrefixPattern matches CI-runner log line prefixes of the shape
// "<job>\t<step>\t<ISO-timestamp> " that wrap each line of output when
// captured through a CI log aggregator, optionally preceded by a UTF-8
// BOM.
var ciPrefixPattern = regexp.MustCompile(`^\x{FEFF}?[^\t\n]*\t[^\t\n]*\t\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})\s`)

// StripCIPrefixes removes CI-runner log prefixes line by line, run
// before YAML validator-matrix block detection so embedded YAML isn't
// corrupted by interleaved timestamps.
func StripCIPrefixes(output string) string {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		lines[i] = ciPrefixPattern.ReplaceAllString(line, "")
	}
	return strings.Join(lines, "\n")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
