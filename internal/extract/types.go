// Package extract turns a subprocess's raw combined output into a
// structured, token-bounded ExtractionResult by dispatching to a
// registry of tool-aware plugins (TypeScript, ESLint, test runners,
// Maven reporters) with a generic fallback.
package extract

import "github.com/jdutton/vibe-validate/internal/model"

// DetectThreshold is the minimum confidence a plugin's Detect result
// must clear before its Extract is invoked.
const DetectThreshold = 70

// Hints is a cheap, substring-only pre-filter evaluated before a
// plugin's (potentially regex-heavy) Detect is invoked. All of
// Required, at least one of AnyOf (if non-empty), and none of
// Forbidden must hold.
type Hints struct {
	Required  []string
	AnyOf     []string
	Forbidden []string
}

// Matches reports whether output passes this plugin's hint pre-filter.
func (h Hints) Matches(output string) bool {
	for _, s := range h.Required {
		if !containsFold(output, s) {
			return false
		}
	}
	if len(h.AnyOf) > 0 {
		ok := false
		for _, s := range h.AnyOf {
			if containsFold(output, s) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, s := range h.Forbidden {
		if containsFold(output, s) {
			return false
		}
	}
	return true
}

// Detection is a plugin's confidence that it recognizes output's format.
type Detection struct {
	Confidence int
	Patterns   []string
	Reason     string
}

// Plugin is implemented by every tool-aware extractor. Extraction must
// be pure and deterministic: identical output always yields an
// identical ExtractionResult.
type Plugin interface {
	Name() string
	Priority() int
	Hints() Hints
	Detect(output string) Detection
	Extract(output, command string) model.ExtractionResult
}
