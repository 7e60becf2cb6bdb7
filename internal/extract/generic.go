package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

// genericErrorToken matches lines that look error-like regardless of
// tool: a leading "error"/"Error:" token, or common package-manager
// failure phrasing.
var genericErrorToken = regexp.MustCompile(`(?i)\b(error|exception|failed|failure|fatal)\b`)

// genericBannerLine matches noisy package-manager banner output that
// should not count toward the error-like line budget.
var genericBannerLine = regexp.MustCompile(`(?i)^(npm (notice|warn)|yarn info|added \d+ packages|audited \d+ packages|\$ )`)

const genericTailLines = 40

// extractGeneric is the fallback used when no plugin detects with
// sufficient confidence: it tails the output to the last ~40 lines
// containing error-like tokens and reports confidence=0.
func extractGeneric(output string) model.ExtractionResult {
	lines := strings.Split(output, "\n")

	var candidates []string
	for _, line := range lines {
		if genericBannerLine.MatchString(line) {
			continue
		}
		if genericErrorToken.MatchString(line) {
			candidates = append(candidates, strings.TrimRight(line, "\r"))
		}
	}

	if len(candidates) > genericTailLines {
		candidates = candidates[len(candidates)-genericTailLines:]
	}

	var errs []model.ExtractedError
	for _, line := range candidates {
		errs = append(errs, model.ExtractedError{Message: line, Severity: "error"})
	}
	errs = truncateErrors(errs, len(candidates))

	summary := "no recognizable error format detected"
	if len(candidates) > 0 {
		summary = strconv.Itoa(len(candidates)) + " error-like line(s) detected by generic fallback"
	}

	return model.ExtractionResult{
		Summary:      summary,
		TotalErrors:  len(candidates),
		Errors:       errs,
		ErrorSummary: strings.Join(candidates, "\n"),
		Metadata: model.ExtractionMetadata{
			Confidence:   0,
			Completeness: completeness(errs),
			Issues:       []string{"no tool-specific extractor matched; falling back to generic line scan"},
		},
	}
}
