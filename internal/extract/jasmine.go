package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

var jasmineFailuresHeader = regexp.MustCompile(`Failures:`)
var jasmineNumberedFailure = regexp.MustCompile(`(?m)^\d+\)\s+(.+)$`)

type jasminePlugin struct{}

func newJasminePlugin() Plugin { return jasminePlugin{} }

func (jasminePlugin) Name() string  { return "jasmine" }
func (jasminePlugin) Priority() int { return 85 }
func (jasminePlugin) Hints() Hints {
	return Hints{Required: []string{"Failures:"}}
}

func (jasminePlugin) Detect(output string) Detection {
	if jasmineFailuresHeader.MatchString(output) && jasmineNumberedFailure.MatchString(output) {
		return Detection{Confidence: 87, Patterns: []string{"Failures:", "numbered list"}, Reason: "jasmine failures block"}
	}
	return Detection{Confidence: 0}
}

func (jasminePlugin) Extract(output, _ string) model.ExtractionResult {
	var errs []model.ExtractedError
	for _, m := range jasmineNumberedFailure.FindAllStringSubmatch(output, -1) {
		errs = append(errs, model.ExtractedError{Message: strings.TrimSpace(m[1]), Severity: "error"})
	}
	total := len(errs)
	errs = truncateErrors(errs, total)

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " failure(s) under jasmine",
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   87,
			Completeness: completeness(errs),
		},
	}
}
