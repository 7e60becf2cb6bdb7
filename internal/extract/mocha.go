package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

var mochaSummaryLine = regexp.MustCompile(`(\d+)\s+passing|(\d+)\s+failing`)
var mochaNumberedFailure = regexp.MustCompile(`(?m)^\s*\d+\)\s+(.+)$`)

type mochaPlugin struct{}

func newMochaPlugin() Plugin { return mochaPlugin{} }

func (mochaPlugin) Name() string  { return "mocha" }
func (mochaPlugin) Priority() int { return 80 }
func (mochaPlugin) Hints() Hints {
	return Hints{AnyOf: []string{"passing", "failing"}}
}

func (mochaPlugin) Detect(output string) Detection {
	hasSummary := strings.Contains(output, "passing") || strings.Contains(output, "failing")
	hasNumbered := mochaNumberedFailure.MatchString(output)
	if hasSummary && hasNumbered {
		return Detection{Confidence: 82, Patterns: []string{"passing/failing", "numbered failures"}, Reason: "mocha spec reporter"}
	}
	if hasSummary {
		return Detection{Confidence: 60}
	}
	return Detection{Confidence: 0}
}

func (mochaPlugin) Extract(output, _ string) model.ExtractionResult {
	failing := 0
	for _, m := range mochaSummaryLine.FindAllStringSubmatch(output, -1) {
		if m[2] != "" {
			failing, _ = strconv.Atoi(m[2])
		}
	}

	var errs []model.ExtractedError
	for _, m := range mochaNumberedFailure.FindAllStringSubmatch(output, -1) {
		errs = append(errs, model.ExtractedError{Message: strings.TrimSpace(m[1]), Severity: "error"})
	}
	if failing == 0 {
		failing = len(errs)
	}
	errs = truncateErrors(errs, failing)

	return model.ExtractionResult{
		Summary:     strconv.Itoa(failing) + " test(s) failing under mocha",
		TotalErrors: failing,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   82,
			Completeness: completeness(errs),
		},
	}
}
