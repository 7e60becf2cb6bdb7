package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

// playwrightFailLine matches lines of the shape:
//
//	1) [chromium] › login.spec.ts:12:3 › logs in with valid credentials
var playwrightFailLine = regexp.MustCompile(`(?m)^\s*\d+\)\s+(?:\[[^\]]+\]\s+)?›\s+(\S+\.spec\.[tj]sx?):(\d+):(\d+)\s+›\s+(.+)$`)

type playwrightPlugin struct{}

func newPlaywrightPlugin() Plugin { return playwrightPlugin{} }

func (playwrightPlugin) Name() string  { return "playwright" }
func (playwrightPlugin) Priority() int { return 95 }
func (playwrightPlugin) Hints() Hints {
	return Hints{Required: []string{".spec."}, AnyOf: []string{"›"}}
}

func (playwrightPlugin) Detect(output string) Detection {
	if playwrightFailLine.MatchString(output) {
		return Detection{Confidence: 93, Patterns: []string{".spec.ts with › separator"}, Reason: "playwright failure listing"}
	}
	return Detection{Confidence: 0}
}

func (playwrightPlugin) Extract(output, _ string) model.ExtractionResult {
	var errs []model.ExtractedError
	for _, m := range playwrightFailLine.FindAllStringSubmatch(output, -1) {
		lineNum, _ := strconv.Atoi(m[2])
		colNum, _ := strconv.Atoi(m[3])
		errs = append(errs, model.ExtractedError{
			File:     m[1],
			Line:     lineNum,
			Column:   colNum,
			Message:  strings.TrimSpace(m[4]),
			Severity: "error",
		})
	}
	total := len(errs)
	errs = truncateErrors(errs, total)

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " test(s) failed under playwright",
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   93,
			Completeness: completeness(errs),
		},
	}
}
