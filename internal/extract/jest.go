package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

var jestBulletLine = regexp.MustCompile(`(?m)^\s*●\s+(.+)$`)
var jestSuitesSummary = regexp.MustCompile(`Test Suites:\s*(\d+)\s+failed`)
var jestAtLocation = regexp.MustCompile(`at .*\((.+):(\d+):(\d+)\)`)

type jestPlugin struct{}

func newJestPlugin() Plugin { return jestPlugin{} }

func (jestPlugin) Name() string  { return "jest" }
func (jestPlugin) Priority() int { return 90 }
func (jestPlugin) Hints() Hints {
	return Hints{AnyOf: []string{"●", "Test Suites:"}}
}

func (jestPlugin) Detect(output string) Detection {
	if jestBulletLine.MatchString(output) {
		return Detection{Confidence: 90, Patterns: []string{"●"}, Reason: "jest bullet failure marker"}
	}
	if jestSuitesSummary.MatchString(output) {
		return Detection{Confidence: 85, Patterns: []string{"Test Suites:"}, Reason: "jest suite summary"}
	}
	return Detection{Confidence: 0}
}

func (jestPlugin) Extract(output, _ string) model.ExtractionResult {
	var errs []model.ExtractedError
	total := 0
	for _, m := range jestBulletLine.FindAllStringSubmatch(output, -1) {
		total++
		e := model.ExtractedError{Message: strings.TrimSpace(m[1]), Severity: "error"}
		if loc := jestAtLocation.FindStringSubmatch(output); loc != nil {
			e.File = loc[1]
			e.Line, _ = strconv.Atoi(loc[2])
			e.Column, _ = strconv.Atoi(loc[3])
		}
		errs = append(errs, e)
	}
	if total == 0 {
		if m := jestSuitesSummary.FindStringSubmatch(output); m != nil {
			total, _ = strconv.Atoi(m[1])
		}
	}
	errs = truncateErrors(errs, total)

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " test(s) failed under jest",
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   90,
			Completeness: completeness(errs),
		},
	}
}
