package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

// tsErrorPattern matches tsc's single-line format:
// file.ts(line,col): error TSxxxx: message
var tsErrorPattern = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\):\s+error\s+(TS\d+):\s+(.+)$`)

type typeScriptPlugin struct{}

func newTypeScriptPlugin() Plugin { return typeScriptPlugin{} }

func (typeScriptPlugin) Name() string   { return "typescript" }
func (typeScriptPlugin) Priority() int  { return 95 }
func (typeScriptPlugin) Hints() Hints {
	return Hints{AnyOf: []string{"error TS"}}
}

func (typeScriptPlugin) Detect(output string) Detection {
	count := 0
	for _, line := range strings.Split(output, "\n") {
		if tsErrorPattern.MatchString(line) {
			count++
		}
	}
	if count == 0 {
		return Detection{Confidence: 0}
	}
	return Detection{Confidence: 95, Patterns: []string{`error TS\d+:`}, Reason: "tsc single-line error format"}
}

func (typeScriptPlugin) Extract(output, _ string) model.ExtractionResult {
	var errs []model.ExtractedError
	total := 0
	for _, line := range strings.Split(output, "\n") {
		m := tsErrorPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		total++
		lineNum, _ := strconv.Atoi(m[2])
		colNum, _ := strconv.Atoi(m[3])
		errs = append(errs, model.ExtractedError{
			File:     m[1],
			Line:     lineNum,
			Column:   colNum,
			Code:     m[4],
			Message:  m[5],
			Severity: "error",
		})
	}
	errs = truncateErrors(errs, total)

	summary := strconv.Itoa(total) + " type error(s), 0 warning(s)"
	return model.ExtractionResult{
		Summary:     summary,
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   95,
			Completeness: completeness(errs),
		},
	}
}
