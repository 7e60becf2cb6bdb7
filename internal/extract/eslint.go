package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

// eslintLocationLine matches stylish-format location lines:
// "  12:34  error  'foo' is not defined  no-undef"
var eslintLocationLine = regexp.MustCompile(`^\s*(\d+):(\d+)\s+(error|warning)\s+(.+?)(?:\s{2,}(\S+))?$`)

// eslintSummaryLine matches the final "✖ N problems (M errors, K warnings)" line.
var eslintSummaryLine = regexp.MustCompile(`✖\s*(\d+)\s+problems?`)

// eslintFileHeader matches a bare file path line preceding a block of
// location lines in stylish output.
var eslintFileHeader = regexp.MustCompile(`^(\/[^\s:]+|[A-Za-z]:\\[^\s:]+|\.{1,2}\/[^\s:]+)$`)

type eslintPlugin struct{}

func newESLintPlugin() Plugin { return eslintPlugin{} }

func (eslintPlugin) Name() string  { return "eslint" }
func (eslintPlugin) Priority() int { return 90 }
func (eslintPlugin) Hints() Hints {
	return Hints{AnyOf: []string{"eslint", "✖", "problem"}}
}

func (eslintPlugin) Detect(output string) Detection {
	if eslintSummaryLine.MatchString(output) {
		return Detection{Confidence: 92, Patterns: []string{`✖ N problems`}, Reason: "eslint summary line"}
	}
	locCount := 0
	for _, line := range strings.Split(output, "\n") {
		if eslintLocationLine.MatchString(line) {
			locCount++
		}
	}
	if locCount >= 1 {
		return Detection{Confidence: 80, Patterns: []string{`line:col error/warning`}, Reason: "eslint stylish location lines"}
	}
	return Detection{Confidence: 0}
}

func (eslintPlugin) Extract(output, _ string) model.ExtractionResult {
	var errs []model.ExtractedError
	total := 0
	currentFile := ""

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimRight(raw, "\r")
		if m := eslintFileHeader.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			currentFile = m[1]
			continue
		}
		m := eslintLocationLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		total++
		lineNum, _ := strconv.Atoi(m[1])
		colNum, _ := strconv.Atoi(m[2])
		errs = append(errs, model.ExtractedError{
			File:     currentFile,
			Line:     lineNum,
			Column:   colNum,
			Severity: m[3],
			Message:  strings.TrimSpace(m[4]),
			Code:     m[5],
		})
	}
	errs = truncateErrors(errs, total)

	if total == 0 {
		if m := eslintSummaryLine.FindStringSubmatch(output); m != nil {
			total, _ = strconv.Atoi(m[1])
		}
	}

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " problem(s) reported by eslint",
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   90,
			Completeness: completeness(errs),
		},
	}
}
