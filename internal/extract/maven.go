package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

// --- Surefire / Failsafe --------------------------------------------------

var mavenSurefireHeader = regexp.MustCompile(`\[ERROR\]\s+Tests run:`)
var mavenFailureMarker = regexp.MustCompile(`<<<\s+FAILURE!`)
var mavenSurefireTestLine = regexp.MustCompile(`(?m)^\[ERROR\]\s+(\S+)\s+Time elapsed.*<<<\s+FAILURE!`)

type mavenSurefirePlugin struct{}

func newMavenSurefirePlugin() Plugin { return mavenSurefirePlugin{} }

func (mavenSurefirePlugin) Name() string  { return "maven-surefire" }
func (mavenSurefirePlugin) Priority() int { return 95 }
func (mavenSurefirePlugin) Hints() Hints {
	return Hints{Required: []string{"[ERROR] Tests run:"}, AnyOf: []string{"FAILURE!"}}
}

func (mavenSurefirePlugin) Detect(output string) Detection {
	if mavenSurefireHeader.MatchString(output) && mavenFailureMarker.MatchString(output) {
		return Detection{Confidence: 95, Patterns: []string{"[ERROR] Tests run:", "<<< FAILURE!"}, Reason: "maven surefire/failsafe failure report"}
	}
	return Detection{Confidence: 0}
}

func (mavenSurefirePlugin) Extract(output, _ string) model.ExtractionResult {
	var errs []model.ExtractedError
	for _, m := range mavenSurefireTestLine.FindAllStringSubmatch(output, -1) {
		errs = append(errs, model.ExtractedError{Message: m[1] + " failed", Severity: "error"})
	}
	total := len(errs)
	errs = truncateErrors(errs, total)

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " test(s) failed under maven surefire/failsafe",
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   95,
			Completeness: completeness(errs),
		},
	}
}

// --- Checkstyle ------------------------------------------------------------

var checkstyleLine = regexp.MustCompile(`(?m)^\[ERROR\]\s+(.+?):\[(\d+)(?:,(\d+))?\]\s+(.+?)\s+\[(\S+)\]$`)

type mavenCheckstylePlugin struct{}

func newMavenCheckstylePlugin() Plugin { return mavenCheckstylePlugin{} }

func (mavenCheckstylePlugin) Name() string  { return "maven-checkstyle" }
func (mavenCheckstylePlugin) Priority() int { return 70 }
func (mavenCheckstylePlugin) Hints() Hints {
	return Hints{Required: []string{"checkstyle"}}
}

func (mavenCheckstylePlugin) Detect(output string) Detection {
	if strings.Contains(strings.ToLower(output), "checkstyle") && checkstyleLine.MatchString(output) {
		return Detection{Confidence: 72, Patterns: []string{"checkstyle violation line"}, Reason: "maven checkstyle plugin output"}
	}
	return Detection{Confidence: 0}
}

func (mavenCheckstylePlugin) Extract(output, _ string) model.ExtractionResult {
	var errs []model.ExtractedError
	for _, m := range checkstyleLine.FindAllStringSubmatch(output, -1) {
		lineNum, _ := strconv.Atoi(m[2])
		colNum, _ := strconv.Atoi(m[3])
		errs = append(errs, model.ExtractedError{
			File:     m[1],
			Line:     lineNum,
			Column:   colNum,
			Message:  m[4],
			Code:     m[5],
			Severity: "warning",
		})
	}
	total := len(errs)
	errs = truncateErrors(errs, total)

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " checkstyle violation(s)",
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   72,
			Completeness: completeness(errs),
		},
	}
}

// --- Compiler plugin ---------------------------------------------------

var mavenCompilerLine = regexp.MustCompile(`(?m)^\[ERROR\]\s+(.+?):\[(\d+),(\d+)\]\s+(.+)$`)

type mavenCompilerPlugin struct{}

func newMavenCompilerPlugin() Plugin { return mavenCompilerPlugin{} }

func (mavenCompilerPlugin) Name() string  { return "maven-compiler" }
func (mavenCompilerPlugin) Priority() int { return 70 }
func (mavenCompilerPlugin) Hints() Hints {
	return Hints{Required: []string{"[ERROR]"}, AnyOf: []string{"COMPILATION ERROR", "compiler plugin"}}
}

func (mavenCompilerPlugin) Detect(output string) Detection {
	if strings.Contains(output, "COMPILATION ERROR") && mavenCompilerLine.MatchString(output) {
		return Detection{Confidence: 72, Patterns: []string{"COMPILATION ERROR", "file:[line,col] message"}, Reason: "maven compiler plugin output"}
	}
	return Detection{Confidence: 0}
}

func (mavenCompilerPlugin) Extract(output, _ string) model.ExtractionResult {
	var errs []model.ExtractedError
	for _, m := range mavenCompilerLine.FindAllStringSubmatch(output, -1) {
		lineNum, _ := strconv.Atoi(m[2])
		colNum, _ := strconv.Atoi(m[3])
		errs = append(errs, model.ExtractedError{
			File:     m[1],
			Line:     lineNum,
			Column:   colNum,
			Message:  m[4],
			Severity: "error",
		})
	}
	total := len(errs)
	errs = truncateErrors(errs, total)

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " compilation error(s)",
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   72,
			Completeness: completeness(errs),
		},
	}
}
