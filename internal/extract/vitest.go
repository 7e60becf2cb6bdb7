package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

var vitestRunHeader = regexp.MustCompile(`(?m)^\s*RUN\s+v\d+\.\d+`)
var vitestFailLine = regexp.MustCompile(`(?m)^\s*(?:FAIL|×|✗)\s+(\S+)\s*(?:>\s*(.+))?$`)
var vitestTestFilesSummary = regexp.MustCompile(`Test Files\s+(\d+)\s+failed`)
var vitestAssertionError = regexp.MustCompile(`(?s)AssertionError:\s*(.+?)(?:\n\s*\n|\z)`)

type vitestPrimaryPlugin struct{}

func newVitestPrimaryPlugin() Plugin { return vitestPrimaryPlugin{} }

func (vitestPrimaryPlugin) Name() string  { return "vitest" }
func (vitestPrimaryPlugin) Priority() int { return 100 }
func (vitestPrimaryPlugin) Hints() Hints {
	return Hints{Required: []string{"RUN v"}}
}

func (vitestPrimaryPlugin) Detect(output string) Detection {
	if vitestRunHeader.MatchString(output) {
		return Detection{Confidence: 96, Patterns: []string{`^ RUN v\d+\.\d+`}, Reason: "vitest RUN banner"}
	}
	return Detection{Confidence: 0}
}

func (vitestPrimaryPlugin) Extract(output, command string) model.ExtractionResult {
	return extractVitestLike(output, "vitest", 96)
}

type vitestFallbackPlugin struct{}

func newVitestFallbackPlugin() Plugin { return vitestFallbackPlugin{} }

func (vitestFallbackPlugin) Name() string  { return "vitest-fallback" }
func (vitestFallbackPlugin) Priority() int { return 90 }
func (vitestFallbackPlugin) Hints() Hints {
	return Hints{Required: []string{"Test Files"}, AnyOf: []string{"FAIL", "×", "✗"}}
}

func (vitestFallbackPlugin) Detect(output string) Detection {
	if strings.Contains(output, "Test Files") && (strings.Contains(output, "FAIL") || strings.Contains(output, "×")) {
		return Detection{Confidence: 85, Patterns: []string{"Test Files", "error markers"}, Reason: "vitest fallback summary without RUN banner"}
	}
	return Detection{Confidence: 0}
}

func (vitestFallbackPlugin) Extract(output, _ string) model.ExtractionResult {
	return extractVitestLike(output, "vitest-fallback", 85)
}

func extractVitestLike(output, extractorName string, confidence int) model.ExtractionResult {
	var errs []model.ExtractedError
	total := 0
	for _, m := range vitestFailLine.FindAllStringSubmatch(output, -1) {
		total++
		msg := m[2]
		if msg == "" {
			msg = "test failed"
		}
		errs = append(errs, model.ExtractedError{
			File:     m[1],
			Message:  msg,
			Severity: "error",
		})
	}
	if total == 0 {
		if m := vitestTestFilesSummary.FindStringSubmatch(output); m != nil {
			total, _ = strconv.Atoi(m[1])
		}
	}
	errs = truncateErrors(errs, total)

	var guidance string
	if m := vitestAssertionError.FindStringSubmatch(output); m != nil {
		guidance = strings.TrimSpace(m[1])
	}

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " test file(s) failed under vitest",
		TotalErrors: total,
		Errors:      errs,
		Guidance:    guidance,
		Metadata: model.ExtractionMetadata{
			Confidence:   confidence,
			Completeness: completeness(errs),
		},
	}
}
