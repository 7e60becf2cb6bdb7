package extract

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

type junitTestsuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Testcases []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure"`
	Error     *junitFailure `xml:"error"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

type junitXMLPlugin struct{}

func newJUnitXMLPlugin() Plugin { return junitXMLPlugin{} }

func (junitXMLPlugin) Name() string  { return "junit-xml" }
func (junitXMLPlugin) Priority() int { return 100 }
func (junitXMLPlugin) Hints() Hints {
	return Hints{Required: []string{"<?xml"}, AnyOf: []string{"<testsuite"}}
}

func (junitXMLPlugin) Detect(output string) Detection {
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "<?xml") && strings.Contains(trimmed, "<testsuite") {
		return Detection{Confidence: 100, Patterns: []string{"<?xml header", "<testsuite tag"}, Reason: "JUnit XML report"}
	}
	return Detection{Confidence: 0}
}

func (junitXMLPlugin) Extract(output, _ string) model.ExtractionResult {
	var suite junitTestsuite
	if err := xml.Unmarshal([]byte(output), &suite); err != nil {
		return model.ExtractionResult{
			Summary: "failed to parse JUnit XML report",
			Metadata: model.ExtractionMetadata{
				Confidence: 40,
				Issues:     []string{"xml parse error: " + err.Error()},
			},
		}
	}

	var errs []model.ExtractedError
	total := 0
	for _, tc := range suite.Testcases {
		f := tc.Failure
		if f == nil {
			f = tc.Error
		}
		if f == nil {
			continue
		}
		total++
		msg := f.Message
		if msg == "" {
			msg = strings.TrimSpace(f.Text)
		}
		errs = append(errs, model.ExtractedError{
			Message:  tc.ClassName + "." + tc.Name + ": " + msg,
			Code:     f.Type,
			Severity: "error",
		})
	}
	errs = truncateErrors(errs, total)

	return model.ExtractionResult{
		Summary:     strconv.Itoa(total) + " test case(s) failed",
		TotalErrors: total,
		Errors:      errs,
		Metadata: model.ExtractionMetadata{
			Confidence:   100,
			Completeness: completeness(errs),
		},
	}
}
