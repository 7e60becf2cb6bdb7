package extract

import (
	"sort"
	"strings"

	"github.com/jdutton/vibe-validate/internal/model"
)

// Registry holds every known Plugin, tried in priority order (ties break
// on declaration order, matching the teacher's DefaultRegistry idiom of
// registering parsers highest-priority-first).
type Registry struct {
	plugins []Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a plugin, keeping plugins sorted by descending priority
// with stable ordering for ties.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	sort.SliceStable(r.plugins, func(i, j int) bool {
		return r.plugins[i].Priority() > r.plugins[j].Priority()
	})
}

// DefaultRegistry returns a Registry carrying every plugin in spec
// §4.5's priority ladder.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(newVitestPrimaryPlugin())
	r.Register(newJUnitXMLPlugin())
	r.Register(newTypeScriptPlugin())
	r.Register(newMavenSurefirePlugin())
	r.Register(newPlaywrightPlugin())
	r.Register(newESLintPlugin())
	r.Register(newJestPlugin())
	r.Register(newVitestFallbackPlugin())
	r.Register(newJasminePlugin())
	r.Register(newMochaPlugin())
	r.Register(newMavenCheckstylePlugin())
	r.Register(newMavenCompilerPlugin())
	return r
}

// AutoDetectAndExtract evaluates plugins in priority order, applying the
// hint pre-filter before calling Detect, and keeps a running best. The
// first plugin (by priority/declaration order) to reach DetectThreshold
// wins outright; otherwise the highest-confidence candidate seen is used
// if it clears the threshold. If none do, the generic extractor runs.
func (r *Registry) AutoDetectAndExtract(output, command string) model.ExtractionResult {
	cleaned := StripCIPrefixes(StripANSI(output))

	if result, ok := detectValidatorMatrixBlock(cleaned); ok {
		return result
	}

	var best Plugin
	var bestDetection Detection

	for _, p := range r.plugins {
		if !p.Hints().Matches(cleaned) {
			continue
		}
		d := p.Detect(cleaned)
		if d.Confidence >= DetectThreshold {
			return withDetection(p.Extract(cleaned, command), p.Name(), d)
		}
		if d.Confidence > bestDetection.Confidence {
			best, bestDetection = p, d
		}
	}

	if best != nil && bestDetection.Confidence >= DetectThreshold {
		return withDetection(best.Extract(cleaned, command), best.Name(), bestDetection)
	}

	return extractGeneric(cleaned)
}

func withDetection(result model.ExtractionResult, name string, d Detection) model.ExtractionResult {
	result.Metadata.Detection = &model.Detection{
		Extractor:  name,
		Confidence: d.Confidence,
		Patterns:   d.Patterns,
		Reason:     d.Reason,
	}
	return result
}

// detectValidatorMatrixBlock looks for a `---`-delimited block that
// parses as YAML and contains a top-level or nested `extraction` field,
// returning it verbatim without running any plugin (spec §4.5).
func detectValidatorMatrixBlock(output string) (model.ExtractionResult, bool) {
	blocks := splitDashBlocks(output)
	for _, block := range blocks {
		if result, ok := parseExtractionBlock(block); ok {
			return result, true
		}
	}
	return model.ExtractionResult{}, false
}

func splitDashBlocks(output string) []string {
	lines := strings.Split(output, "\n")
	var blocks []string
	var current []string
	inBlock := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "---" {
			if inBlock {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			inBlock = !inBlock
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}
	return blocks
}

func truncateErrors(errs []model.ExtractedError, total int) []model.ExtractedError {
	limit := model.MaxErrorsInArray
	if total < limit {
		limit = total
	}
	if len(errs) > limit {
		return errs[:limit]
	}
	return errs
}

func completeness(errs []model.ExtractedError) int {
	if len(errs) == 0 {
		return 100
	}
	withBoth := 0
	for _, e := range errs {
		if e.File != "" && e.Line != 0 {
			withBoth++
		}
	}
	return withBoth * 100 / len(errs)
}
