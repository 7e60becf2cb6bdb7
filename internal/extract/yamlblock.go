package extract

import (
	"github.com/goccy/go-yaml"

	"github.com/jdutton/vibe-validate/internal/model"
)

// extractionHolder matches either a top-level `extraction:` field or a
// nested `phases[].steps[].extraction` field, whichever the validator
// matrix block happens to carry.
type extractionHolder struct {
	Extraction *model.ExtractionResult `yaml:"extraction"`
	Phases     []struct {
		Steps []struct {
			Extraction *model.ExtractionResult `yaml:"extraction"`
		} `yaml:"steps"`
	} `yaml:"phases"`
}

// parseExtractionBlock attempts to decode block as YAML and pull out an
// embedded extraction result, returning it verbatim if found.
func parseExtractionBlock(block string) (model.ExtractionResult, bool) {
	var holder extractionHolder
	if err := yaml.Unmarshal([]byte(block), &holder); err != nil {
		return model.ExtractionResult{}, false
	}
	if holder.Extraction != nil {
		return *holder.Extraction, true
	}
	for _, phase := range holder.Phases {
		for _, step := range phase.Steps {
			if step.Extraction != nil {
				return *step.Extraction, true
			}
		}
	}
	return model.ExtractionResult{}, false
}
