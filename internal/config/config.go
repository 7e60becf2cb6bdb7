// Package config loads and validates vibe-validate.config.yaml into the
// typed pipeline.Config the orchestrator consumes. Loading is a
// boundary concern: the YAML is decoded once into a loose map for JSON
// Schema validation, and decoded again into the typed shape so the core
// pipeline package never has to know about schemas or file paths.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jdutton/vibe-validate/internal/apperrors"
	"github.com/jdutton/vibe-validate/internal/pipeline"
)

// FileName is the config file vibe-validate looks for, walking upward
// from the invocation directory alongside the .git directory.
const FileName = "vibe-validate.config.yaml"

//go:embed schema.json
var schemaJSON []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("vibe-validate-config.json", strings.NewReader(string(schemaJSON))); err != nil {
			compileErr = fmt.Errorf("config: registering schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("vibe-validate-config.json")
	})
	return compiledSchema, compileErr
}

// Retention holds the cache-prune policy, defaulting to spec §5's 30
// days / 1000 notes.
type Retention struct {
	MaxAge   time.Duration
	MaxNotes int
}

// DefaultRetention matches the resource caps named in spec §5.
var DefaultRetention = Retention{MaxAge: 30 * 24 * time.Hour, MaxNotes: 1000}

// Resolved is a loaded config plus the paths it was found at.
type Resolved struct {
	Path      string
	RepoRoot  string
	Pipeline  pipeline.Config
	Retention Retention
}

// FindUpward walks upward from startDir looking for both FileName and a
// .git directory, per spec §6's "optional subdirectory invocation must
// walk upward to find both the config and the .git directory."
func FindUpward(startDir string) (configPath, repoRoot string, err error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", "", fmt.Errorf("config: resolving start directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			configPath = candidate
		}
		if info, statErr := os.Stat(filepath.Join(dir, ".git")); statErr == nil && info.IsDir() {
			repoRoot = dir
		}
		if configPath != "" && repoRoot != "" {
			return configPath, repoRoot, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if repoRoot == "" {
		return "", "", &apperrors.GitUnavailable{Reason: "no .git directory found above " + startDir}
	}
	return "", "", &apperrors.ConfigError{Path: filepath.Join(startDir, FileName), Message: "not found in " + startDir + " or any parent directory"}
}

// Load reads, schema-validates, and decodes the config file at path.
func Load(path string, repoRoot string) (*Resolved, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperrors.ConfigError{Path: path, Message: "reading file", Err: err}
	}

	if err := validate(path, raw); err != nil {
		return nil, err
	}

	var doc rawConfig
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &apperrors.ConfigError{Path: path, Message: "decoding YAML", Err: err}
	}

	cfg, err := doc.toPipelineConfig(path)
	if err != nil {
		return nil, err
	}

	retention := DefaultRetention
	if doc.Retention != nil {
		if doc.Retention.MaxAgeDays > 0 {
			retention.MaxAge = time.Duration(doc.Retention.MaxAgeDays) * 24 * time.Hour
		}
		if doc.Retention.MaxNotes > 0 {
			retention.MaxNotes = doc.Retention.MaxNotes
		}
	}

	return &Resolved{Path: path, RepoRoot: repoRoot, Pipeline: cfg, Retention: retention}, nil
}

// validate decodes raw as a loose document and checks it against the
// embedded JSON Schema, translating the first validation error into a
// ConfigError with a JSON-pointer-style field path.
func validate(path string, raw []byte) error {
	var loose any
	if err := yaml.Unmarshal(raw, &loose); err != nil {
		return &apperrors.ConfigError{Path: path, Message: "decoding YAML", Err: err}
	}

	// jsonschema validates over json.Unmarshal-shaped values (map[string]any
	// with string keys); goccy/go-yaml already produces that shape for
	// YAML mappings, but round-trip through encoding/json to normalize
	// numeric types (int vs float64) the way the schema expects.
	normalized, err := roundTripJSON(loose)
	if err != nil {
		return &apperrors.ConfigError{Path: path, Message: "normalizing document", Err: err}
	}

	s, err := schema()
	if err != nil {
		return err
	}
	if err := s.Validate(normalized); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			field := verr.InstanceLocation
			if len(verr.Causes) > 0 {
				field = verr.Causes[0].InstanceLocation
			}
			return &apperrors.ConfigError{Path: path, Field: field, Message: err.Error(), Err: err}
		}
		return &apperrors.ConfigError{Path: path, Message: "schema validation failed", Err: err}
	}
	return nil
}

func roundTripJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- raw YAML shapes, decoded before conversion to pipeline.Config ---

type rawConfig struct {
	Schema    string        `yaml:"$schema,omitempty"`
	Retention *rawRetention `yaml:"retention,omitempty"`
	Phases    []rawPhase    `yaml:"phases"`
	Ignore    []string      `yaml:"ignore,omitempty"`
}

type rawRetention struct {
	MaxAgeDays int `yaml:"maxAgeDays,omitempty"`
	MaxNotes   int `yaml:"maxNotes,omitempty"`
}

type rawPhase struct {
	Name     string    `yaml:"name"`
	Parallel bool      `yaml:"parallel,omitempty"`
	FailFast *bool     `yaml:"failFast,omitempty"`
	Timeout  string    `yaml:"timeout,omitempty"`
	Steps    []rawStep `yaml:"steps"`
}

type rawStep struct {
	Name            string   `yaml:"name"`
	Command         string   `yaml:"command"`
	Workdir         string   `yaml:"workdir,omitempty"`
	Env             []string `yaml:"env,omitempty"`
	ContinueOnError bool     `yaml:"continueOnError,omitempty"`
	Timeout         string   `yaml:"timeout,omitempty"`
}

func (d rawConfig) toPipelineConfig(path string) (pipeline.Config, error) {
	phases := make([]pipeline.PhaseConfig, len(d.Phases))
	for i, p := range d.Phases {
		timeout, err := parseDuration(p.Timeout)
		if err != nil {
			return pipeline.Config{}, &apperrors.ConfigError{Path: path, Field: fmt.Sprintf("/phases/%d/timeout", i), Message: err.Error()}
		}

		failFast := true // default true per spec §4.7
		if p.FailFast != nil {
			failFast = *p.FailFast
		}

		steps := make([]pipeline.StepConfig, len(p.Steps))
		for j, s := range p.Steps {
			stepTimeout, err := parseDuration(s.Timeout)
			if err != nil {
				return pipeline.Config{}, &apperrors.ConfigError{Path: path, Field: fmt.Sprintf("/phases/%d/steps/%d/timeout", i, j), Message: err.Error()}
			}
			steps[j] = pipeline.StepConfig{
				Name:            s.Name,
				Command:         s.Command,
				Workdir:         s.Workdir,
				Env:             s.Env,
				ContinueOnError: s.ContinueOnError,
				Timeout:         stepTimeout,
			}
		}

		phases[i] = pipeline.PhaseConfig{
			Name:     p.Name,
			Parallel: p.Parallel,
			FailFast: failFast,
			Timeout:  timeout,
			Steps:    steps,
		}
	}
	return pipeline.Config{Phases: phases, IgnoreGlobs: d.Ignore}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
