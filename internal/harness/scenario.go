package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: one deal description,
// compiled, and a list of assertions on the resulting IR.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the deal description file (.cue, .yaml, .yml or .json).
	// Relative paths are resolved against the scenario file's directory.
	Source string `yaml:"source"`

	// Deal is the label under deal: to compile. Empty means the first one.
	Deal string `yaml:"deal,omitempty"`

	// Assumption is an optional label under assumption: checked against
	// the compiled pool by the validator.
	Assumption string `yaml:"assumption,omitempty"`

	// Assertions validate the compiled IR or the compile failure.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of the compile outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Phase is the waterfall key (waterfall_order), e.g.
	// "DistributionDay Amortizing".
	Phase string `yaml:"phase,omitempty"`

	// Actions are the expected step tags in order (waterfall_order).
	// Intervening steps are allowed.
	Actions []string `yaml:"actions,omitempty"`

	// Path addresses a node of the IR document (path_equals, key_absent).
	// Segments are separated by ">"; array elements are addressed by index.
	Path string `yaml:"path,omitempty"`

	// Value is the expected node, compared in canonical form (path_equals).
	Value any `yaml:"value,omitempty"`

	// Entity is a deal section holding named entities: bonds, fees,
	// accounts, liqProvider, rateSwap (entity_count).
	Entity string `yaml:"entity,omitempty"`

	// Count is the expected number of entities (entity_count) or of
	// validation errors with Code (validation_error).
	Count *int `yaml:"count,omitempty"`

	// Kind is the expected error kind name or code, e.g.
	// "UnrecognizedPattern" or "E101" (compile_error), or the validation
	// code (validation_error).
	Kind string `yaml:"kind,omitempty"`

	// Contains must appear in the error message (compile_error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertWaterfallOrder  = "waterfall_order"
	AssertPathEquals      = "path_equals"
	AssertKeyAbsent       = "key_absent"
	AssertEntityCount     = "entity_count"
	AssertCompileError    = "compile_error"
	AssertValidationError = "validation_error"
)

var entitySections = []string{"bonds", "fees", "accounts", "liqProvider", "rateSwap", "currencySwap"}

// LoadScenario reads and parses a scenario YAML file. The source path is
// resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative source path against basePath.
// Unknown fields (typos) are rejected.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Source != "" && !filepath.IsAbs(scenario.Source) && basePath != "" {
		scenario.Source = filepath.Join(basePath, scenario.Source)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file of dir in name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}
	var out []*Scenario
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		sc, err := LoadScenario(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, sc)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Source == "" {
		return fmt.Errorf("source is required")
	}
	if _, err := os.Stat(s.Source); os.IsNotExist(err) {
		return fmt.Errorf("source file not found: %s", s.Source)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertWaterfallOrder:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for waterfall_order", index)
		}
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for waterfall_order", index)
		}
	case AssertPathEquals:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for path_equals", index)
		}
	case AssertKeyAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for key_absent", index)
		}
	case AssertEntityCount:
		if !slices.Contains(entitySections, a.Entity) {
			return fmt.Errorf("assertions[%d]: entity must be one of %v for entity_count", index, entitySections)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for entity_count", index)
		}
	case AssertCompileError:
		if a.Kind == "" && a.Contains == "" {
			return fmt.Errorf("assertions[%d]: kind or contains is required for compile_error", index)
		}
	case AssertValidationError:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for validation_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
