package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a scenario file next to an empty deal source and
// returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deal.cue"), []byte("deal: x: {}\n"), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "Sample scenario"
source: deal.cue
deal: x
assertions:
  - type: entity_count
    entity: bonds
    count: 0
  - type: path_equals
    path: contents>name
    value: x
`)

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "sample", sc.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "deal.cue"), sc.Source)
	assert.Equal(t, "x", sc.Deal)
	require.Len(t, sc.Assertions, 2)
	require.NotNil(t, sc.Assertions[0].Count)
	assert.Equal(t, 0, *sc.Assertions[0].Count)
	assert.Equal(t, "x", sc.Assertions[1].Value)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "typo below"
source: deal.cue
assertion:
  - type: key_absent
    path: contents>rateSwap
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", "description: d\nsource: deal.cue\nassertions: [{type: key_absent, path: a}]\n", "name is required"},
		{"missing description", "name: n\nsource: deal.cue\nassertions: [{type: key_absent, path: a}]\n", "description is required"},
		{"missing source", "name: n\ndescription: d\nassertions: [{type: key_absent, path: a}]\n", "source is required"},
		{"source not found", "name: n\ndescription: d\nsource: nope.cue\nassertions: [{type: key_absent, path: a}]\n", "source file not found"},
		{"no assertions", "name: n\ndescription: d\nsource: deal.cue\n", "assertions list is required"},
		{"unknown type", "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: trace_order}]\n", "unknown assertion type"},
		{"order without phase", "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: waterfall_order, actions: [PayInt]}]\n", "phase is required"},
		{"order without actions", "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: waterfall_order, phase: CleanUp}]\n", "actions list is required"},
		{"path without path", "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: path_equals, value: 1}]\n", "path is required"},
		{"count bad entity", "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: entity_count, entity: assets, count: 1}]\n", "entity must be one of"},
		{"count missing", "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: entity_count, entity: bonds}]\n", "non-negative count"},
		{"compile error empty", "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: compile_error}]\n", "kind or contains"},
		{"validation without kind", "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: validation_error}]\n", "kind is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	path := writeScenario(t, "name: n\ndescription: d\nsource: deal.cue\nassertions: [{type: key_absent, path: a}]\n")
	base := filepath.Dir(path)

	sc, err := LoadScenarioWithBasePath(path, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "deal.cue"), sc.Source)
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	var names []string
	for _, sc := range scenarios {
		names = append(names, sc.Name)
	}
	assert.Equal(t, []string{"bad_frequency", "demo_waterfall"}, names)
}
