package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindCycles(t *testing.T) {
	tests := []struct {
		name  string
		graph dependencyGraph
		want  [][]string
	}{
		{"empty", dependencyGraph{}, nil},
		{"dag", dependencyGraph{"a": {"b", "c"}, "b": {"c"}, "c": {}}, nil},
		{"self loop", dependencyGraph{"a": {"a"}}, [][]string{{"a", "a"}}},
		{"two nodes", dependencyGraph{"a": {"b"}, "b": {"a"}}, [][]string{{"a", "b", "a"}}},
		{
			"three nodes",
			dependencyGraph{"x": {"y"}, "y": {"z"}, "z": {"x"}},
			[][]string{{"x", "y", "z", "x"}},
		},
		{
			"independent cycles sorted",
			dependencyGraph{"p": {"q"}, "q": {"p"}, "b": {"c"}, "c": {"b"}, "lone": {"b"}},
			[][]string{{"b", "c", "b"}, {"p", "q", "p"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findCycles(tt.graph))
		})
	}
}

func TestFindCyclesIsDeterministic(t *testing.T) {
	graph := dependencyGraph{"m": {"n"}, "n": {"o"}, "o": {"m"}, "a": {"b"}, "b": {"a"}}
	first := findCycles(graph)
	for range 20 {
		assert.Equal(t, first, findCycles(graph))
	}
}

func TestCyclePath(t *testing.T) {
	assert.Equal(t, "a -> b -> a", cyclePath([]string{"a", "b", "a"}))
}

func TestHasSelfLoop(t *testing.T) {
	graph := dependencyGraph{"a": {"a"}, "b": {"a"}}
	assert.True(t, hasSelfLoop("a", graph))
	assert.False(t, hasSelfLoop("b", graph))
	assert.False(t, hasSelfLoop("missing", graph))
}

func TestTarjanSCC(t *testing.T) {
	sccs := tarjanSCC(dependencyGraph{"a": {"b"}, "b": {"a"}, "c": {"a"}})
	assert.Len(t, sccs, 2)

	var sizes []int
	for _, scc := range sccs {
		sizes = append(sizes, len(scc))
	}
	assert.ElementsMatch(t, []int{2, 1}, sizes)
}

func TestReconstructCyclePath(t *testing.T) {
	graph := dependencyGraph{"a": {"b"}, "b": {"c"}, "c": {"a"}}
	assert.Equal(t, []string{"a", "b", "c", "a"}, reconstructCyclePath([]string{"a", "b", "c"}, graph))
	assert.Equal(t, []string{"a", "a"}, reconstructCyclePath([]string{"a"}, dependencyGraph{"a": {"a"}}))
}
