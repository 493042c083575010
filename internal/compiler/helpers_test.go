package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/require"

	"github.com/absbox/absc/internal/ir"
)

// expr compiles a single CUE expression.
func expr(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString("x: " + src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath("x"))
}

func canon(t *testing.T, v ir.IRValue) string {
	t.Helper()
	b, err := ir.MarshalCanonical(v)
	require.NoError(t, err)
	return string(b)
}

// requireKind asserts err is a *CompileError of the given kind.
func requireKind(t *testing.T, err error, kind Kind) *CompileError {
	t.Helper()
	require.Error(t, err)
	ce, ok := err.(*CompileError)
	require.True(t, ok, "want *CompileError, got %T: %v", err, err)
	require.Equal(t, kind, ce.Kind, ce.Error())
	return ce
}
