package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/ir"
)

func sampleDoc() ir.IRTagged {
	return ir.Tag("MDeal", ir.Obj(
		ir.O("name", ir.Str("Sample")),
		ir.O("status", ir.Tag("Amortizing")),
		ir.O("bonds", ir.Obj(
			ir.O("A", ir.Obj(ir.O("bndBalance", ir.MustNum("100.50")))),
			ir.O("B", ir.Obj(ir.O("bndBalance", ir.NumInt(20)))),
		)),
		ir.O("waterfall", ir.Obj(
			ir.O("DistributionDay Amortizing", ir.Arr(
				ir.Tag("CalcFee", ir.Str("f")),
				ir.Tag("PayFee", ir.Str("acc"), ir.Strings([]string{"f"})),
				ir.Tag("PayInt", ir.Str("acc"), ir.Strings([]string{"A"})),
				ir.Tag("PayPrin", ir.Str("acc"), ir.Strings([]string{"A"})),
			)),
		)),
	))
}

func compiledResult() *Result {
	r := NewResult()
	r.IR = sampleDoc()
	r.Fingerprint = ir.MustFingerprint(ir.DomainDeal, r.IR)
	return r
}

func TestLookupPath(t *testing.T) {
	doc := sampleDoc()

	v, ok := lookupPath(doc, "contents>bonds>A>bndBalance")
	require.True(t, ok)
	assert.Equal(t, ir.MustNum("100.50"), v)

	v, ok = lookupPath(doc, "contents>waterfall>DistributionDay Amortizing>2>tag")
	require.True(t, ok)
	assert.Equal(t, ir.IRString("PayInt"), v)

	v, ok = lookupPath(doc, "tag")
	require.True(t, ok)
	assert.Equal(t, ir.IRString("MDeal"), v)

	for _, p := range []string{"contents>fees", "contents>waterfall>DistributionDay Amortizing>9", "contents>name>x", "contents>status>contents"} {
		_, ok := lookupPath(doc, p)
		assert.False(t, ok, p)
	}
}

func TestAssertWaterfallOrder(t *testing.T) {
	doc := sampleDoc()
	phase := "DistributionDay Amortizing"

	assert.NoError(t, assertWaterfallOrder(doc, Assertion{Phase: phase, Actions: []string{"CalcFee", "PayInt"}}))
	assert.NoError(t, assertWaterfallOrder(doc, Assertion{Phase: phase, Actions: []string{"CalcFee", "PayFee", "PayInt", "PayPrin"}}))

	err := assertWaterfallOrder(doc, Assertion{Phase: phase, Actions: []string{"PayPrin", "PayInt"}})
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"CalcFee", "PayFee", "PayInt", "PayPrin"}, ae.Steps)
	assert.Contains(t, err.Error(), "no PayInt after step 3")

	err = assertWaterfallOrder(doc, Assertion{Phase: "CleanUp", Actions: []string{"LiquidatePool"}})
	assert.ErrorContains(t, err, "phase not found")
}

func TestAssertPathEquals(t *testing.T) {
	doc := sampleDoc()

	tests := []struct {
		name  string
		path  string
		value any
		ok    bool
	}{
		{"string", "contents>name", "Sample", true},
		{"decimal matches trailing zero", "contents>bonds>A>bndBalance", 100.5, true},
		{"integer", "contents>bonds>B>bndBalance", 20, true},
		{"tag only", "contents>status", map[string]any{"tag": "Amortizing"}, true},
		{"tagged step", "contents>waterfall>DistributionDay Amortizing>0", map[string]any{"tag": "CalcFee", "contents": "f"}, true},
		{"wrong value", "contents>name", "Other", false},
		{"wrong number", "contents>bonds>B>bndBalance", 21, false},
		{"missing path", "contents>fees", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertPathEquals(doc, Assertion{Path: tt.path, Value: tt.value})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertKeyAbsent(t *testing.T) {
	doc := sampleDoc()
	assert.NoError(t, assertKeyAbsent(doc, Assertion{Path: "contents>rateSwap"}))
	assert.ErrorContains(t, assertKeyAbsent(doc, Assertion{Path: "contents>name"}), `contents>name = "Sample"`)
}

func TestAssertEntityCount(t *testing.T) {
	doc := sampleDoc()
	two, zero := 2, 0
	assert.NoError(t, assertEntityCount(doc, Assertion{Entity: "bonds", Count: &two}))
	assert.NoError(t, assertEntityCount(doc, Assertion{Entity: "fees", Count: &zero}))
	assert.ErrorContains(t, assertEntityCount(doc, Assertion{Entity: "bonds", Count: &zero}), "Actual: 2 bonds")
}

func TestAssertCompileError(t *testing.T) {
	failed := NewResult()
	failed.CompileErr = &compiler.CompileError{
		Kind:    compiler.UnknownStatus,
		Field:   "deal.x.status",
		Message: `unknown deal status "paused"`,
	}

	assert.NoError(t, assertCompileError(failed, Assertion{Kind: "E103"}))
	assert.NoError(t, assertCompileError(failed, Assertion{Kind: "UnknownStatus", Contains: "paused"}))
	assert.Error(t, assertCompileError(failed, Assertion{Kind: "E101"}))
	assert.Error(t, assertCompileError(failed, Assertion{Contains: "revolving"}))
	assert.ErrorContains(t, assertCompileError(compiledResult(), Assertion{Kind: "E103"}), "deal compiled")
}

func TestAssertValidationError(t *testing.T) {
	r := compiledResult()
	r.Validation = []compiler.ValidationError{
		{Field: "waterfall>CleanUp>0", Code: compiler.ErrCodeReferenceNotFound},
		{Field: "waterfall>CleanUp>1", Code: compiler.ErrCodeReferenceNotFound},
	}
	two, zero := 2, 0

	assert.NoError(t, assertValidationError(r, Assertion{Kind: "E201"}))
	assert.NoError(t, assertValidationError(r, Assertion{Kind: "E201", Count: &two}))
	assert.NoError(t, assertValidationError(r, Assertion{Kind: "E202", Count: &zero}))
	assert.Error(t, assertValidationError(r, Assertion{Kind: "E202"}))
	assert.Error(t, assertValidationError(r, Assertion{Kind: "E201", Count: &zero}))
}

func TestEvaluateAssertions(t *testing.T) {
	r := compiledResult()
	two := 2
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertEntityCount, Entity: "bonds", Count: &two},
		{Type: AssertKeyAbsent, Path: "contents>name"},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "key_absent")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}
