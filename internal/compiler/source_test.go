package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absbox/absc/internal/ir"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// The same deal written as CUE, YAML and JSON compiles to the same bytes.
func TestCompileSourceFormats(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	var fingerprints []string
	for _, name := range []string{"demo.cue", "demo.yaml", "demo.json"} {
		t.Run(name, func(t *testing.T) {
			deals, err := CompileSource(context.Background(), name, readTestdata(t, name), 2)
			require.NoError(t, err)
			require.Len(t, deals, 1)
			assert.Equal(t, "demo", deals[0].Label)

			out, err := ir.MarshalIndent(deals[0].IR)
			require.NoError(t, err)
			g.Assert(t, "demo", out)
			fingerprints = append(fingerprints, deals[0].Fingerprint)
		})
	}
	require.Len(t, fingerprints, 3)
	assert.Equal(t, fingerprints[0], fingerprints[1])
	assert.Equal(t, fingerprints[0], fingerprints[2])
}

func TestCompileSourceKeepsSourceOrder(t *testing.T) {
	src := []byte(`
deal: zeta: _base
deal: alpha: _base
deal: mid: _base
deal: beta: _base
_base: {
` + minimalDeal + `
}
`)
	deals, err := CompileSource(context.Background(), "many.cue", src, 3)
	require.NoError(t, err)

	var labels []string
	for _, d := range deals {
		labels = append(labels, d.Label)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid", "beta"}, labels)
	assert.NotEqual(t, deals[0].Fingerprint, deals[1].Fingerprint)
}

func TestCompileSourceFailsAsAWhole(t *testing.T) {
	src := []byte(`
deal: good: _base
deal: bad: _base & {status: "dormant"}
_base: {
` + minimalDeal + `
}
`)
	deals, err := CompileSource(context.Background(), "many.cue", src, 2)
	assert.Nil(t, deals)
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}

func TestCompileSourceReportsFirstFailureInSourceOrder(t *testing.T) {
	src := []byte(`
deal: good: _base
deal: first: _base & {status: "dormant"}
deal: second: _base & {fees: junk: type: bogus: 1}
deal: third: _base & {fees: junk: type: bogus: 1}
deal: fourth: _base & {fees: junk: type: bogus: 1}
_base: {
` + minimalDeal + `
}
`)
	for range 20 {
		deals, err := CompileSource(context.Background(), "many.cue", src, 4)
		require.Nil(t, deals)
		ce := requireKind(t, err, UnknownStatus)
		assert.True(t, strings.HasPrefix(ce.Field, "deal.first"), ce.Field)
	}
}

func TestCompileSourceWithoutDeals(t *testing.T) {
	_, err := CompileSource(context.Background(), "empty.cue", []byte(`pricing: {}`), 1)
	requireKind(t, err, InvalidSource)
}

func TestParseSource(t *testing.T) {
	_, err := ParseSource("deal.toml", []byte(`x = 1`))
	ce := requireKind(t, err, InvalidSource)
	assert.Contains(t, ce.Message, "unsupported file type")

	_, err = ParseSource("broken.cue", []byte(`deal: {`))
	requireKind(t, err, InvalidSource)

	_, err = ParseSource("broken.json", []byte(`{"deal": `))
	requireKind(t, err, InvalidSource)

	_, err = ParseSource("conflict.cue", []byte("a: 1\na: 2\n"))
	ce = requireKind(t, err, InvalidSource)
	assert.True(t, ce.Pos.IsValid())
}

func TestLabels(t *testing.T) {
	v, err := ParseSource("demo.cue", readTestdata(t, "demo.cue"))
	require.NoError(t, err)

	labels, err := Labels(v, "assumption")
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "stress"}, labels)

	labels, err = Labels(v, "nothing")
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestCompileScenario(t *testing.T) {
	v, err := ParseSource("demo.cue", readTestdata(t, "demo.cue"))
	require.NoError(t, err)

	sc, err := CompileScenario(v, "")
	require.NoError(t, err)
	require.Len(t, sc.Assumptions, 2)
	require.NotNil(t, sc.Pricing)

	assert.Equal(t,
		`{"contents":[{"contents":0.02,"tag":"PrepaymentCPR"},{"contents":0.01,"tag":"DefaultCDR"},{"contents":[0.7,18],"tag":"Recovery"}],"tag":"PoolLevel"}`,
		canon(t, sc.Assumptions[0].Encode()))
	assert.Equal(t,
		`{"contents":[[[[0],[{"contents":0.05,"tag":"DefaultCDR"}]]],[]],"tag":"ByIndex"}`,
		canon(t, sc.Assumptions[1].Encode()))
	assert.Equal(t,
		`{"contents":["2022-06-30",{"contents":[["2022-01-01",0.03]],"tag":"PricingCurve"}],"tag":"DiscountCurve"}`,
		canon(t, sc.Pricing.Encode()))

	_, err = CompileScenario(v, "missing")
	assert.True(t, errors.Is(err, ErrInvalidSource))
}
