package ir

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("")
	var _ IRValue = IRInt(0)
	var _ IRValue = IRNumber{}
	var _ IRValue = IRBool(false)
	var _ IRValue = IRArray{}
	var _ IRValue = IRObject{}
	var _ IRValue = IRTagged{}
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"a", "ab", -1},
		{"", "a", -1},
		{"\U00010000", "\uE000", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, compareKeysRFC8785(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{"feeName": Str("x"), "feeDue": IRInt(0), "feeArrears": IRInt(0)}
	assert.Equal(t, []string{"feeArrears", "feeDue", "feeName"}, obj.SortedKeys())
}

func TestHelperConstructors(t *testing.T) {
	assert.Equal(t, IRString("A1"), Str("A1"))
	assert.True(t, NumInt(7).D.Equal(decimal.NewFromInt(7)))
	assert.True(t, MustNum("0.5").D.Equal(decimal.RequireFromString("0.50")))
	assert.Equal(t, IRArray{}, Arr())
	assert.Equal(t, IRArray{Str("a"), Str("b")}, Strings([]string{"a", "b"}))
	assert.Equal(t, IRObject{"k": IRInt(1)}, Obj(O("k", IRInt(1))))
}

func TestUnmarshalIRValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  IRValue
	}{
		{"string", `"x"`, IRString("x")},
		{"int", `42`, IRInt(42)},
		{"bool", `true`, IRBool(true)},
		{"null", `null`, IRNull{}},
		{"tag only", `{"tag":"Sequential"}`, Tag("Sequential")},
		{"tagged", `{"tag":"Fix","contents":3}`, Tag("Fix", IRInt(3))},
		{"tagged with null", `{"tag":"Defaulted","contents":null}`, Tag("Defaulted", IRNull{})},
		{"object with tag field is not tagged", `{"tag":"x","other":1}`, IRObject{"tag": IRString("x"), "other": IRInt(1)}},
		{"non-string tag", `{"tag":1}`, IRObject{"tag": IRInt(1)}},
		{"array", `[1,"a"]`, IRArray{IRInt(1), IRString("a")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalIRValueDecimals(t *testing.T) {
	got, err := UnmarshalIRValue([]byte(`0.0825`))
	require.NoError(t, err)

	n, ok := got.(IRNumber)
	require.True(t, ok, "fractional numbers must decode as IRNumber, got %T", got)
	assert.Equal(t, "0.0825", n.D.String())

	got, err = UnmarshalIRValue([]byte(`1e2`))
	require.NoError(t, err)
	n, ok = got.(IRNumber)
	require.True(t, ok)
	assert.Equal(t, "100", n.D.String())

	got, err = UnmarshalIRValue([]byte(`[0.1000000000000000055511, 92233720368547758070]`))
	require.NoError(t, err)
	arr, ok := got.(IRArray)
	require.True(t, ok)
	require.Len(t, arr, 2)
	assert.Equal(t, "0.1000000000000000055511", arr[0].(IRNumber).D.String(), "no float round trip")
	assert.Equal(t, "92233720368547758070", arr[1].(IRNumber).D.String(), "integers past int64 stay exact")
}

func TestUnmarshalIRValueErrors(t *testing.T) {
	for _, input := range []string{``, `{`, `[1,`, `1 2`} {
		_, err := UnmarshalIRValue([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestMarshalJSONUsesCanonicalForm(t *testing.T) {
	doc := struct {
		Deal IRTagged `json:"deal"`
	}{Deal: Tag("MDeal", IRObject{"name": Str("d"), "bonds": IRObject{}})}

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"deal":{"contents":{"bonds":{},"name":"d"},"tag":"MDeal"}}`, string(out))
}
