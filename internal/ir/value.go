package ir

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// IRValue is a sealed interface over the value shapes the engine accepts.
// Only IRNull, IRString, IRInt, IRNumber, IRBool, IRArray, IRObject and
// IRTagged implement it. There is no float variant: every fractional
// quantity is an exact decimal.
type IRValue interface {
	irValue()
}

// IRNull is an explicit JSON null. The engine uses it for absent
// optional fields (bndDueIntDate, feeLastPaidDay, unlimited caps).
type IRNull struct{}

func (IRNull) irValue() {}

// IRString is a string leaf. Dates are carried as YYYY-MM-DD strings.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer leaf (terms, days, months, counts).
type IRInt int64

func (IRInt) irValue() {}

// IRNumber is an exact decimal leaf (balances, rates, spreads).
type IRNumber struct {
	D decimal.Decimal
}

func (IRNumber) irValue() {}

// IRBool is a boolean leaf.
type IRBool bool

func (IRBool) irValue() {}

// IRArray is an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject is a record with string keys.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// Num wraps a decimal.
func Num(d decimal.Decimal) IRNumber {
	return IRNumber{D: d}
}

// NumInt builds an IRNumber from an integer.
func NumInt(n int64) IRNumber {
	return IRNumber{D: decimal.NewFromInt(n)}
}

// MustNum parses a decimal literal. Use only with constant input.
func MustNum(s string) IRNumber {
	return IRNumber{D: decimal.RequireFromString(s)}
}

// Str wraps a string.
func Str(s string) IRString {
	return IRString(s)
}

// Arr builds an IRArray from values.
func Arr(vals ...IRValue) IRArray {
	if vals == nil {
		return IRArray{}
	}
	return IRArray(vals)
}

// Strings builds an IRArray of string leaves.
func Strings(ss []string) IRArray {
	arr := make(IRArray, len(ss))
	for i, s := range ss {
		arr[i] = IRString(s)
	}
	return arr
}

// IRPair is a key-value pair for IRObject construction.
type IRPair struct {
	Key   string
	Value IRValue
}

// O is shorthand for IRPair.
// Example: Obj(O("bndName", Str("A1")), O("bndBalance", MustNum("1000")))
func O(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// Obj builds an IRObject from pairs.
func Obj(pairs ...IRPair) IRObject {
	obj := make(IRObject, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's native string order is UTF-8 byte order, which differs for
// characters outside the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// MarshalJSON implementations route through the canonical encoder so that
// IR embedded in other documents (CLI envelopes, archive rows) stays
// byte-stable.

func (v IRNull) MarshalJSON() ([]byte, error)   { return marshalCanonical(v) }
func (v IRNumber) MarshalJSON() ([]byte, error) { return marshalCanonical(v) }
func (v IRArray) MarshalJSON() ([]byte, error)  { return marshalCanonical(v) }
func (v IRObject) MarshalJSON() ([]byte, error) { return marshalCanonical(v) }
func (v IRTagged) MarshalJSON() ([]byte, error) { return marshalCanonical(v) }

// UnmarshalIRValue parses JSON into an IRValue.
//
// Integers become IRInt, any number with a fraction or exponent becomes
// IRNumber, and objects whose only keys are "tag" (a string) and optionally
// "contents" become IRTagged. Everything else maps one-to-one.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return convertToIRValue(raw)
}

func convertToIRValue(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case json.Number:
		s := string(val)
		if !strings.ContainsAny(s, ".eE") {
			if n, err := val.Int64(); err == nil {
				return IRInt(n), nil
			}
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", s, err)
		}
		return IRNumber{D: d}, nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		if t, ok := asTagged(val); ok {
			return t, nil
		}
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func asTagged(m map[string]any) (IRTagged, bool) {
	name, ok := m["tag"].(string)
	if !ok {
		return IRTagged{}, false
	}
	switch len(m) {
	case 1:
		return IRTagged{Tag: name}, true
	case 2:
		raw, ok := m["contents"]
		if !ok {
			return IRTagged{}, false
		}
		contents, err := convertToIRValue(raw)
		if err != nil {
			return IRTagged{}, false
		}
		return IRTagged{Tag: name, Contents: contents}, true
	}
	return IRTagged{}, false
}
