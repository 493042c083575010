package compiler

import (
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

// parseCustom reads {constant}, {curve} or {formula}.
func parseCustom(v cue.Value, field string) (deal.Custom, error) {
	key, val, ok := singleKey(v)
	if !ok {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected {constant}, {curve} or {formula}")
	}
	switch key {
	case "constant":
		n, err := decimalOf(val, join(field, key))
		if err != nil {
			return nil, err
		}
		return deal.CustomConstant{Value: n}, nil
	case "curve":
		c, err := parseCurve(val, join(field, key))
		if err != nil {
			return nil, err
		}
		return deal.CustomCurve{Curve: c}, nil
	case "formula":
		f, err := parseFormula(val, join(field, key))
		if err != nil {
			return nil, err
		}
		return deal.CustomFormula{Formula: f}, nil
	}
	return nil, fail(UnmatchedEntityVariant, field, v, "unknown custom kind %q", key)
}
