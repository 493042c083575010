package compiler

import (
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

func parseBond(name string, v cue.Value, field string) (deal.Bond, error) {
	b := deal.Bond{Name: name}
	err := closedKeys(v, field, "balance", "rate", "originBalance", "originRate", "originDate", "interest", "type")
	if err != nil {
		return b, err
	}
	if b.Balance, err = requireDecimal(v, "balance", field); err != nil {
		return b, err
	}
	if b.Rate, err = requireDecimal(v, "rate", field); err != nil {
		return b, err
	}
	if b.OriginBalance, err = requireDecimal(v, "originBalance", field); err != nil {
		return b, err
	}
	if b.OriginRate, err = requireDecimal(v, "originRate", field); err != nil {
		return b, err
	}
	if b.OriginDate, err = requireDate(v, "originDate", field); err != nil {
		return b, err
	}
	if b.Interest, err = parseBondRate(lookup(v, "interest"), join(field, "interest")); err != nil {
		return b, err
	}
	if b.Type, err = parseBondType(lookup(v, "type"), join(field, "type")); err != nil {
		return b, err
	}
	return b, nil
}

func parseBondType(v cue.Value, field string) (deal.BondType, error) {
	if isString(v) {
		switch s, _ := v.String(); s {
		case "sequential":
			return deal.Sequential{}, nil
		case "equity":
			return deal.Equity{}, nil
		}
		return nil, fail(UnmatchedEntityVariant, field, v, "unknown bond type")
	}
	key, val, ok := singleKey(v)
	if !ok {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected \"sequential\", \"equity\", {pac} or {lockout}")
	}
	switch key {
	case "pac":
		curve, err := parseCurve(val, join(field, key))
		if err != nil {
			return nil, err
		}
		return deal.PAC{Schedule: curve}, nil
	case "lockout":
		d, err := dateOf(val, join(field, key))
		if err != nil {
			return nil, err
		}
		return deal.Lockout{Until: d}, nil
	}
	return nil, fail(UnmatchedEntityVariant, field, v, "unknown bond type %q", key)
}

// parseBondRate reads exactly one of {fixed}, {floating} or {yield}.
// dayCount is only accepted next to fixed or floating.
func parseBondRate(v cue.Value, field string) (deal.BondRate, error) {
	const want = "expected exactly one of {fixed}, {floating} or {yield}"
	if !isStruct(v) {
		return nil, fail(UnmatchedEntityVariant, field, v, want)
	}
	kinds := presentKeys(v, "fixed", "floating", "yield")
	if len(kinds) != 1 {
		return nil, fail(UnmatchedEntityVariant, field, v, want)
	}
	if kinds[0] == "yield" {
		if err := closedKeys(v, field, "yield"); err != nil {
			return nil, err
		}
	} else if err := closedKeys(v, field, kinds[0], "dayCount"); err != nil {
		return nil, err
	}

	switch kinds[0] {
	case "fixed":
		r, err := requireDecimal(v, "fixed", field)
		if err != nil {
			return nil, err
		}
		dc, err := optDayCount(v, "dayCount", field)
		if err != nil {
			return nil, err
		}
		return deal.FixedRate{Rate: r, DayCount: dc}, nil
	case "floating":
		fl := lookup(v, "floating")
		args, err := listOf(fl, join(field, "floating"))
		if err != nil || len(args) != 3 {
			return nil, fail(UnmatchedEntityVariant, join(field, "floating"), fl, "expected [index, spread, reset]")
		}
		idx, err := parseIndex(args[0], join(field, "floating"))
		if err != nil {
			return nil, err
		}
		spread, err := decimalOf(args[1], join(field, "floating"))
		if err != nil {
			return nil, err
		}
		reset, err := parseRateReset(args[2], join(field, "floating"))
		if err != nil {
			return nil, err
		}
		dc, err := optDayCount(v, "dayCount", field)
		if err != nil {
			return nil, err
		}
		return deal.FloatingRate{Index: idx, Spread: spread, Reset: reset, DayCount: dc}, nil
	default:
		y, err := requireDecimal(v, "yield", field)
		if err != nil {
			return nil, err
		}
		return deal.YieldRate{Yield: y}, nil
	}
}
