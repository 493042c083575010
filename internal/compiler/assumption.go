package compiler

import (
	"cuelang.org/go/cue"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/deal"
)

// CompileAssumption translates {pool: [items]} or
// {byIndex: [{assets, apply}...], pool?: [items]}.
func CompileAssumption(label string, v cue.Value) (*deal.AssumptionSet, error) {
	field := join("assumption", label)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(field, err)
	}
	set := &deal.AssumptionSet{Name: label}
	if !has(v, "pool") && !has(v, "byIndex") {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected {pool} or {byIndex}")
	}
	if has(v, "pool") {
		items, err := parseAssumptionItems(lookup(v, "pool"), join(field, "pool"))
		if err != nil {
			return nil, err
		}
		set.PoolWide = items
	}
	if has(v, "byIndex") {
		groups, err := listOf(lookup(v, "byIndex"), join(field, "byIndex"))
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			gf := join(field, "byIndex")
			idv, err := listOf(lookup(g, "assets"), join(gf, "assets"))
			if err != nil {
				return nil, err
			}
			ids := make([]int, 0, len(idv))
			for _, id := range idv {
				n, err := intOf(id, join(gf, "assets"))
				if err != nil {
					return nil, err
				}
				ids = append(ids, n)
			}
			items, err := parseAssumptionItems(lookup(g, "apply"), join(gf, "apply"))
			if err != nil {
				return nil, err
			}
			set.ByIndex = append(set.ByIndex, deal.AssetGroup{Assets: ids, Items: items})
		}
	}
	return set, nil
}

func parseAssumptionItems(v cue.Value, field string) ([]deal.Assumption, error) {
	elems, err := listOf(v, field)
	if err != nil {
		return nil, err
	}
	items := make([]deal.Assumption, 0, len(elems))
	for _, e := range elems {
		a, err := parseAssumptionItem(e, field)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func parseAssumptionItem(v cue.Value, field string) (deal.Assumption, error) {
	key, val, ok := singleKey(v)
	if !ok {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected a single-key assumption item")
	}
	field = join(field, key)
	switch key {
	case "cpr", "cdr":
		if isList(val) {
			rates, err := decimals(val, field)
			if err != nil {
				return nil, err
			}
			if key == "cpr" {
				return deal.PrepaymentCPRCurve{Rates: rates}, nil
			}
			return deal.DefaultCDRCurve{Rates: rates}, nil
		}
		r, err := decimalOf(val, field)
		if err != nil {
			return nil, err
		}
		if key == "cpr" {
			return deal.PrepaymentCPR{Rate: r}, nil
		}
		return deal.DefaultCDR{Rate: r}, nil
	case "cprAdjust", "cdrAdjust":
		elems, err := listOf(val, field)
		if err != nil || len(elems) < 2 {
			return nil, fail(UnmatchedEntityVariant, field, val, "expected [[date, factor]..., endDate]")
		}
		factors := make(deal.Curve, 0, len(elems)-1)
		for _, e := range elems[:len(elems)-1] {
			pt, err := parsePoint(e, field)
			if err != nil {
				return nil, err
			}
			factors = append(factors, pt)
		}
		end, err := dateOf(elems[len(elems)-1], field)
		if err != nil {
			return nil, err
		}
		kind := "PrepaymentFactors"
		if key == "cdrAdjust" {
			kind = "DefaultFactors"
		}
		return deal.FactorAdjust{Kind: kind, Factors: factors, End: end}, nil
	case "recovery":
		elems, err := listOf(val, field)
		if err != nil || len(elems) != 2 {
			return nil, fail(UnmatchedEntityVariant, field, val, "expected [rate, lag]")
		}
		r, err := decimalOf(elems[0], field)
		if err != nil {
			return nil, err
		}
		lag, err := intOf(elems[1], field)
		if err != nil {
			return nil, err
		}
		return deal.Recovery{Rate: r, Lag: lag}, nil
	case "rate":
		elems, err := listOf(val, field)
		if err != nil || len(elems) < 2 {
			return nil, fail(UnmatchedEntityVariant, field, val, "expected [index, rate] or [index, [date, rate]...]")
		}
		idx, err := parseIndex(elems[0], field)
		if err != nil {
			return nil, err
		}
		if len(elems) == 2 && isNumber(elems[1]) {
			r, err := decimalOf(elems[1], field)
			if err != nil {
				return nil, err
			}
			return deal.RateConstant{Index: idx, Rate: r}, nil
		}
		curve := make(deal.Curve, 0, len(elems)-1)
		for _, e := range elems[1:] {
			pt, err := parsePoint(e, field)
			if err != nil {
				return nil, err
			}
			curve = append(curve, pt)
		}
		return deal.RateCurve{Index: idx, Curve: curve}, nil
	case "callWhen":
		opts, err := parseCallOptions(val, field)
		if err != nil {
			return nil, err
		}
		return deal.CallWhen{Options: opts}, nil
	case "stopAt":
		d, err := dateOf(val, field)
		if err != nil {
			return nil, err
		}
		return deal.StopRunBy{Date: d}, nil
	}
	return nil, fail(UnmatchedEntityVariant, field, v, "unknown assumption %q", key)
}

var callThresholds = map[string]string{
	"poolBalance": "PoolBalance",
	"bondBalance": "BondBalance",
	"poolFactor":  "PoolFactor",
	"bondFactor":  "BondFactor",
}

func parseCallOptions(v cue.Value, field string) ([]deal.CallOption, error) {
	elems, err := listOf(v, field)
	if err != nil {
		return nil, err
	}
	opts := make([]deal.CallOption, 0, len(elems))
	for _, e := range elems {
		o, err := parseCallOption(e, field)
		if err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, nil
}

// parseCallOption reads {poolBalance: n}, {afterDate: d}, {any: [...]} and
// the like.
func parseCallOption(v cue.Value, field string) (deal.CallOption, error) {
	key, val, ok := singleKey(v)
	if !ok {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected a single-key call option")
	}
	if kind, ok := callThresholds[key]; ok {
		n, err := decimalOf(val, join(field, key))
		if err != nil {
			return nil, err
		}
		return deal.CallThreshold{Kind: kind, Level: n}, nil
	}
	switch key {
	case "afterDate":
		d, err := dateOf(val, join(field, key))
		if err != nil {
			return nil, err
		}
		return deal.CallAfter{Date: d}, nil
	case "any", "all":
		opts, err := parseCallOptions(val, join(field, key))
		if err != nil {
			return nil, err
		}
		if key == "any" {
			return deal.CallAny{Options: opts}, nil
		}
		return deal.CallAll{Options: opts}, nil
	}
	return nil, fail(UnmatchedEntityVariant, field, v, "unknown call option %q", key)
}

func decimals(v cue.Value, field string) ([]decimal.Decimal, error) {
	elems, err := listOf(v, field)
	if err != nil {
		return nil, err
	}
	out := make([]decimal.Decimal, 0, len(elems))
	for _, e := range elems {
		d, err := decimalOf(e, field)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// CompilePricing translates {date, curve: [[date, rate]...]}.
func CompilePricing(label string, v cue.Value) (*deal.Pricing, error) {
	field := join("pricing", label)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(field, err)
	}
	p := &deal.Pricing{Name: label}
	var err error
	if p.Date, err = requireDate(v, "date", field); err != nil {
		return nil, err
	}
	if p.Curve, err = parseCurve(lookup(v, "curve"), join(field, "curve")); err != nil {
		return nil, err
	}
	return p, nil
}
