package compiler

import (
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

func parseRateSwap(name string, v cue.Value, field string) (deal.RateSwap, error) {
	s := deal.RateSwap{Name: name}
	var err error

	n := lookup(v, "notional")
	switch {
	case isNumber(n):
		amt, err := decimalOf(n, join(field, "notional"))
		if err != nil {
			return s, err
		}
		s.Notional = deal.Notional{Amount: &amt}
	case isStruct(n) && has(n, "formula"):
		f, err := parseFormula(lookup(n, "formula"), join(field, "notional.formula"))
		if err != nil {
			return s, err
		}
		s.Notional = deal.Notional{Formula: f}
	default:
		return s, fail(UnmatchedEntityVariant, join(field, "notional"), n, "expected an amount or {formula}")
	}

	if s.Pay, err = parseSwapLeg(lookup(v, "pay"), join(field, "pay")); err != nil {
		return s, err
	}
	if s.Receive, err = parseSwapLeg(lookup(v, "receive"), join(field, "receive")); err != nil {
		return s, err
	}
	if !s.Pay.Floating() && !s.Receive.Floating() {
		return s, fail(UnmatchedEntityVariant, field, v, "fixed against fixed is not a rate swap")
	}
	if s.Settle, err = parseDatePattern(lookup(v, "settle"), join(field, "settle")); err != nil {
		return s, err
	}
	if s.Start, err = requireDate(v, "start", field); err != nil {
		return s, err
	}
	if s.DayCount, err = optDayCount(v, "dayCount", field); err != nil {
		return s, err
	}
	return s, nil
}

// parseSwapLeg reads {fixed: r} or {floating: [index, spread]}.
func parseSwapLeg(v cue.Value, field string) (deal.SwapLeg, error) {
	key, val, ok := singleKey(v)
	switch {
	case ok && key == "fixed":
		r, err := decimalOf(val, join(field, key))
		if err != nil {
			return deal.SwapLeg{}, err
		}
		return deal.SwapLeg{Fixed: &r}, nil
	case ok && key == "floating":
		args, err := listOf(val, join(field, key))
		if err != nil || len(args) != 2 {
			return deal.SwapLeg{}, fail(UnmatchedEntityVariant, join(field, key), val, "expected [index, spread]")
		}
		idx, err := parseIndex(args[0], join(field, key))
		if err != nil {
			return deal.SwapLeg{}, err
		}
		spread, err := decimalOf(args[1], join(field, key))
		if err != nil {
			return deal.SwapLeg{}, err
		}
		return deal.SwapLeg{Index: idx, Spread: spread}, nil
	}
	return deal.SwapLeg{}, fail(UnmatchedEntityVariant, field, v, "expected {fixed} or {floating}")
}

func parseCurrencySwap(name string, v cue.Value, field string) (deal.CurrencySwap, error) {
	c := deal.CurrencySwap{Name: name}
	var err error
	if c.Balance, err = requireDecimal(v, "balance", field); err != nil {
		return c, err
	}
	if c.Rate, err = requireDecimal(v, "rate", field); err != nil {
		return c, err
	}
	if c.Settle, err = parseDatePattern(lookup(v, "settle"), join(field, "settle")); err != nil {
		return c, err
	}
	if c.Start, err = requireDate(v, "start", field); err != nil {
		return c, err
	}
	return c, nil
}
