package compiler

import (
	"cuelang.org/go/cue"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/deal"
)

// parseLiquidity reads a liquidity provider. A missing start is resolved
// to the deal's accrual start by the deal compiler.
func parseLiquidity(name string, v cue.Value, field string) (deal.LiquidityProvider, error) {
	l := deal.LiquidityProvider{Name: name}
	if err := closedKeys(v, field, "type", "limit", "credit", "start"); err != nil {
		return l, err
	}
	t := lookup(v, "type")
	switch {
	case isString(t):
		s, _ := t.String()
		switch s {
		case "unlimited":
			l.Kind = deal.Unlimited{}
		case "fixed":
			l.Kind = deal.FixSupport{}
		default:
			return l, fail(UnmatchedEntityVariant, join(field, "type"), t, "unknown liquidity type %q", s)
		}
	case isStruct(t):
		key, val, ok := singleKey(t)
		if !ok || key != "replenish" {
			return l, fail(UnmatchedEntityVariant, join(field, "type"), t, "expected {replenish: [pattern, amount]}")
		}
		args, err := listOf(val, join(field, "type.replenish"))
		if err != nil || len(args) != 2 {
			return l, fail(UnmatchedEntityVariant, join(field, "type"), t, "expected {replenish: [pattern, amount]}")
		}
		dp, err := parseDatePattern(args[0], join(field, "type.replenish"))
		if err != nil {
			return l, err
		}
		amt, err := decimalOf(args[1], join(field, "type.replenish"))
		if err != nil {
			return l, err
		}
		l.Kind = deal.ReplenishSupport{Pattern: dp, Amount: amt}
	default:
		return l, fail(UnmatchedEntityVariant, join(field, "type"), t, "expected \"unlimited\", \"fixed\" or {replenish}")
	}

	if _, unlimited := l.Kind.(deal.Unlimited); !unlimited {
		limit, err := requireDecimal(v, "limit", field)
		if err != nil {
			return l, err
		}
		l.Limit = &limit
	}

	var err error
	if l.Credit, err = optDecimal(v, "credit", field, decimal.Zero); err != nil {
		return l, err
	}
	if l.Start, err = optDate(v, "start", field); err != nil {
		return l, err
	}
	return l, nil
}
