package compiler

import (
	"cuelang.org/go/cue"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/deal"
)

func parseAccount(name string, v cue.Value, field string) (deal.Account, error) {
	a := deal.Account{Name: name}
	var err error
	if a.Balance, err = optDecimal(v, "balance", field, decimal.Zero); err != nil {
		return a, err
	}
	if has(v, "reserve") {
		if a.Reserve, err = parseReserve(lookup(v, "reserve"), join(field, "reserve")); err != nil {
			return a, err
		}
	}
	if has(v, "interest") {
		in, err := parseAccountInterest(lookup(v, "interest"), join(field, "interest"))
		if err != nil {
			return a, err
		}
		a.Interest = &in
	}
	if has(v, "history") {
		if a.History, err = parseHistory(lookup(v, "history"), join(field, "history")); err != nil {
			return a, err
		}
	}
	return a, nil
}

func parseReserve(v cue.Value, field string) (deal.ReservePolicy, error) {
	key, val, ok := singleKey(v)
	if !ok {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected one of fixReserve, targetReserve, higherOf, lowerOf, either")
	}
	field = join(field, key)
	switch key {
	case "fixReserve":
		amt, err := decimalOf(val, field)
		if err != nil {
			return nil, err
		}
		return deal.FixReserve{Amount: amt}, nil
	case "targetReserve":
		return parseTargetReserve(val, field)
	case "higherOf", "lowerOf":
		pair, err := listOf(val, field)
		if err != nil || len(pair) != 2 {
			return nil, fail(UnmatchedEntityVariant, field, val, "expected exactly two policies")
		}
		a, err := parseReserve(pair[0], field)
		if err != nil {
			return nil, err
		}
		b, err := parseReserve(pair[1], field)
		if err != nil {
			return nil, err
		}
		op := deal.Max
		if key == "lowerOf" {
			op = deal.Min
		}
		return deal.Bound{Op: op, A: a, B: b}, nil
	case "either":
		args, err := listOf(val, field)
		if err != nil || len(args) != 3 {
			return nil, fail(UnmatchedEntityVariant, field, val, "expected [predicate, policy, policy]")
		}
		pred, err := parsePredicate(args[0], field)
		if err != nil {
			return nil, err
		}
		a, err := parseReserve(args[1], field)
		if err != nil {
			return nil, err
		}
		b, err := parseReserve(args[2], field)
		if err != nil {
			return nil, err
		}
		return deal.Either{When: pred, Then: a, Else: b}, nil
	}
	return nil, fail(UnmatchedEntityVariant, field, v, "unknown reserve policy %q", key)
}

// parseTargetReserve reads [base, rate], [["sum", base...], rate] or
// {formula, factor?}.
func parseTargetReserve(v cue.Value, field string) (deal.ReservePolicy, error) {
	if isStruct(v) {
		f, err := parseFormula(lookup(v, "formula"), join(field, "formula"))
		if err != nil {
			return nil, err
		}
		r, err := optDecimal(v, "factor", field, decimal.NewFromInt(1))
		if err != nil {
			return nil, err
		}
		return deal.PctReserve{Base: f, Rate: r}, nil
	}
	args, err := listOf(v, field)
	if err != nil || len(args) != 2 {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected [base, rate] or {formula, factor?}")
	}
	r, err := decimalOf(args[1], field)
	if err != nil {
		return nil, err
	}
	if op, parts, ok := head(args[0]); ok && op == "sum" {
		terms := make([]deal.Formula, 0, len(parts))
		for _, p := range parts {
			k, err := parseBasePhrase(p, field)
			if err != nil {
				return nil, err
			}
			terms = append(terms, deal.Stat{Kind: k})
		}
		if len(terms) == 0 {
			return nil, fail(UnmatchedEntityVariant, field, args[0], "sum needs at least one base")
		}
		return deal.PctReserve{Base: deal.Combine{Op: deal.Sum, Terms: terms}, Rate: r}, nil
	}
	k, err := parseBasePhrase(args[0], field)
	if err != nil {
		return nil, err
	}
	return deal.PctReserve{Base: deal.Stat{Kind: k}, Rate: r}, nil
}

func parseAccountInterest(v cue.Value, field string) (deal.AccountInterest, error) {
	var in deal.AccountInterest
	var err error
	if in.Period, err = parseDatePattern(lookup(v, "period"), join(field, "period")); err != nil {
		return in, err
	}
	if in.Rate, err = requireDecimal(v, "rate", field); err != nil {
		return in, err
	}
	if in.LastSettled, err = requireDate(v, "lastSettled", field); err != nil {
		return in, err
	}
	return in, nil
}

func parseHistory(v cue.Value, field string) ([]deal.AccountTxn, error) {
	rows, err := listOf(v, field)
	if err != nil {
		return nil, err
	}
	txns := make([]deal.AccountTxn, 0, len(rows))
	for _, row := range rows {
		cols, err := listOf(row, field)
		if err != nil || len(cols) != 4 {
			return nil, fail(InvalidSource, field, row, "expected [date, balance, amount, memo]")
		}
		var t deal.AccountTxn
		if t.Date, err = dateOf(cols[0], field); err != nil {
			return nil, err
		}
		if t.Balance, err = decimalOf(cols[1], field); err != nil {
			return nil, err
		}
		if t.Amount, err = decimalOf(cols[2], field); err != nil {
			return nil, err
		}
		if t.Memo, err = stringOf(cols[3], field); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}
