package compiler

import (
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

// parseFee reads a fee. A missing start is left nil and resolved to the
// deal's accrual start by the deal compiler.
func parseFee(name string, v cue.Value, field string) (deal.Fee, error) {
	f := deal.Fee{Name: name}
	err := closedKeys(v, field, "type", "start", "dueDate")
	if err != nil {
		return f, err
	}
	if f.Type, err = parseFeeType(lookup(v, "type"), join(field, "type")); err != nil {
		return f, err
	}
	if f.Start, err = optDate(v, "start", field); err != nil {
		return f, err
	}
	if f.DueDate, err = optDate(v, "dueDate", field); err != nil {
		return f, err
	}
	return f, nil
}

func parseFeeType(v cue.Value, field string) (deal.FeeType, error) {
	key, val, ok := singleKey(v)
	if !ok {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected {fixed}, {recurring}, {annualRate} or {pctRate}")
	}
	field = join(field, key)
	switch key {
	case "fixed":
		amt, err := decimalOf(val, field)
		if err != nil {
			return nil, err
		}
		return deal.FixFee{Amount: amt}, nil
	case "recurring":
		args, err := listOf(val, field)
		if err != nil || len(args) != 2 {
			return nil, fail(UnmatchedEntityVariant, field, val, "expected [pattern, amount]")
		}
		dp, err := parseDatePattern(args[0], field)
		if err != nil {
			return nil, err
		}
		amt, err := decimalOf(args[1], field)
		if err != nil {
			return nil, err
		}
		return deal.RecurFee{Pattern: dp, Amount: amt}, nil
	case "annualRate":
		args, err := listOf(val, field)
		if err != nil || len(args) != 2 {
			return nil, fail(UnmatchedEntityVariant, field, val, "expected [base, rate]")
		}
		kind, err := parseBasePhrase(args[0], field)
		if err != nil {
			return nil, err
		}
		r, err := decimalOf(args[1], field)
		if err != nil {
			return nil, err
		}
		return deal.AnnualRateFee{Base: deal.DatedStat{Kind: kind, Date: epoch}, Rate: r}, nil
	case "pctRate":
		return parsePctFee(val, field)
	}
	return nil, fail(UnmatchedEntityVariant, field, v, "unknown fee type %q", key)
}

// parsePctFee reads [phrase..., rate]. The phrase set is closed.
func parsePctFee(v cue.Value, field string) (deal.FeeType, error) {
	args, err := listOf(v, field)
	if err != nil || len(args) < 2 {
		return nil, fail(UnmatchedEntityVariant, field, v, "expected [phrase..., rate]")
	}
	phrase, last := args[:len(args)-1], args[len(args)-1]
	words, err := namesOf(phrase, field)
	if err != nil {
		return nil, fail(UnmatchedEntityVariant, field, v, "percentage fee phrase must be words")
	}
	r, err := decimalOf(last, field)
	if err != nil {
		return nil, err
	}

	var base deal.Formula
	switch {
	case len(words) == 2 && words[0] == "poolCollection" && words[1] == "interest":
		base = deal.PoolCollection{Source: deal.CollectedInterest}
	case len(words) >= 2 && words[0] == "bondInterestPaid":
		base = deal.NamedStat{Kind: deal.LastBondIntPaid, Names: words[1:]}
	case len(words) >= 2 && words[0] == "bondPrincipalPaid":
		base = deal.NamedStat{Kind: deal.LastBondPrinPaid, Names: words[1:]}
	default:
		return nil, fail(UnmatchedEntityVariant, field, v, "unknown percentage fee base %v", words)
	}
	return deal.PctFee{Base: base, Rate: r}, nil
}
