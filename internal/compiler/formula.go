package compiler

import (
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

// Formula operators that take no operands.
var plainStats = map[string]deal.StatKind{
	"poolBalance":         deal.CurrentPoolBalance,
	"poolBegBalance":      deal.CurrentPoolBegBalance,
	"originalBondBalance": deal.OriginalBondBalance,
	"originalPoolBalance": deal.OriginalPoolBalance,
	"bondFactor":          deal.BondFactor,
	"poolFactor":          deal.PoolFactor,
	"allAccountBalance":   deal.AllAccBalance,
}

// Formula operators over a list of entity names.
var namedStats = map[string]deal.StatKind{
	"accountBalance":   deal.AccBalance,
	"bondDueInterest":  deal.CurrentDueBondInt,
	"feeDue":           deal.CurrentDueFee,
	"bondInterestPaid": deal.LastBondIntPaid,
	"feePaid":          deal.LastFeePaid,
	"reserveGap":       deal.ReserveAccGap,
}

var combinators = map[string]deal.CombineOp{
	"sum":  deal.Sum,
	"diff": deal.Substract,
	"min":  deal.Min,
	"max":  deal.Max,
}

// parseFormula translates [op, operands...] or a bare no-operand token.
func parseFormula(v cue.Value, field string) (deal.Formula, error) {
	if isString(v) {
		s, _ := v.String()
		if s == "bondBalance" {
			return deal.Stat{Kind: deal.CurrentBondBalance}, nil
		}
		if k, ok := plainStats[s]; ok {
			return deal.Stat{Kind: k}, nil
		}
		return nil, fail(UnknownOperator, field, v, "unknown formula %q", s)
	}

	op, args, ok := head(v)
	if !ok {
		return nil, fail(UnknownOperator, field, v, "expected a formula token or [op, operands...]")
	}

	if k, ok := plainStats[op]; ok {
		if len(args) != 0 {
			return nil, fail(UnknownOperator, field, v, "formula %q takes no operands", op)
		}
		return deal.Stat{Kind: k}, nil
	}
	if k, ok := namedStats[op]; ok {
		if len(args) == 0 {
			return nil, fail(UnknownOperator, field, v, "formula %q needs at least one name", op)
		}
		ns, err := namesOf(args, field)
		if err != nil {
			return nil, err
		}
		return deal.NamedStat{Kind: k, Names: ns}, nil
	}
	if c, ok := combinators[op]; ok {
		if (c == deal.Min || c == deal.Max) && len(args) != 2 {
			return nil, fail(UnknownOperator, field, v, "%q takes exactly two formulas, got %d", op, len(args))
		}
		if len(args) == 0 {
			return nil, fail(UnknownOperator, field, v, "%q needs at least one formula", op)
		}
		terms := make([]deal.Formula, 0, len(args))
		for _, a := range args {
			t, err := parseFormula(a, field)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		return deal.Combine{Op: c, Terms: terms}, nil
	}

	switch op {
	case "bondBalance":
		if len(args) == 0 {
			return deal.Stat{Kind: deal.CurrentBondBalance}, nil
		}
		ns, err := namesOf(args, field)
		if err != nil {
			return nil, err
		}
		return deal.NamedStat{Kind: deal.CurrentBondBalanceOf, Names: ns}, nil
	case "factor":
		if len(args) != 2 {
			return nil, fail(UnknownOperator, field, v, "factor takes [formula, number]")
		}
		of, err := parseFormula(args[0], field)
		if err != nil {
			return nil, err
		}
		by, err := decimalOf(args[1], field)
		if err != nil {
			return nil, err
		}
		return deal.Factor{Of: of, By: by}, nil
	case "constant":
		if len(args) != 1 {
			return nil, fail(UnknownOperator, field, v, "constant takes one number")
		}
		n, err := decimalOf(args[0], field)
		if err != nil {
			return nil, err
		}
		return deal.Constant{Value: n}, nil
	case "custom":
		if len(args) != 1 {
			return nil, fail(UnknownOperator, field, v, "custom takes one name")
		}
		name, err := stringOf(args[0], field)
		if err != nil {
			return nil, err
		}
		return deal.CustomRef{Name: name}, nil
	}
	return nil, fail(UnknownOperator, field, v, "unknown formula operator %q", op)
}

// Base phrases shared by fee rates and reserve targets.
var basePhrases = map[string]deal.StatKind{
	"poolBalance":            deal.CurrentPoolBalance,
	"poolEndBalance":         deal.CurrentPoolBalance,
	"poolBegBalance":         deal.CurrentPoolBegBalance,
	"poolOriginalBalance":    deal.OriginalPoolBalance,
	"poolCollectionInterest": deal.PoolCollectionInt,
	"bondBalance":            deal.CurrentBondBalance,
	"bondOriginalBalance":    deal.OriginalBondBalance,
	"bondInterestPaid":       deal.LastBondIntPaid,
	"feePaid":                deal.LastFeePaid,
	"bondDueInterest":        deal.CurrentDueBondInt,
	"feeDue":                 deal.CurrentDueFee,
}

// epoch is the date argument of a dated fee base. The engine reads it as
// "the current period".
const epoch = "1970-01-01"

func parseBasePhrase(v cue.Value, field string) (deal.StatKind, error) {
	s, err := stringOf(v, field)
	if err != nil {
		return "", err
	}
	k, ok := basePhrases[s]
	if !ok {
		return "", fail(UnmatchedEntityVariant, field, v, "unknown base %q", s)
	}
	return k, nil
}
