package compiler

import (
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

var comparisons = map[string]deal.Comparison{
	">":  deal.GT,
	"<":  deal.LT,
	">=": deal.GET,
	"<=": deal.LET,
}

var dateComparisons = map[string]deal.DateCmp{
	">":  deal.After,
	"<":  deal.Before,
	">=": deal.AfterOrOn,
	"<=": deal.BeforeOrOn,
}

var junctions = map[string]deal.Junction{
	"all": deal.And,
	"any": deal.Or,
}

// parsePredicate translates one condition. Shapes are told apart by
// length and by which slot holds an operator, never by guessing.
func parsePredicate(v cue.Value, field string) (deal.Predicate, error) {
	elems, err := listOf(v, field)
	if err != nil {
		return nil, fail(UnknownOperator, field, v, "expected a predicate list")
	}

	if len(elems) == 2 && isString(elems[0]) {
		op, _ := elems[0].String()
		if op == "status" {
			st, err := parseStatus(elems[1], field)
			if err != nil {
				return nil, err
			}
			return deal.StatusIs{Status: st}, nil
		}
		if cmp, ok := dateComparisons[op]; ok {
			d, err := dateOf(elems[1], field)
			if err != nil {
				return nil, err
			}
			return deal.DateTest{Cmp: cmp, Date: d}, nil
		}
	}

	if len(elems) == 3 && isString(elems[0]) {
		op, _ := elems[0].String()
		if j, ok := junctions[op]; ok {
			left, err := parsePredicate(elems[1], field)
			if err != nil {
				return nil, err
			}
			right, err := parsePredicate(elems[2], field)
			if err != nil {
				return nil, err
			}
			return deal.Both{Op: j, Left: left, Right: right}, nil
		}
	}

	if len(elems) == 3 && isString(elems[1]) {
		op, _ := elems[1].String()
		if op == "=" {
			n, err := decimalOf(elems[2], field)
			if err != nil {
				return nil, err
			}
			if !n.IsZero() {
				return nil, fail(UnknownOperator, field, v, "equality is only defined against 0")
			}
			f, err := parseFormula(elems[0], field)
			if err != nil {
				return nil, err
			}
			return deal.IsZero{Formula: f}, nil
		}
		if cmp, ok := comparisons[op]; ok {
			f, err := parseFormula(elems[0], field)
			if err != nil {
				return nil, err
			}
			n, err := decimalOf(elems[2], field)
			if err != nil {
				return nil, err
			}
			return deal.Threshold{Formula: f, Cmp: cmp, Amount: n}, nil
		}
	}

	return nil, fail(UnknownOperator, field, v, "unrecognized predicate")
}
