package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/deal"
)

// arity is the accepted argument counts of an action: required, plus one
// optional trailing argument when optional is set.
type arity struct {
	required int
	optional bool
}

var actionArity = map[string]arity{
	"transfer":        {2, false},
	"transferBy":      {3, false},
	"calcFee":         {-1, false},
	"calcInt":         {-1, false},
	"payFee":          {2, false},
	"payFeeBy":        {3, false},
	"payFeeResidual":  {2, true},
	"payInt":          {2, false},
	"payPrin":         {2, true},
	"payPrinResidual": {2, false},
	"payTillYield":    {2, false},
	"payResidual":     {2, true},
	"transferReserve": {3, false},
	"liquidatePool":   {2, false},
	"liqSupport":      {2, true},
	"liqRepay":        {2, false},
	"liqYield":        {2, false},
	"swapSettle":      {2, false},
}

func (a arity) accepts(n int) bool {
	if a.required < 0 {
		return n >= 1
	}
	return n == a.required || (a.optional && n == a.required+1)
}

func (a arity) String() string {
	switch {
	case a.required < 0:
		return "one or more"
	case a.optional:
		return fmt.Sprintf("%d or %d", a.required, a.required+1)
	}
	return fmt.Sprint(a.required)
}

// parseAction translates one [op, args...] action. Overloads are chosen by
// argument count alone.
func parseAction(v cue.Value, field string) (deal.Action, error) {
	op, args, ok := head(v)
	if !ok {
		return nil, fail(UnknownOperator, field, v, "expected [op, args...]")
	}
	ar, known := actionArity[op]
	if !known {
		return nil, fail(UnknownOperator, field, v, "unknown action %q", op)
	}
	if !ar.accepts(len(args)) {
		return nil, fail(UnknownOperator, field, v, "action %q takes %s argument(s), got %d", op, ar, len(args))
	}

	str := func(i int) (string, error) { return stringOf(args[i], field) }
	list := func(i int) ([]string, error) { return names(args[i], field) }
	optional := len(args) > ar.required && ar.required >= 0

	switch op {
	case "transfer":
		from, to, err := pair(str)
		if err != nil {
			return nil, err
		}
		return deal.Transfer{From: from, To: to}, nil

	case "transferBy":
		limit, err := parseLimit(args[0], field)
		if err != nil {
			return nil, err
		}
		from, err := str(1)
		if err != nil {
			return nil, err
		}
		to, err := str(2)
		if err != nil {
			return nil, err
		}
		return deal.TransferBy{Limit: limit, From: from, To: to}, nil

	case "calcFee", "calcInt":
		ns, err := namesOf(args, field)
		if err != nil {
			return nil, err
		}
		if op == "calcFee" {
			return deal.CalcFee{Fees: ns}, nil
		}
		return deal.CalcBondInt{Bonds: ns}, nil

	case "payFee", "payInt", "payPrinResidual", "payTillYield", "payPrin":
		from, err := str(0)
		if err != nil {
			return nil, err
		}
		targets, err := list(1)
		if err != nil {
			return nil, err
		}
		switch op {
		case "payFee":
			return deal.PayFee{From: from, Fees: targets}, nil
		case "payInt":
			return deal.PayInt{From: from, Bonds: targets}, nil
		case "payPrinResidual":
			return deal.PayPrinResidual{From: from, Bonds: targets}, nil
		case "payTillYield":
			return deal.PayTillYield{From: from, Bonds: targets}, nil
		}
		a := deal.PayPrin{From: from, Bonds: targets}
		if optional {
			f, err := formulaLimit(args[2], field)
			if err != nil {
				return nil, err
			}
			a.Limit = deal.ByFormula{Formula: f}
		}
		return a, nil

	case "payFeeBy":
		from, err := str(0)
		if err != nil {
			return nil, err
		}
		fees, err := list(1)
		if err != nil {
			return nil, err
		}
		limit, err := parseLimit(args[2], field)
		if err != nil {
			return nil, err
		}
		return deal.PayFeeBy{Limit: limit, From: from, Fees: fees}, nil

	case "payFeeResidual":
		from, fee, err := pair(str)
		if err != nil {
			return nil, err
		}
		a := deal.PayFeeResidual{From: from, Fee: fee}
		if optional {
			if a.Limit, err = parseLimit(args[2], field); err != nil {
				return nil, err
			}
		}
		return a, nil

	case "payResidual":
		from, bond, err := pair(str)
		if err != nil {
			return nil, err
		}
		a := deal.PayResidual{From: from, Bond: bond}
		if optional {
			amt, err := decimalOf(args[2], field)
			if err != nil {
				return nil, err
			}
			a.Limit = &amt
		}
		return a, nil

	case "transferReserve":
		from, to, err := pair(str)
		if err != nil {
			return nil, err
		}
		side, err := str(2)
		if err != nil {
			return nil, err
		}
		switch side {
		case "source":
			return deal.TransferReserve{Side: deal.SourceReserve, From: from, To: to}, nil
		case "target":
			return deal.TransferReserve{Side: deal.TargetReserve, From: from, To: to}, nil
		}
		return nil, fail(UnknownOperator, field, args[2], "reserve side must be \"source\" or \"target\"")

	case "liquidatePool":
		m, err := parseLiquidation(args[0], field)
		if err != nil {
			return nil, err
		}
		to, err := str(1)
		if err != nil {
			return nil, err
		}
		return deal.LiquidatePool{Method: m, To: to}, nil

	case "liqSupport":
		provider, to, err := pair(str)
		if err != nil {
			return nil, err
		}
		a := deal.LiqSupport{Provider: provider, To: to}
		if optional {
			if a.Limit, err = parseFormula(args[2], field); err != nil {
				return nil, err
			}
		}
		return a, nil

	case "liqRepay", "liqYield":
		from, provider, err := pair(str)
		if err != nil {
			return nil, err
		}
		if op == "liqRepay" {
			return deal.LiqRepay{From: from, Provider: provider}, nil
		}
		return deal.LiqYield{From: from, Provider: provider}, nil

	case "swapSettle":
		acc, swap, err := pair(str)
		if err != nil {
			return nil, err
		}
		return deal.SwapSettle{Account: acc, Swap: swap}, nil
	}
	return nil, fail(UnknownOperator, field, v, "unknown action %q", op)
}

func pair(str func(int) (string, error)) (string, string, error) {
	a, err := str(0)
	if err != nil {
		return "", "", err
	}
	b, err := str(1)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// parseLimit reads {pct}, {cap} or {formula}.
func parseLimit(v cue.Value, field string) (deal.Limit, error) {
	key, val, ok := singleKey(v)
	if !ok {
		return nil, fail(UnknownOperator, field, v, "expected a limit {pct}, {cap} or {formula}")
	}
	switch key {
	case "pct":
		p, err := decimalOf(val, field)
		if err != nil {
			return nil, err
		}
		return deal.DuePct{Pct: p}, nil
	case "cap":
		amt, err := decimalOf(val, field)
		if err != nil {
			return nil, err
		}
		return deal.DueCapAmt{Amount: amt}, nil
	case "formula":
		f, err := parseFormula(val, field)
		if err != nil {
			return nil, err
		}
		return deal.ByFormula{Formula: f}, nil
	}
	return nil, fail(UnknownOperator, field, v, "unknown limit %q", key)
}

// formulaLimit reads the {formula} principal limit.
func formulaLimit(v cue.Value, field string) (deal.Formula, error) {
	key, val, ok := singleKey(v)
	if !ok || key != "formula" {
		return nil, fail(UnknownOperator, field, v, "principal limit must be {formula}")
	}
	return parseFormula(val, field)
}

var liquidationMethods = map[string]struct {
	kind   string
	params int
}{
	"balanceFactor":  {"BalanceFactor", 2},
	"balanceFactor2": {"BalanceFactor2", 3},
	"pv":             {"PV", 2},
}

func parseLiquidation(v cue.Value, field string) (deal.LiquidationMethod, error) {
	op, args, ok := head(v)
	if !ok {
		return deal.LiquidationMethod{}, fail(UnknownOperator, field, v, "expected [method, params...]")
	}
	m, known := liquidationMethods[op]
	if !known {
		return deal.LiquidationMethod{}, fail(UnknownOperator, field, v, "unknown liquidation method %q", op)
	}
	if len(args) != m.params {
		return deal.LiquidationMethod{}, fail(UnknownOperator, field, v, "%s takes %d parameters", op, m.params)
	}
	params := make([]decimal.Decimal, 0, len(args))
	for _, a := range args {
		p, err := decimalOf(a, field)
		if err != nil {
			return deal.LiquidationMethod{}, err
		}
		params = append(params, p)
	}
	return deal.LiquidationMethod{Kind: m.kind, Params: params}, nil
}

// parseEntry expands one waterfall entry into steps. A bare action is one
// unguarded step. A list whose first element is itself a list is a
// predicate followed by one or more actions, and {when, do} is the same in
// struct form; each action becomes its own step under the shared guard.
func parseEntry(v cue.Value, field string) ([]deal.Step, error) {
	if isStruct(v) {
		if !has(v, "when") || !has(v, "do") {
			return nil, fail(UnknownOperator, field, v, "expected {when, do}")
		}
		actions, err := listOf(lookup(v, "do"), join(field, "do"))
		if err != nil {
			return nil, err
		}
		return guarded(lookup(v, "when"), actions, field, v)
	}

	elems, err := listOf(v, field)
	if err != nil || len(elems) == 0 {
		return nil, fail(UnknownOperator, field, v, "expected a waterfall entry")
	}
	if isList(elems[0]) {
		return guarded(elems[0], elems[1:], field, v)
	}
	a, err := parseAction(v, field)
	if err != nil {
		return nil, err
	}
	return []deal.Step{{Action: a}}, nil
}

func guarded(pred cue.Value, actions []cue.Value, field string, entry cue.Value) ([]deal.Step, error) {
	if len(actions) == 0 {
		return nil, fail(UnknownOperator, field, entry, "guard has no actions")
	}
	g, err := parsePredicate(pred, field)
	if err != nil {
		return nil, err
	}
	steps := make([]deal.Step, 0, len(actions))
	for _, av := range actions {
		a, err := parseAction(av, field)
		if err != nil {
			return nil, err
		}
		steps = append(steps, deal.Step{Guard: g, Action: a})
	}
	return steps, nil
}
