package compiler

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/absbox/absc/internal/deal"
	"github.com/absbox/absc/internal/ir"
)

// Diagnostic codes. E1xx are compile failures, E2xx and W2xx come from
// the validator.
const (
	ErrCodeUnrecognizedPattern = "E101" // unknown date pattern, frequency or phase
	ErrCodeUnknownOperator     = "E102" // formula, predicate or action shape
	ErrCodeUnknownStatus       = "E103" // deal status outside the table
	ErrCodeUnmatchedVariant    = "E104" // no entity variant matches
	ErrCodeDuplicateName       = "E105" // two entities share a name
	ErrCodeInvalidSource       = "E106" // malformed description or missing field

	ErrCodeReferenceNotFound = "E201" // name used but never declared
	ErrCodeCustomCycle       = "E202" // custom formulas reference each other
	ErrCodeAssetOutOfRange   = "E203" // ByIndex asset id outside the pool

	WarnCodeAssetUnassumed = "W201" // pool asset with no ByIndex assumption
)

// ValidationError is a reference or consistency error in compiled IR.
// Field is a '>'-separated path, e.g. "waterfall>EndOfPoolCollection>2".
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Is lets errors.Is(e, ErrReferenceNotFound) match unresolved names.
func (e ValidationError) Is(target error) bool {
	return e.Code == ErrCodeReferenceNotFound && target == ErrReferenceNotFound
}

// ValidationWarning is advisory; it never fails validation.
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidateDeal checks that every name referenced in a compiled deal is
// declared, that custom formulas are acyclic and, when a ByIndex
// assumption is given, that its asset ids fit the pool. It reports all
// findings rather than stopping at the first.
func ValidateDeal(doc ir.IRTagged, assumption ir.IRValue) ([]ValidationError, []ValidationWarning) {
	names, err := deal.NamesOf(doc)
	if err != nil {
		return []ValidationError{{Field: "deal", Message: err.Error(), Code: ErrCodeInvalidSource}}, nil
	}
	body := doc.Contents.(ir.IRObject)

	r := &refChecker{names: names}
	r.walkDeal(body)
	errs := r.errs
	errs = append(errs, checkCustomCycles(body)...)

	var warns []ValidationWarning
	if t, ok := assumption.(ir.IRTagged); ok {
		e, w := checkAssumption(t, names.Assets)
		errs = append(errs, e...)
		warns = append(warns, w...)
	}
	return errs, warns
}

// refChecker walks IR by node kind and records unresolved names.
type refChecker struct {
	names deal.NameSet
	errs  []ValidationError
}

func (r *refChecker) ref(path string, c deal.Category, v ir.IRValue) {
	name, ok := v.(ir.IRString)
	if !ok {
		return
	}
	if !r.names.Has(c, string(name)) {
		r.errs = append(r.errs, ValidationError{
			Field:   path,
			Message: fmt.Sprintf("%s %q is not declared", c, name),
			Code:    ErrCodeReferenceNotFound,
		})
	}
}

func (r *refChecker) refs(path string, c deal.Category, v ir.IRValue) {
	arr, ok := v.(ir.IRArray)
	if !ok {
		r.ref(path, c, v)
		return
	}
	for _, n := range arr {
		r.ref(path, c, n)
	}
}

func (r *refChecker) walkDeal(body ir.IRObject) {
	if wf, ok := body["waterfall"].(ir.IRObject); ok {
		for _, phase := range wf.SortedKeys() {
			steps, _ := wf[phase].(ir.IRArray)
			for i, s := range steps {
				r.action(path("waterfall", phase, strconv.Itoa(i)), s)
			}
		}
	}
	if collects, ok := body["collects"].(ir.IRArray); ok {
		for i, c := range collects {
			if t, ok := c.(ir.IRTagged); ok {
				if args := t.Args(); len(args) == 2 {
					r.ref(path("collects", strconv.Itoa(i)), deal.Accounts, args[1])
				}
			}
		}
	}
	forEach(body, "fees", func(name string, rec ir.IRObject) {
		if t, ok := rec["feeType"].(ir.IRTagged); ok {
			switch t.Tag {
			case "AnnualRateFee", "PctFee":
				if args := t.Args(); len(args) == 2 {
					r.formula(path("fees", name, "feeType"), args[0])
				}
			}
		}
	})
	forEach(body, "accounts", func(name string, rec ir.IRObject) {
		r.reserve(path("accounts", name, "accType"), rec["accType"])
	})
	forEach(body, "rateSwap", func(name string, rec ir.IRObject) {
		if t, ok := rec["rsNotional"].(ir.IRTagged); ok && t.Tag == "Base" {
			r.formula(path("rateSwap", name, "rsNotional"), t.Contents)
		}
	})
	if customs, ok := body["custom"].(ir.IRObject); ok {
		for _, name := range customs.SortedKeys() {
			if t, ok := customs[name].(ir.IRTagged); ok && t.Tag == "CustomDS" {
				r.formula(path("custom", name), t.Contents)
			}
		}
	}
	if triggers, ok := body["triggers"].(ir.IRArray); ok {
		for i, tr := range triggers {
			if t, ok := tr.(ir.IRTagged); ok {
				if args := t.Args(); len(args) == 3 {
					r.predicate(path("triggers", strconv.Itoa(i)), args[1])
				}
			}
		}
	}
}

func forEach(body ir.IRObject, key string, fn func(name string, rec ir.IRObject)) {
	m, ok := body[key].(ir.IRObject)
	if !ok {
		return
	}
	for _, name := range m.SortedKeys() {
		if rec, ok := m[name].(ir.IRObject); ok {
			fn(name, rec)
		}
	}
}

func path(parts ...string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ">" + p
	}
	return out
}

func (r *refChecker) action(p string, v ir.IRValue) {
	t, ok := v.(ir.IRTagged)
	if !ok {
		return
	}
	args := t.Args()
	at := func(i int) ir.IRValue {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
	switch t.Tag {
	case "ActionWithPre":
		r.predicate(p, at(0))
		r.action(p, at(1))
	case "Transfer":
		r.ref(p, deal.Accounts, at(0))
		r.ref(p, deal.Accounts, at(1))
	case "TransferBy":
		r.limit(p, at(0))
		r.ref(p, deal.Accounts, at(1))
		r.ref(p, deal.Accounts, at(2))
	case "TransferReserve":
		r.ref(p, deal.Accounts, at(1))
		r.ref(p, deal.Accounts, at(2))
	case "CalcFee":
		r.refs(p, deal.Fees, t.Contents)
	case "CalcBondInt":
		r.refs(p, deal.Bonds, t.Contents)
	case "PayFee":
		r.ref(p, deal.Accounts, at(0))
		r.refs(p, deal.Fees, at(1))
	case "PayFeeBy":
		r.limit(p, at(0))
		r.ref(p, deal.Accounts, at(1))
		r.refs(p, deal.Fees, at(2))
	case "PayFeeResidual":
		r.limit(p, at(0))
		r.ref(p, deal.Accounts, at(1))
		r.ref(p, deal.Fees, at(2))
	case "PayInt", "PayPrin", "PayPrinResidual", "PayTillYield":
		r.ref(p, deal.Accounts, at(0))
		r.refs(p, deal.Bonds, at(1))
	case "PayPrinBy":
		r.limit(p, at(0))
		r.ref(p, deal.Accounts, at(1))
		r.refs(p, deal.Bonds, at(2))
	case "PayResidual":
		r.ref(p, deal.Accounts, at(1))
		r.ref(p, deal.Bonds, at(2))
	case "LiquidatePool":
		r.ref(p, deal.Accounts, at(1))
	case "LiqSupport":
		r.limit(p, at(0))
		r.ref(p, deal.Liquidity, at(1))
		r.ref(p, deal.Accounts, at(2))
	case "LiqRepay", "LiqYield":
		r.ref(p, deal.Accounts, at(1))
		r.ref(p, deal.Liquidity, at(2))
	case "SwapSettle":
		r.ref(p, deal.Accounts, at(0))
		r.ref(p, deal.Swaps, at(1))
	}
}

func (r *refChecker) limit(p string, v ir.IRValue) {
	if t, ok := v.(ir.IRTagged); ok && t.Tag == "DS" {
		r.formula(p, t.Contents)
	}
}

func (r *refChecker) predicate(p string, v ir.IRValue) {
	t, ok := v.(ir.IRTagged)
	if !ok {
		return
	}
	switch t.Tag {
	case "IfGT", "IfLT", "IfGET", "IfLET":
		if args := t.Args(); len(args) == 2 {
			r.formula(p, args[0])
		}
	case "IfZero":
		r.formula(p, t.Contents)
	case "And", "Or":
		for _, sub := range t.Args() {
			r.predicate(p, sub)
		}
	}
}

var formulaRefs = map[string]deal.Category{
	string(deal.CurrentBondBalanceOf): deal.Bonds,
	string(deal.AccBalance):           deal.Accounts,
	string(deal.CurrentDueBondInt):    deal.Bonds,
	string(deal.CurrentDueFee):        deal.Fees,
	string(deal.LastBondIntPaid):      deal.Bonds,
	string(deal.LastBondPrinPaid):     deal.Bonds,
	string(deal.LastFeePaid):          deal.Fees,
	string(deal.ReserveAccGap):        deal.Accounts,
}

func (r *refChecker) formula(p string, v ir.IRValue) {
	t, ok := v.(ir.IRTagged)
	if !ok {
		return
	}
	if c, ok := formulaRefs[t.Tag]; ok {
		// Dated fee bases carry a date string, not names.
		if names, ok := t.Contents.(ir.IRArray); ok {
			r.refs(p, c, names)
		}
		return
	}
	switch t.Tag {
	case "UseCustomData":
		r.ref(p, deal.Customs, t.Contents)
	case "Factor":
		if args := t.Args(); len(args) == 2 {
			r.formula(p, args[0])
		}
	case "Sum", "Substract", "Min", "Max":
		for _, term := range t.Args() {
			r.formula(p, term)
		}
	}
}

func (r *refChecker) reserve(p string, v ir.IRValue) {
	t, ok := v.(ir.IRTagged)
	if !ok {
		return
	}
	switch t.Tag {
	case "PctReserve":
		if args := t.Args(); len(args) == 2 {
			r.formula(p, args[0])
		}
	case "Max", "Min":
		for _, sub := range t.Args() {
			r.reserve(p, sub)
		}
	case "Either":
		if args := t.Args(); len(args) == 3 {
			r.predicate(p, args[0])
			r.reserve(p, args[1])
			r.reserve(p, args[2])
		}
	}
}

// checkCustomCycles reports custom formulas that reach themselves through
// UseCustomData references.
func checkCustomCycles(body ir.IRObject) []ValidationError {
	customs, ok := body["custom"].(ir.IRObject)
	if !ok {
		return nil
	}
	graph := make(dependencyGraph, len(customs))
	for _, name := range customs.SortedKeys() {
		graph[name] = []string{}
		if t, ok := customs[name].(ir.IRTagged); ok && t.Tag == "CustomDS" {
			collectCustomRefs(t.Contents, func(dep string) {
				if _, declared := customs[dep]; declared {
					graph[name] = append(graph[name], dep)
				}
			})
		}
	}

	var errs []ValidationError
	for _, cycle := range findCycles(graph) {
		errs = append(errs, ValidationError{
			Field:   path("custom", cycle[0]),
			Message: "custom formulas reference each other: " + cyclePath(cycle),
			Code:    ErrCodeCustomCycle,
		})
	}
	return errs
}

func collectCustomRefs(v ir.IRValue, fn func(string)) {
	t, ok := v.(ir.IRTagged)
	if !ok {
		return
	}
	switch t.Tag {
	case "UseCustomData":
		if s, ok := t.Contents.(ir.IRString); ok {
			fn(string(s))
		}
	case "Factor":
		if args := t.Args(); len(args) == 2 {
			collectCustomRefs(args[0], fn)
		}
	case "Sum", "Substract", "Min", "Max":
		for _, term := range t.Args() {
			collectCustomRefs(term, fn)
		}
	}
}

// checkAssumption checks a ByIndex assumption against a pool of n assets.
func checkAssumption(a ir.IRTagged, n int) ([]ValidationError, []ValidationWarning) {
	if a.Tag != "ByIndex" {
		return nil, nil
	}
	args := a.Args()
	if len(args) == 0 {
		return nil, nil
	}
	groups, _ := args[0].(ir.IRArray)

	var errs []ValidationError
	covered := make(map[int]bool)
	for gi, g := range groups {
		pair, ok := g.(ir.IRArray)
		if !ok || len(pair) == 0 {
			continue
		}
		ids, _ := pair[0].(ir.IRArray)
		for _, idv := range ids {
			id, ok := idv.(ir.IRInt)
			if !ok {
				continue
			}
			if id < 0 || int(id) >= n {
				errs = append(errs, ValidationError{
					Field:   path("assumption", "byIndex", strconv.Itoa(gi)),
					Message: fmt.Sprintf("asset %d is outside the pool (0..%d)", id, n-1),
					Code:    ErrCodeAssetOutOfRange,
				})
				continue
			}
			covered[int(id)] = true
		}
	}

	var warns []ValidationWarning
	for i := range n {
		if !covered[i] {
			warns = append(warns, ValidationWarning{
				Field:   path("pool", "assets", strconv.Itoa(i)),
				Message: fmt.Sprintf("asset %d has no asset-level assumption", i),
				Code:    WarnCodeAssetUnassumed,
			})
		}
	}
	return errs, warns
}

// SortErrors orders errors by code then field.
func SortErrors(errs []ValidationError) {
	slices.SortStableFunc(errs, func(a, b ValidationError) int {
		if a.Code != b.Code {
			if a.Code < b.Code {
				return -1
			}
			return 1
		}
		switch {
		case a.Field < b.Field:
			return -1
		case a.Field > b.Field:
			return 1
		}
		return 0
	})
}
