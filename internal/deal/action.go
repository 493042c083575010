package deal

import (
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// Action is one waterfall step.
type Action interface {
	Encode() ir.IRTagged
	isAction()
}

// Limit caps the amount an action may move.
type Limit interface {
	Encode() ir.IRTagged
	isLimit()
}

// DuePct limits to a fraction of the amount due.
type DuePct struct{ Pct decimal.Decimal }

// DueCapAmt limits to a fixed amount.
type DueCapAmt struct{ Amount decimal.Decimal }

// ByFormula limits to the value of a formula.
type ByFormula struct{ Formula Formula }

func (DuePct) isLimit()    {}
func (DueCapAmt) isLimit() {}
func (ByFormula) isLimit() {}

func (l DuePct) Encode() ir.IRTagged    { return ir.Tag("DuePct", Amount(l.Pct)) }
func (l DueCapAmt) Encode() ir.IRTagged { return ir.Tag("DueCapAmt", Amount(l.Amount)) }
func (l ByFormula) Encode() ir.IRTagged { return ir.Tag("DS", l.Formula.Encode()) }

func optLimit(l Limit) ir.IRValue {
	if l == nil {
		return ir.IRNull{}
	}
	return l.Encode()
}

// Transfer moves the whole balance of From into To.
type Transfer struct{ From, To string }

// TransferBy moves up to Limit from From into To.
type TransferBy struct {
	Limit    Limit
	From, To string
}

// ReserveSide selects which reserve target governs a TransferReserve.
type ReserveSide string

const (
	SourceReserve ReserveSide = "Source"
	TargetReserve ReserveSide = "Target"
)

// TransferReserve moves cash between accounts to satisfy a reserve target.
type TransferReserve struct {
	Side     ReserveSide
	From, To string
}

// CalcFee accrues the named fees.
type CalcFee struct{ Fees []string }

// CalcBondInt accrues interest on the named bonds.
type CalcBondInt struct{ Bonds []string }

// PayFee pays due fees pro rata.
type PayFee struct {
	From string
	Fees []string
}

// PayFeeBy pays due fees up to Limit.
type PayFeeBy struct {
	Limit Limit
	From  string
	Fees  []string
}

// PayFeeResidual pays whatever remains to one fee, optionally capped.
type PayFeeResidual struct {
	Limit Limit
	From  string
	Fee   string
}

// PayInt pays due interest pro rata.
type PayInt struct {
	From  string
	Bonds []string
}

// PayPrin pays principal, optionally limited by a formula.
type PayPrin struct {
	Limit Limit
	From  string
	Bonds []string
}

// PayPrinResidual pays all remaining cash as principal.
type PayPrinResidual struct {
	From  string
	Bonds []string
}

// PayTillYield pays a yield bond until its target yield is met.
type PayTillYield struct {
	From  string
	Bonds []string
}

// PayResidual pays the remaining cash to an equity bond.
type PayResidual struct {
	Limit *decimal.Decimal
	From  string
	Bond  string
}

// LiquidationMethod prices the pool on a sale.
type LiquidationMethod struct {
	Kind   string // BalanceFactor, BalanceFactor2, PV
	Params []decimal.Decimal
}

func (m LiquidationMethod) Encode() ir.IRTagged {
	params := make(ir.IRArray, len(m.Params))
	for i, p := range m.Params {
		params[i] = Amount(p)
	}
	return ir.Tag(m.Kind, params...)
}

// LiquidatePool sells the pool and deposits proceeds into To.
type LiquidatePool struct {
	Method LiquidationMethod
	To     string
}

// LiqSupport draws from a liquidity provider into an account.
type LiqSupport struct {
	Limit    Formula
	Provider string
	To       string
}

// LiqRepay repays a liquidity provider.
type LiqRepay struct {
	From     string
	Provider string
}

// LiqYield pays a liquidity provider's fee.
type LiqYield struct {
	From     string
	Provider string
}

// SwapSettle settles a rate swap through an account.
type SwapSettle struct {
	Account string
	Swap    string
}

func (Transfer) isAction()        {}
func (TransferBy) isAction()      {}
func (TransferReserve) isAction() {}
func (CalcFee) isAction()         {}
func (CalcBondInt) isAction()     {}
func (PayFee) isAction()          {}
func (PayFeeBy) isAction()        {}
func (PayFeeResidual) isAction()  {}
func (PayInt) isAction()          {}
func (PayPrin) isAction()         {}
func (PayPrinResidual) isAction() {}
func (PayTillYield) isAction()    {}
func (PayResidual) isAction()     {}
func (LiquidatePool) isAction()   {}
func (LiqSupport) isAction()      {}
func (LiqRepay) isAction()        {}
func (LiqYield) isAction()        {}
func (SwapSettle) isAction()      {}

func (a Transfer) Encode() ir.IRTagged {
	return ir.Tag("Transfer", ir.Str(a.From), ir.Str(a.To))
}

func (a TransferBy) Encode() ir.IRTagged {
	return ir.Tag("TransferBy", a.Limit.Encode(), ir.Str(a.From), ir.Str(a.To))
}

func (a TransferReserve) Encode() ir.IRTagged {
	return ir.Tag("TransferReserve", ir.Tag(string(a.Side)), ir.Str(a.From), ir.Str(a.To))
}

func (a CalcFee) Encode() ir.IRTagged     { return ir.Tag("CalcFee", ir.Strings(a.Fees)) }
func (a CalcBondInt) Encode() ir.IRTagged { return ir.Tag("CalcBondInt", ir.Strings(a.Bonds)) }

func (a PayFee) Encode() ir.IRTagged {
	return ir.Tag("PayFee", ir.Str(a.From), ir.Strings(a.Fees))
}

func (a PayFeeBy) Encode() ir.IRTagged {
	return ir.Tag("PayFeeBy", a.Limit.Encode(), ir.Str(a.From), ir.Strings(a.Fees))
}

func (a PayFeeResidual) Encode() ir.IRTagged {
	return ir.Tag("PayFeeResidual", optLimit(a.Limit), ir.Str(a.From), ir.Str(a.Fee))
}

func (a PayInt) Encode() ir.IRTagged {
	return ir.Tag("PayInt", ir.Str(a.From), ir.Strings(a.Bonds))
}

// Encode emits PayPrinBy when a limit is present and plain PayPrin
// otherwise.
func (a PayPrin) Encode() ir.IRTagged {
	if a.Limit != nil {
		return ir.Tag("PayPrinBy", a.Limit.Encode(), ir.Str(a.From), ir.Strings(a.Bonds))
	}
	return ir.Tag("PayPrin", ir.Str(a.From), ir.Strings(a.Bonds))
}

func (a PayPrinResidual) Encode() ir.IRTagged {
	return ir.Tag("PayPrinResidual", ir.Str(a.From), ir.Strings(a.Bonds))
}

func (a PayTillYield) Encode() ir.IRTagged {
	return ir.Tag("PayTillYield", ir.Str(a.From), ir.Strings(a.Bonds))
}

func (a PayResidual) Encode() ir.IRTagged {
	return ir.Tag("PayResidual", OptAmount(a.Limit), ir.Str(a.From), ir.Str(a.Bond))
}

func (a LiquidatePool) Encode() ir.IRTagged {
	return ir.Tag("LiquidatePool", a.Method.Encode(), ir.Str(a.To))
}

func (a LiqSupport) Encode() ir.IRTagged {
	var limit ir.IRValue = ir.IRNull{}
	if a.Limit != nil {
		limit = ir.Tag("DS", a.Limit.Encode())
	}
	return ir.Tag("LiqSupport", limit, ir.Str(a.Provider), ir.Str(a.To))
}

func (a LiqRepay) Encode() ir.IRTagged {
	return ir.Tag("LiqRepay", ir.IRNull{}, ir.Str(a.From), ir.Str(a.Provider))
}

func (a LiqYield) Encode() ir.IRTagged {
	return ir.Tag("LiqYield", ir.IRNull{}, ir.Str(a.From), ir.Str(a.Provider))
}

func (a SwapSettle) Encode() ir.IRTagged {
	return ir.Tag("SwapSettle", ir.Str(a.Account), ir.Str(a.Swap))
}

// Step is one compiled waterfall entry: an action, optionally guarded.
type Step struct {
	Guard  Predicate
	Action Action
}

// Encode emits the bare action, or ActionWithPre [guard, action].
func (s Step) Encode() ir.IRTagged {
	if s.Guard == nil {
		return s.Action.Encode()
	}
	return ir.Tag("ActionWithPre", s.Guard.Encode(), s.Action.Encode())
}
