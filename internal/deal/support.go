package deal

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// LiqKind is the credit line type of a liquidity provider.
type LiqKind interface {
	Encode() ir.IRTagged
	isLiqKind()
}

// Unlimited providers have no credit limit.
type Unlimited struct{}

// FixSupport providers have a fixed total limit.
type FixSupport struct{}

// ReplenishSupport providers restore their limit to Amount on Pattern.
type ReplenishSupport struct {
	Pattern DatePattern
	Amount  decimal.Decimal
}

func (Unlimited) isLiqKind()        {}
func (FixSupport) isLiqKind()       {}
func (ReplenishSupport) isLiqKind() {}

func (Unlimited) Encode() ir.IRTagged  { return ir.Tag("UnLimit") }
func (FixSupport) Encode() ir.IRTagged { return ir.Tag("FixSupport") }

func (r ReplenishSupport) Encode() ir.IRTagged {
	return ir.Tag("ReplenishSupport", r.Pattern.Encode(), Amount(r.Amount))
}

// LiquidityProvider is an external credit enhancement facility.
type LiquidityProvider struct {
	Name   string
	Kind   LiqKind
	Limit  *decimal.Decimal // nil for Unlimited
	Credit decimal.Decimal
	Start  *civil.Date
}

// Encode builds the provider record. The limit key is absent, not null,
// for an unlimited provider.
func (l LiquidityProvider) Encode() ir.IRObject {
	obj := ir.Obj(
		ir.O("liqName", ir.Str(l.Name)),
		ir.O("liqType", l.Kind.Encode()),
		ir.O("liqCredit", Amount(l.Credit)),
		ir.O("liqStart", OptDate(l.Start)),
	)
	if _, unlimited := l.Kind.(Unlimited); !unlimited && l.Limit != nil {
		obj["liqBalance"] = Amount(*l.Limit)
	}
	return obj
}

// SwapLeg is one side of an interest rate swap.
type SwapLeg struct {
	Fixed  *decimal.Decimal
	Index  Index
	Spread decimal.Decimal
}

// Floating reports whether the leg references an index.
func (l SwapLeg) Floating() bool { return l.Fixed == nil }

func (l SwapLeg) encode() ir.IRValue {
	if l.Fixed != nil {
		return Amount(*l.Fixed)
	}
	return ir.Arr(ir.Str(string(l.Index)), Amount(l.Spread))
}

// Notional is either a fixed amount or a formula.
type Notional struct {
	Amount  *decimal.Decimal
	Formula Formula
}

func (n Notional) Encode() ir.IRTagged {
	if n.Formula != nil {
		return ir.Tag("Base", n.Formula.Encode())
	}
	return ir.Tag("Fixed", Amount(*n.Amount))
}

// RateSwap exchanges a paying leg for a receiving leg on Notional.
type RateSwap struct {
	Name     string
	Notional Notional
	Pay      SwapLeg
	Receive  SwapLeg
	Settle   DatePattern
	Start    civil.Date
	DayCount DayCount
}

// SwapKind names the leg combination; fixed against fixed has no engine
// variant and is rejected earlier.
func (s RateSwap) SwapKind() string {
	switch {
	case s.Pay.Floating() && s.Receive.Floating():
		return "FloatingToFloating"
	case s.Pay.Floating():
		return "FloatingToFixed"
	default:
		return "FixedToFloating"
	}
}

func (s RateSwap) Encode() ir.IRObject {
	zero := ir.NumInt(0)
	return ir.Obj(
		ir.O("rsType", ir.Tag(s.SwapKind(), s.Pay.encode(), s.Receive.encode())),
		ir.O("rsNotional", s.Notional.Encode()),
		ir.O("rsSettleDates", s.Settle.Encode()),
		ir.O("rsDayCount", s.DayCount.Encode()),
		ir.O("rsStartDate", Date(s.Start)),
		ir.O("rsPayingRate", zero),
		ir.O("rsReceivingRate", zero),
		ir.O("rsRefBalance", zero),
		ir.O("rsNetCash", zero),
		ir.O("rsStmt", ir.IRNull{}),
	)
}

// CurrencySwap converts a foreign-currency balance at Rate.
type CurrencySwap struct {
	Name    string
	Balance decimal.Decimal
	Rate    decimal.Decimal
	Settle  DatePattern
	Start   civil.Date
}

func (c CurrencySwap) Encode() ir.IRObject {
	return ir.Obj(
		ir.O("csBalance", Amount(c.Balance)),
		ir.O("csRate", Amount(c.Rate)),
		ir.O("csSettleDates", c.Settle.Encode()),
		ir.O("csStartDate", Date(c.Start)),
		ir.O("csStmt", ir.IRNull{}),
	)
}

// Custom is a user-defined data series referenced through CustomRef.
type Custom interface {
	Encode() ir.IRTagged
	isCustom()
}

// CustomConstant is a constant series.
type CustomConstant struct {
	Value decimal.Decimal
}

// CustomCurve is a dated step series.
type CustomCurve struct {
	Curve Curve
}

// CustomFormula evaluates a formula.
type CustomFormula struct {
	Formula Formula
}

func (CustomConstant) isCustom() {}
func (CustomCurve) isCustom()    {}
func (CustomFormula) isCustom()  {}

func (c CustomConstant) Encode() ir.IRTagged { return ir.Tag("CustomConstant", Amount(c.Value)) }
func (c CustomCurve) Encode() ir.IRTagged {
	return ir.Tag("CustomCurve", c.Curve.Encode("BalanceCurve"))
}
func (c CustomFormula) Encode() ir.IRTagged { return ir.Tag("CustomDS", c.Formula.Encode()) }

// TriggerPoint is when in the period a trigger is tested.
type TriggerPoint string

const (
	EndCollection       TriggerPoint = "EndCollection"
	EndCollectionWF     TriggerPoint = "EndCollectionWF"
	BeginDistributionWF TriggerPoint = "BeginDistributionWF"
	EndDistributionWF   TriggerPoint = "EndDistributionWF"
)

// Trigger changes the deal status when Condition holds at Point.
type Trigger struct {
	Point     TriggerPoint
	Condition Predicate
	ToStatus  Status
}

func (t Trigger) Encode() ir.IRTagged {
	return ir.Tag("Trigger",
		ir.Tag(string(t.Point)),
		t.Condition.Encode(),
		ir.Tag("DealStatusTo", t.ToStatus.Encode()),
	)
}
