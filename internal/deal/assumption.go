package deal

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// Assumption is one forward-looking scenario input.
type Assumption interface {
	Encode() ir.IRTagged
	isAssumption()
}

// PrepaymentCPR is a constant prepayment rate.
type PrepaymentCPR struct{ Rate decimal.Decimal }

// PrepaymentCPRCurve is a per-period prepayment vector.
type PrepaymentCPRCurve struct{ Rates []decimal.Decimal }

// DefaultCDR is a constant default rate.
type DefaultCDR struct{ Rate decimal.Decimal }

// DefaultCDRCurve is a per-period default vector.
type DefaultCDRCurve struct{ Rates []decimal.Decimal }

// FactorAdjust scales a base rate by dated factors up to End. Kind is
// PrepaymentFactors or DefaultFactors.
type FactorAdjust struct {
	Kind    string
	Factors Curve
	End     civil.Date
}

// Recovery recovers Rate of defaulted balance after Lag periods.
type Recovery struct {
	Rate decimal.Decimal
	Lag  int
}

// RateConstant fixes an index for the whole projection.
type RateConstant struct {
	Index Index
	Rate  decimal.Decimal
}

// RateCurve projects an index along a dated curve.
type RateCurve struct {
	Index Index
	Curve Curve
}

// CallWhen exercises the clean-up call when any option holds.
type CallWhen struct{ Options []CallOption }

// StopRunBy ends the projection on Date.
type StopRunBy struct{ Date civil.Date }

func (PrepaymentCPR) isAssumption()      {}
func (PrepaymentCPRCurve) isAssumption() {}
func (DefaultCDR) isAssumption()         {}
func (DefaultCDRCurve) isAssumption()    {}
func (FactorAdjust) isAssumption()       {}
func (Recovery) isAssumption()           {}
func (RateConstant) isAssumption()       {}
func (RateCurve) isAssumption()          {}
func (CallWhen) isAssumption()           {}
func (StopRunBy) isAssumption()          {}

func amounts(ds []decimal.Decimal) ir.IRArray {
	arr := make(ir.IRArray, len(ds))
	for i, d := range ds {
		arr[i] = Amount(d)
	}
	return arr
}

func (a PrepaymentCPR) Encode() ir.IRTagged { return ir.Tag("PrepaymentCPR", Amount(a.Rate)) }
func (a DefaultCDR) Encode() ir.IRTagged    { return ir.Tag("DefaultCDR", Amount(a.Rate)) }

func (a PrepaymentCPRCurve) Encode() ir.IRTagged {
	return ir.Tag("PrepaymentCPRCurve", amounts(a.Rates))
}

func (a DefaultCDRCurve) Encode() ir.IRTagged {
	return ir.Tag("DefaultCDRCurve", amounts(a.Rates))
}

func (a FactorAdjust) Encode() ir.IRTagged {
	return ir.Tag(a.Kind, ir.Tag("FactorCurveClosed", a.Factors.Rows(), Date(a.End)))
}

func (a Recovery) Encode() ir.IRTagged {
	return ir.Tag("Recovery", Amount(a.Rate), ir.IRInt(a.Lag))
}

func (a RateConstant) Encode() ir.IRTagged {
	return ir.Tag("InterestRateConstant", ir.Str(string(a.Index)), Amount(a.Rate))
}

// Encode flattens the curve after the index: [index, [d, r], [d, r], ...].
func (a RateCurve) Encode() ir.IRTagged {
	args := ir.IRArray{ir.Str(string(a.Index))}
	args = append(args, a.Curve.Rows()...)
	return ir.Tag("InterestRateCurve", args...)
}

func (a CallWhen) Encode() ir.IRTagged {
	opts := make(ir.IRArray, len(a.Options))
	for i, o := range a.Options {
		opts[i] = o.Encode()
	}
	return ir.Tag("CallWhen", opts)
}

func (a StopRunBy) Encode() ir.IRTagged { return ir.Tag("StopRunBy", Date(a.Date)) }

// CallOption is a clean-up call condition.
type CallOption interface {
	Encode() ir.IRTagged
	isCallOption()
}

// CallThreshold fires when a balance or factor falls to Level. Kind is
// PoolBalance, BondBalance, PoolFactor or BondFactor.
type CallThreshold struct {
	Kind  string
	Level decimal.Decimal
}

// CallAfter fires after Date.
type CallAfter struct{ Date civil.Date }

// CallAny and CallAll combine options.
type CallAny struct{ Options []CallOption }
type CallAll struct{ Options []CallOption }

func (CallThreshold) isCallOption() {}
func (CallAfter) isCallOption()     {}
func (CallAny) isCallOption()       {}
func (CallAll) isCallOption()       {}

func (c CallThreshold) Encode() ir.IRTagged { return ir.Tag(c.Kind, Amount(c.Level)) }
func (c CallAfter) Encode() ir.IRTagged     { return ir.Tag("AfterDate", Date(c.Date)) }
func (c CallAny) Encode() ir.IRTagged       { return ir.Tag("Or", encodeOptions(c.Options)) }
func (c CallAll) Encode() ir.IRTagged       { return ir.Tag("And", encodeOptions(c.Options)) }

func encodeOptions(opts []CallOption) ir.IRArray {
	arr := make(ir.IRArray, len(opts))
	for i, o := range opts {
		arr[i] = o.Encode()
	}
	return arr
}

// AssetGroup applies Items to the pool assets at the given indexes.
type AssetGroup struct {
	Assets []int
	Items  []Assumption
}

// AssumptionSet is the scenario sent alongside a deal.
type AssumptionSet struct {
	Name     string
	PoolWide []Assumption
	ByIndex  []AssetGroup
}

// Encode emits PoolLevel for pool-wide scenarios and
// ByIndex [[[ids],[items]]..., [pool-wide items]] otherwise.
func (s AssumptionSet) Encode() ir.IRTagged {
	if len(s.ByIndex) == 0 {
		return ir.Tag("PoolLevel", encodeItems(s.PoolWide))
	}
	groups := make(ir.IRArray, len(s.ByIndex))
	for i, g := range s.ByIndex {
		ids := make(ir.IRArray, len(g.Assets))
		for j, id := range g.Assets {
			ids[j] = ir.IRInt(id)
		}
		groups[i] = ir.Arr(ids, encodeItems(g.Items))
	}
	return ir.Tag("ByIndex", groups, encodeItems(s.PoolWide))
}

func encodeItems(items []Assumption) ir.IRArray {
	arr := make(ir.IRArray, len(items))
	for i, a := range items {
		arr[i] = a.Encode()
	}
	return arr
}

// Pricing discounts bond cashflows on Date along Curve.
type Pricing struct {
	Name  string
	Date  civil.Date
	Curve Curve
}

func (p Pricing) Encode() ir.IRTagged {
	return ir.Tag("DiscountCurve", Date(p.Date), p.Curve.Encode("PricingCurve"))
}
