package deal

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// BondType is the principal amortization scheme of a bond.
type BondType interface {
	Encode() ir.IRTagged
	isBondType()
}

// Sequential bonds take principal in waterfall order.
type Sequential struct{}

// Equity is the residual tranche.
type Equity struct{}

// PAC bonds follow a target balance schedule.
type PAC struct {
	Schedule Curve
}

// Lockout bonds take no principal before Until.
type Lockout struct {
	Until civil.Date
}

func (Sequential) isBondType() {}
func (Equity) isBondType()     {}
func (PAC) isBondType()        {}
func (Lockout) isBondType()    {}

func (Sequential) Encode() ir.IRTagged { return ir.Tag("Sequential") }
func (Equity) Encode() ir.IRTagged     { return ir.Tag("Equity") }
func (p PAC) Encode() ir.IRTagged      { return ir.Tag("PAC", p.Schedule.Encode("BalanceCurve")) }
func (l Lockout) Encode() ir.IRTagged  { return ir.Tag("Lockout", Date(l.Until)) }

// BondRate is how a bond's coupon is determined.
type BondRate interface {
	Encode() ir.IRTagged
	isBondRate()
}

// FixedRate pays a constant coupon.
type FixedRate struct {
	Rate     decimal.Decimal
	DayCount DayCount
}

// FloatingRate pays index + spread, refixed per Reset.
type FloatingRate struct {
	Index    Index
	Spread   decimal.Decimal
	Reset    RateReset
	DayCount DayCount
}

// YieldRate pays whatever is needed to reach a target yield.
type YieldRate struct {
	Yield decimal.Decimal
}

func (FixedRate) isBondRate()    {}
func (FloatingRate) isBondRate() {}
func (YieldRate) isBondRate()    {}

func (f FixedRate) Encode() ir.IRTagged {
	return ir.Tag("Fix", Amount(f.Rate), f.DayCount.Encode())
}

// Encode emits the six-slot Floater record; the trailing floor and cap
// slots are not described at the source level and stay null.
func (f FloatingRate) Encode() ir.IRTagged {
	return ir.Tag("Floater",
		ir.Str(string(f.Index)),
		Amount(f.Spread),
		f.Reset.Encode(),
		f.DayCount.Encode(),
		ir.IRNull{},
		ir.IRNull{},
	)
}

func (y YieldRate) Encode() ir.IRTagged { return ir.Tag("InterestByYield", Amount(y.Yield)) }

// Index is a floating-rate benchmark.
type Index string

// Indexes lists the benchmarks the engine can project.
var Indexes = []Index{"LPR5Y", "LPR1Y", "LIBOR1M", "LIBOR3M", "LIBOR6M", "SOFR1M", "SOFR3M", "PRIME"}

// Bond is one tranche of the capital structure.
type Bond struct {
	Name          string
	Balance       decimal.Decimal
	Rate          decimal.Decimal
	OriginBalance decimal.Decimal
	OriginRate    decimal.Decimal
	OriginDate    civil.Date
	Interest      BondRate
	Type          BondType
}

// Encode builds the engine bond record with zeroed accrual fields.
func (b Bond) Encode() ir.IRObject {
	return ir.Obj(
		ir.O("bndName", ir.Str(b.Name)),
		ir.O("bndBalance", Amount(b.Balance)),
		ir.O("bndRate", Amount(b.Rate)),
		ir.O("bndOriginInfo", ir.Obj(
			ir.O("originBalance", Amount(b.OriginBalance)),
			ir.O("originDate", Date(b.OriginDate)),
			ir.O("originRate", Amount(b.OriginRate)),
		)),
		ir.O("bndInterestInfo", b.Interest.Encode()),
		ir.O("bndType", b.Type.Encode()),
		ir.O("bndDuePrin", ir.NumInt(0)),
		ir.O("bndDueInt", ir.NumInt(0)),
		ir.O("bndDueIntDate", ir.IRNull{}),
	)
}
