package deal

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// AssetKind selects the engine asset variant and, through it, the deal
// variant.
type AssetKind string

const (
	Mortgage    AssetKind = "Mortgage"
	Loan        AssetKind = "Loan"
	Installment AssetKind = "Installment"
)

// DealType is the top-level engine variant for a pool of the given kind.
func (k AssetKind) DealType() string {
	switch k {
	case Loan:
		return "LDeal"
	case Installment:
		return "IDeal"
	default:
		return "MDeal"
	}
}

// AmortType is an asset's scheduled principal profile.
type AmortType string

const (
	Level        AmortType = "Level"
	Even         AmortType = "Even"
	InterestOnly AmortType = "I_P"
	FlatPrin     AmortType = "F_P"
)

// AssetRate is an asset's origination rate.
type AssetRate interface {
	Encode() ir.IRTagged
	isAssetRate()
}

// AssetFix is a fixed asset rate.
type AssetFix struct {
	Rate decimal.Decimal
}

// AssetFloater floats over Index, starting at Rate.
type AssetFloater struct {
	Index  Index
	Spread decimal.Decimal
	Rate   decimal.Decimal
	Reset  Freq
}

func (AssetFix) isAssetRate()     {}
func (AssetFloater) isAssetRate() {}

func (a AssetFix) Encode() ir.IRTagged { return ir.Tag("Fix", Amount(a.Rate)) }

func (a AssetFloater) Encode() ir.IRTagged {
	return ir.Tag("Floater",
		ir.Str(string(a.Index)),
		Amount(a.Spread),
		Amount(a.Rate),
		a.Reset.Encode(),
		ir.IRNull{},
	)
}

// AssetStatus is Current or Defaulted.
type AssetStatus string

const (
	AssetCurrent   AssetStatus = "Current"
	AssetDefaulted AssetStatus = "Defaulted"
)

// Encode renders the status. Defaulted carries a null default date.
func (s AssetStatus) Encode() ir.IRTagged {
	if s == AssetDefaulted {
		return ir.Tag("Defaulted", ir.IRNull{})
	}
	return ir.Tag(string(s))
}

// Asset is one collateral loan.
type Asset struct {
	Kind          AssetKind
	OriginBalance decimal.Decimal
	OriginRate    AssetRate
	OriginTerm    int
	Period        Freq
	StartDate     civil.Date
	AmortType     AmortType
	Balance       decimal.Decimal
	Rate          decimal.Decimal
	RemainTerms   int
	Status        AssetStatus
}

func (a Asset) Encode() ir.IRTagged {
	origin := ir.Obj(
		ir.O("originBalance", Amount(a.OriginBalance)),
		ir.O("originRate", a.OriginRate.Encode()),
		ir.O("originTerm", ir.IRInt(a.OriginTerm)),
		ir.O("period", a.Period.Encode()),
		ir.O("startDate", Date(a.StartDate)),
		ir.O("prinType", ir.Tag(string(a.AmortType))),
	)
	return ir.Tag(string(a.Kind),
		origin,
		Amount(a.Balance),
		Amount(a.Rate),
		ir.IRInt(a.RemainTerms),
		a.Status.Encode(),
	)
}

// FlowRow is one projected pool cashflow period supplied with the deal.
type FlowRow struct {
	Date      civil.Date
	Balance   decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// Encode pads the row with zero prepayment, default, recovery, loss and
// rate columns, the shape the engine's MortgageFlow expects.
func (r FlowRow) Encode() ir.IRTagged {
	zero := ir.NumInt(0)
	return ir.Tag("MortgageFlow",
		Date(r.Date), Amount(r.Balance), Amount(r.Principal), Amount(r.Interest),
		zero, zero, zero, zero, zero,
	)
}

// Pool is the collateral.
type Pool struct {
	Assets          []Asset
	AsOf            civil.Date
	IssuanceBalance *decimal.Decimal
	Cashflow        []FlowRow
}

// Kind reports the single asset kind of the pool; ok is false when kinds
// are mixed. An empty pool is a mortgage pool.
func (p Pool) Kind() (kind AssetKind, ok bool) {
	kind = Mortgage
	for i, a := range p.Assets {
		if i == 0 {
			kind = a.Kind
			continue
		}
		if a.Kind != kind {
			return kind, false
		}
	}
	return kind, true
}

func (p Pool) Encode() ir.IRObject {
	assets := make(ir.IRArray, len(p.Assets))
	for i, a := range p.Assets {
		assets[i] = a.Encode()
	}

	var issuance ir.IRValue = ir.IRNull{}
	if p.IssuanceBalance != nil {
		issuance = ir.Obj(ir.O("IssuanceBalance", Amount(*p.IssuanceBalance)))
	}

	var future ir.IRValue = ir.IRNull{}
	if len(p.Cashflow) > 0 {
		rows := make(ir.IRArray, len(p.Cashflow))
		for i, r := range p.Cashflow {
			rows[i] = r.Encode()
		}
		future = rows
	}

	return ir.Obj(
		ir.O("assets", assets),
		ir.O("asOfDate", Date(p.AsOf)),
		ir.O("issuanceStat", issuance),
		ir.O("futureCf", future),
	)
}

// CollectSource is a pool cash bucket.
type CollectSource string

const (
	CollectedInterest   CollectSource = "CollectedInterest"
	CollectedPrincipal  CollectSource = "CollectedPrincipal"
	CollectedPrepayment CollectSource = "CollectedPrepayment"
	CollectedRecoveries CollectSource = "CollectedRecoveries"
)

// Collect routes one pool cash bucket into an account.
type Collect struct {
	Source  CollectSource
	Account string
}

func (c Collect) Encode() ir.IRTagged {
	return ir.Tag("Collect", ir.Str(string(c.Source)), ir.Str(c.Account))
}
