package deal

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// FeeType is how a fee accrues.
type FeeType interface {
	Encode() ir.IRTagged
	isFeeType()
}

// FixFee is a one-off amount.
type FixFee struct {
	Amount decimal.Decimal
}

// RecurFee charges Amount on every date of Pattern.
type RecurFee struct {
	Pattern DatePattern
	Amount  decimal.Decimal
}

// AnnualRateFee accrues Rate per year on a base balance.
type AnnualRateFee struct {
	Base Formula
	Rate decimal.Decimal
}

// PctFee charges Rate of a period flow (collected interest, bond interest
// or principal paid).
type PctFee struct {
	Base Formula
	Rate decimal.Decimal
}

func (FixFee) isFeeType()        {}
func (RecurFee) isFeeType()      {}
func (AnnualRateFee) isFeeType() {}
func (PctFee) isFeeType()        {}

func (f FixFee) Encode() ir.IRTagged { return ir.Tag("FixFee", Amount(f.Amount)) }

func (f RecurFee) Encode() ir.IRTagged {
	return ir.Tag("RecurFee", f.Pattern.Encode(), Amount(f.Amount))
}

func (f AnnualRateFee) Encode() ir.IRTagged {
	return ir.Tag("AnnualRateFee", f.Base.Encode(), Amount(f.Rate))
}

func (f PctFee) Encode() ir.IRTagged {
	return ir.Tag("PctFee", f.Base.Encode(), Amount(f.Rate))
}

// Fee is a senior expense paid through the waterfall.
type Fee struct {
	Name    string
	Type    FeeType
	Start   *civil.Date
	DueDate *civil.Date
}

// Encode builds the engine fee record. Start must be resolved by the
// caller; an unresolved start renders as null.
func (f Fee) Encode() ir.IRObject {
	return ir.Obj(
		ir.O("feeName", ir.Str(f.Name)),
		ir.O("feeType", f.Type.Encode()),
		ir.O("feeStart", OptDate(f.Start)),
		ir.O("feeDueDate", OptDate(f.DueDate)),
		ir.O("feeDue", ir.NumInt(0)),
		ir.O("feeArrears", ir.NumInt(0)),
		ir.O("feeLastPaidDay", ir.IRNull{}),
	)
}
