package deal

import (
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// Formula is a deal statistic expression ("DealStats" on the engine side).
type Formula interface {
	Encode() ir.IRTagged
	isFormula()
}

// StatKind names a deal statistic. The value is the engine tag.
type StatKind string

// Statistics that take no operands.
const (
	CurrentBondBalance    StatKind = "CurrentBondBalance"
	CurrentPoolBalance    StatKind = "CurrentPoolBalance"
	CurrentPoolBegBalance StatKind = "CurrentPoolBegBalance"
	OriginalBondBalance   StatKind = "OriginalBondBalance"
	OriginalPoolBalance   StatKind = "OriginalPoolBalance"
	BondFactor            StatKind = "BondFactor"
	PoolFactor            StatKind = "PoolFactor"
	AllAccBalance         StatKind = "AllAccBalance"
	PoolCollectionInt     StatKind = "PoolCollectionInt"
)

// Statistics scoped to a list of entity names.
const (
	CurrentBondBalanceOf StatKind = "CurrentBondBalanceOf"
	AccBalance           StatKind = "AccBalance"
	CurrentDueBondInt    StatKind = "CurrentDueBondInt"
	CurrentDueFee        StatKind = "CurrentDueFee"
	LastBondIntPaid      StatKind = "LastBondIntPaid"
	LastBondPrinPaid     StatKind = "LastBondPrinPaid"
	LastFeePaid          StatKind = "LastFeePaid"
	ReserveAccGap        StatKind = "ReserveAccGap"
)

// Stat is an operand-free statistic such as the current pool balance.
type Stat struct {
	Kind StatKind
}

// NamedStat is a statistic over named bonds, fees or accounts.
type NamedStat struct {
	Kind  StatKind
	Names []string
}

// DatedStat is a statistic evaluated as of a date. Fee bases use it with
// the epoch date, meaning "whatever the engine's current period is".
type DatedStat struct {
	Kind StatKind
	Date string
}

// Factor scales a formula by a constant.
type Factor struct {
	Of Formula
	By decimal.Decimal
}

// CombineOp is an n-ary formula combinator.
type CombineOp string

const (
	Sum       CombineOp = "Sum"
	Substract CombineOp = "Substract"
	Min       CombineOp = "Min"
	Max       CombineOp = "Max"
)

// Combine applies Op over Terms in order. Min and Max take exactly two.
type Combine struct {
	Op    CombineOp
	Terms []Formula
}

// Constant is a literal amount.
type Constant struct {
	Value decimal.Decimal
}

// CustomRef reads a custom formula by name.
type CustomRef struct {
	Name string
}

// PoolCollection is the income collected by the pool from one source.
type PoolCollection struct {
	Source CollectSource
}

func (Stat) isFormula()           {}
func (NamedStat) isFormula()      {}
func (DatedStat) isFormula()      {}
func (Factor) isFormula()         {}
func (Combine) isFormula()        {}
func (Constant) isFormula()       {}
func (CustomRef) isFormula()      {}
func (PoolCollection) isFormula() {}

func (s Stat) Encode() ir.IRTagged { return ir.Tag(string(s.Kind)) }

func (s NamedStat) Encode() ir.IRTagged {
	return ir.Tag(string(s.Kind), ir.Strings(s.Names))
}

func (s DatedStat) Encode() ir.IRTagged {
	return ir.Tag(string(s.Kind), ir.Str(s.Date))
}

func (f Factor) Encode() ir.IRTagged {
	return ir.Tag("Factor", f.Of.Encode(), Amount(f.By))
}

func (c Combine) Encode() ir.IRTagged {
	terms := make(ir.IRArray, len(c.Terms))
	for i, t := range c.Terms {
		terms[i] = t.Encode()
	}
	return ir.Tag(string(c.Op), terms)
}

func (c Constant) Encode() ir.IRTagged { return ir.Tag("Constant", Amount(c.Value)) }

func (c CustomRef) Encode() ir.IRTagged { return ir.Tag("UseCustomData", ir.Str(c.Name)) }

func (p PoolCollection) Encode() ir.IRTagged {
	return ir.Tag("PoolCollectionIncome", ir.Str(string(p.Source)))
}
