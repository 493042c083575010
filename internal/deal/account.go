package deal

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// ReservePolicy sizes the target balance of a reserve account.
type ReservePolicy interface {
	Encode() ir.IRTagged
	isReservePolicy()
}

// FixReserve targets a constant amount.
type FixReserve struct {
	Amount decimal.Decimal
}

// PctReserve targets a fraction of a formula.
type PctReserve struct {
	Base Formula
	Rate decimal.Decimal
}

// Bound picks the higher or lower of two policies.
type Bound struct {
	Op   CombineOp // Max or Min
	A, B ReservePolicy
}

// Either switches between two policies on a predicate.
type Either struct {
	When Predicate
	Then ReservePolicy
	Else ReservePolicy
}

func (FixReserve) isReservePolicy() {}
func (PctReserve) isReservePolicy() {}
func (Bound) isReservePolicy()      {}
func (Either) isReservePolicy()     {}

func (r FixReserve) Encode() ir.IRTagged { return ir.Tag("FixReserve", Amount(r.Amount)) }

func (r PctReserve) Encode() ir.IRTagged {
	return ir.Tag("PctReserve", r.Base.Encode(), Amount(r.Rate))
}

func (b Bound) Encode() ir.IRTagged {
	return ir.Tag(string(b.Op), ir.Arr(b.A.Encode(), b.B.Encode()))
}

func (e Either) Encode() ir.IRTagged {
	return ir.Tag("Either", e.When.Encode(), e.Then.Encode(), e.Else.Encode())
}

// AccountInterest accrues bank interest on the balance.
type AccountInterest struct {
	Rate        decimal.Decimal
	LastSettled civil.Date
	Period      DatePattern
}

func (a AccountInterest) Encode() ir.IRTagged {
	return ir.Tag("BankAccount", Amount(a.Rate), Date(a.LastSettled), a.Period.Encode())
}

// AccountTxn is one historical account movement.
type AccountTxn struct {
	Date    civil.Date
	Balance decimal.Decimal
	Amount  decimal.Decimal
	Memo    string
}

func (t AccountTxn) Encode() ir.IRTagged {
	return ir.Tag("AccTxn", Date(t.Date), Amount(t.Balance), Amount(t.Amount), ir.Str(t.Memo))
}

// Account holds cash between collection and distribution.
type Account struct {
	Name     string
	Balance  decimal.Decimal
	Reserve  ReservePolicy
	Interest *AccountInterest
	History  []AccountTxn
}

// Encode builds the engine account record. Optional parts render as null.
func (a Account) Encode() ir.IRObject {
	var reserve ir.IRValue = ir.IRNull{}
	if a.Reserve != nil {
		reserve = a.Reserve.Encode()
	}
	var interest ir.IRValue = ir.IRNull{}
	if a.Interest != nil {
		interest = a.Interest.Encode()
	}
	var stmt ir.IRValue = ir.IRNull{}
	if a.History != nil {
		txns := make(ir.IRArray, len(a.History))
		for i, t := range a.History {
			txns[i] = t.Encode()
		}
		stmt = txns
	}
	return ir.Obj(
		ir.O("accName", ir.Str(a.Name)),
		ir.O("accBalance", Amount(a.Balance)),
		ir.O("accType", reserve),
		ir.O("accInterest", interest),
		ir.O("accStmt", stmt),
	)
}
