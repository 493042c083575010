package deal

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// Predicate is a boolean condition over deal state.
type Predicate interface {
	Encode() ir.IRTagged
	isPredicate()
}

// Comparison is the comparator of a Threshold test.
type Comparison string

const (
	GT  Comparison = "IfGT"
	LT  Comparison = "IfLT"
	GET Comparison = "IfGET"
	LET Comparison = "IfLET"
)

// Threshold compares a formula to a constant.
type Threshold struct {
	Formula Formula
	Cmp     Comparison
	Amount  decimal.Decimal
}

// IsZero holds when a formula evaluates to exactly zero. It is a distinct
// node so that the engine never compares decimals for equality.
type IsZero struct {
	Formula Formula
}

// DateCmp is the direction of a DateTest.
type DateCmp string

const (
	After      DateCmp = "IfAfterDate"
	Before     DateCmp = "IfBeforeDate"
	AfterOrOn  DateCmp = "IfAfterOnDate"
	BeforeOrOn DateCmp = "IfBeforeOnDate"
)

// DateTest compares the evaluation date to a literal date.
type DateTest struct {
	Cmp  DateCmp
	Date civil.Date
}

// StatusIs holds while the deal is in the given status.
type StatusIs struct {
	Status Status
}

// Junction is And or Or.
type Junction string

const (
	And Junction = "And"
	Or  Junction = "Or"
)

// Both combines exactly two predicates.
type Both struct {
	Op          Junction
	Left, Right Predicate
}

func (Threshold) isPredicate() {}
func (IsZero) isPredicate()    {}
func (DateTest) isPredicate()  {}
func (StatusIs) isPredicate()  {}
func (Both) isPredicate()      {}

func (t Threshold) Encode() ir.IRTagged {
	return ir.Tag(string(t.Cmp), t.Formula.Encode(), Amount(t.Amount))
}

func (z IsZero) Encode() ir.IRTagged { return ir.Tag("IfZero", z.Formula.Encode()) }

func (d DateTest) Encode() ir.IRTagged { return ir.Tag(string(d.Cmp), Date(d.Date)) }

func (s StatusIs) Encode() ir.IRTagged { return ir.Tag("IfDealStatus", s.Status.Encode()) }

func (b Both) Encode() ir.IRTagged {
	return ir.Tag(string(b.Op), b.Left.Encode(), b.Right.Encode())
}

// Status is the deal lifecycle state.
type Status string

const (
	Amortizing  Status = "Amortizing"
	Accelerated Status = "Accelerated"
	Revolving   Status = "Revolving"
	Defaulted   Status = "Defaulted"
)

func (s Status) Encode() ir.IRTagged { return ir.Tag(string(s)) }
