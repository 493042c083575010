package deal

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/absbox/absc/internal/ir"
)

// DatePattern is a recurring schedule the engine expands into dates.
type DatePattern interface {
	Encode() ir.IRTagged
	isDatePattern()
}

// Anchor is a period-boundary pattern with no parameters.
type Anchor string

const (
	MonthEnd     Anchor = "MonthEnd"
	QuarterEnd   Anchor = "QuarterEnd"
	YearEnd      Anchor = "YearEnd"
	MonthFirst   Anchor = "MonthFirst"
	QuarterFirst Anchor = "QuarterFirst"
	YearFirst    Anchor = "YearFirst"
)

// DayOfMonth fires on a fixed day of every month.
type DayOfMonth int

// MonthDayOfYear fires once a year.
type MonthDayOfYear struct {
	Month int
	Day   int
}

// Weekday fires on a weekday, 0 = Sunday.
type Weekday int

// EveryNMonth fires every N months counting from Start.
type EveryNMonth struct {
	Start civil.Date
	N     int
}

func (Anchor) isDatePattern()         {}
func (DayOfMonth) isDatePattern()     {}
func (MonthDayOfYear) isDatePattern() {}
func (Weekday) isDatePattern()        {}
func (EveryNMonth) isDatePattern()    {}

func (a Anchor) Encode() ir.IRTagged     { return ir.Tag(string(a)) }
func (d DayOfMonth) Encode() ir.IRTagged { return ir.Tag("DayOfMonth", ir.IRInt(d)) }
func (w Weekday) Encode() ir.IRTagged    { return ir.Tag("Weekday", ir.IRInt(w)) }

func (m MonthDayOfYear) Encode() ir.IRTagged {
	return ir.Tag("MonthDayOfYear", ir.IRInt(m.Month), ir.IRInt(m.Day))
}

func (e EveryNMonth) Encode() ir.IRTagged {
	return ir.Tag("EveryNMonth", Date(e.Start), ir.IRInt(e.N))
}

// Freq is a payment or reset frequency.
type Freq string

const (
	Monthly      Freq = "Monthly"
	Quarterly    Freq = "Quarterly"
	SemiAnnually Freq = "SemiAnnually"
	Annually     Freq = "Annually"
)

func (f Freq) Encode() ir.IRTagged { return ir.Tag(string(f)) }

// RateReset describes when a floating rate refixes.
type RateReset interface {
	Encode() ir.IRTagged
	isRateReset()
}

// ByInterval resets every Freq, optionally starting from Start.
type ByInterval struct {
	Freq  Freq
	Start *civil.Date
}

// MonthOfYear resets once a year in the given month.
type MonthOfYear int

func (ByInterval) isRateReset()  {}
func (MonthOfYear) isRateReset() {}

func (b ByInterval) Encode() ir.IRTagged {
	return ir.Tag("ByInterval", b.Freq.Encode(), OptDate(b.Start))
}

func (m MonthOfYear) Encode() ir.IRTagged { return ir.Tag("MonthOfYear", ir.IRInt(m)) }

// DayCount is an engine day count convention.
type DayCount string

const (
	DC30E360      DayCount = "DC_30E_360"
	DC30Ep360     DayCount = "DC_30Ep_360"
	DCAct360      DayCount = "DC_ACT_360"
	DCAct365A     DayCount = "DC_ACT_365A"
	DCAct365L     DayCount = "DC_ACT_365L"
	DCNL365       DayCount = "DC_NL_365"
	DCAct365F     DayCount = "DC_ACT_365F"
	DCActAct      DayCount = "DC_ACT_ACT"
	DC30360ISDA   DayCount = "DC_30_360_ISDA"
	DC30360German DayCount = "DC_30_360_German"
	DC30360US     DayCount = "DC_30_360_US"
)

// DefaultDayCount applies to rates described without a convention.
const DefaultDayCount = DCAct365F

// DayCounts lists every convention the engine accepts.
var DayCounts = []DayCount{
	DC30E360, DC30Ep360, DCAct360, DCAct365A, DCAct365L, DCNL365,
	DCAct365F, DCActAct, DC30360ISDA, DC30360German, DC30360US,
}

func (d DayCount) Encode() ir.IRString { return ir.Str(string(d)) }

// Date renders a calendar date as an IR leaf.
func Date(d civil.Date) ir.IRString {
	return ir.Str(d.String())
}

// OptDate renders an optional date, null when absent.
func OptDate(d *civil.Date) ir.IRValue {
	if d == nil {
		return ir.IRNull{}
	}
	return Date(*d)
}

// Amount renders a decimal leaf.
func Amount(d decimal.Decimal) ir.IRNumber {
	return ir.Num(d)
}

// OptAmount renders an optional decimal, null when absent.
func OptAmount(d *decimal.Decimal) ir.IRValue {
	if d == nil {
		return ir.IRNull{}
	}
	return ir.Num(*d)
}

// Point is one (date, value) observation of a curve.
type Point struct {
	Date  civil.Date
	Value decimal.Decimal
}

// Curve is a dated series.
type Curve []Point

// Rows renders the curve as [[date, value], ...].
func (c Curve) Rows() ir.IRArray {
	rows := make(ir.IRArray, len(c))
	for i, p := range c {
		rows[i] = ir.Arr(Date(p.Date), Amount(p.Value))
	}
	return rows
}

// Encode wraps the rows under the given curve kind (BalanceCurve,
// PricingCurve, ...).
func (c Curve) Encode(kind string) ir.IRTagged {
	return ir.Tag(kind, c.Rows())
}
