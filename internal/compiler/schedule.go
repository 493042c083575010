package compiler

import (
	"strconv"
	"strings"

	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

var anchors = map[string]deal.Anchor{
	"monthEnd":     deal.MonthEnd,
	"quarterEnd":   deal.QuarterEnd,
	"yearEnd":      deal.YearEnd,
	"monthFirst":   deal.MonthFirst,
	"quarterFirst": deal.QuarterFirst,
	"yearFirst":    deal.YearFirst,
}

var freqs = map[string]deal.Freq{
	"monthly":      deal.Monthly,
	"quarterly":    deal.Quarterly,
	"semiAnnually": deal.SemiAnnually,
	"annually":     deal.Annually,
}

var statuses = map[string]deal.Status{
	"amortizing":  deal.Amortizing,
	"accelerated": deal.Accelerated,
	"revolving":   deal.Revolving,
	"defaulted":   deal.Defaulted,
}

var dayCountNames = map[string]deal.DayCount{
	"ACT/360":       deal.DCAct360,
	"ACT/365F":      deal.DCAct365F,
	"ACT/365A":      deal.DCAct365A,
	"ACT/365L":      deal.DCAct365L,
	"NL/365":        deal.DCNL365,
	"ACT/ACT":       deal.DCActAct,
	"30/360":        deal.DC30360US,
	"30E/360":       deal.DC30E360,
	"30E+/360":      deal.DC30Ep360,
	"30/360 ISDA":   deal.DC30360ISDA,
	"30/360 German": deal.DC30360German,
	"30/360 US":     deal.DC30360US,
}

// parseDatePattern reads a token, a "token:param" shortcut or a
// [token, params...] list.
func parseDatePattern(v cue.Value, field string) (deal.DatePattern, error) {
	if isString(v) {
		s, _ := v.String()
		if a, ok := anchors[s]; ok {
			return a, nil
		}
		name, param, found := strings.Cut(s, ":")
		if !found {
			return nil, fail(UnrecognizedPattern, field, v, "unknown date pattern %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(param))
		if err != nil {
			return nil, fail(UnrecognizedPattern, field, v, "date pattern %q needs an integer parameter", s)
		}
		switch name {
		case "dayOfMonth":
			return dayOfMonth(n, field, v)
		case "weekday":
			return weekday(n, field, v)
		}
		return nil, fail(UnrecognizedPattern, field, v, "date pattern %q takes no shortcut parameter", name)
	}

	op, args, ok := head(v)
	if !ok {
		return nil, fail(UnrecognizedPattern, field, v, "expected a date pattern token or [token, params...]")
	}
	arity := func(n int) error {
		if len(args) != n {
			return fail(UnrecognizedPattern, field, v, "date pattern %q takes %d parameter(s), got %d", op, n, len(args))
		}
		return nil
	}
	if a, ok := anchors[op]; ok {
		if err := arity(0); err != nil {
			return nil, err
		}
		return a, nil
	}
	switch op {
	case "dayOfMonth":
		if err := arity(1); err != nil {
			return nil, err
		}
		n, err := intOf(args[0], field)
		if err != nil {
			return nil, err
		}
		return dayOfMonth(n, field, v)
	case "weekday":
		if err := arity(1); err != nil {
			return nil, err
		}
		n, err := intOf(args[0], field)
		if err != nil {
			return nil, err
		}
		return weekday(n, field, v)
	case "monthDayOfYear":
		if err := arity(2); err != nil {
			return nil, err
		}
		m, err := intOf(args[0], field)
		if err != nil {
			return nil, err
		}
		d, err := intOf(args[1], field)
		if err != nil {
			return nil, err
		}
		if m < 1 || m > 12 || d < 1 || d > 31 {
			return nil, fail(UnrecognizedPattern, field, v, "month %d day %d out of range", m, d)
		}
		return deal.MonthDayOfYear{Month: m, Day: d}, nil
	case "everyNMonth":
		if err := arity(2); err != nil {
			return nil, err
		}
		start, err := dateOf(args[0], field)
		if err != nil {
			return nil, err
		}
		n, err := intOf(args[1], field)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fail(UnrecognizedPattern, field, v, "everyNMonth needs a positive month count")
		}
		return deal.EveryNMonth{Start: start, N: n}, nil
	}
	return nil, fail(UnrecognizedPattern, field, v, "unknown date pattern %q", op)
}

func dayOfMonth(n int, field string, v cue.Value) (deal.DatePattern, error) {
	if n < 1 || n > 31 {
		return nil, fail(UnrecognizedPattern, field, v, "day of month %d out of range 1-31", n)
	}
	return deal.DayOfMonth(n), nil
}

func weekday(n int, field string, v cue.Value) (deal.DatePattern, error) {
	if n < 0 || n > 6 {
		return nil, fail(UnrecognizedPattern, field, v, "weekday %d out of range 0-6", n)
	}
	return deal.Weekday(n), nil
}

func parseFreq(v cue.Value, field string) (deal.Freq, error) {
	s, err := stringOf(v, field)
	if err != nil {
		return "", err
	}
	f, ok := freqs[s]
	if !ok {
		return "", fail(UnrecognizedPattern, field, v, "unknown frequency %q", s)
	}
	return f, nil
}

// parseRateReset reads {interval, start?} or {resetMonth}.
func parseRateReset(v cue.Value, field string) (deal.RateReset, error) {
	switch {
	case isStruct(v) && has(v, "interval"):
		f, err := parseFreq(lookup(v, "interval"), join(field, "interval"))
		if err != nil {
			return nil, err
		}
		start, err := optDate(v, "start", field)
		if err != nil {
			return nil, err
		}
		return deal.ByInterval{Freq: f, Start: start}, nil
	case isStruct(v) && has(v, "resetMonth"):
		m, err := requireInt(v, "resetMonth", field)
		if err != nil {
			return nil, err
		}
		if m < 1 || m > 12 {
			return nil, fail(UnrecognizedPattern, field, v, "reset month %d out of range 1-12", m)
		}
		return deal.MonthOfYear(m), nil
	}
	return nil, fail(UnrecognizedPattern, field, v, "expected {interval, start?} or {resetMonth}")
}

func parseStatus(v cue.Value, field string) (deal.Status, error) {
	s, err := stringOf(v, field)
	if err != nil {
		return "", err
	}
	st, ok := statuses[s]
	if !ok {
		return "", fail(UnknownStatus, field, v, "unknown deal status %q", s)
	}
	return st, nil
}

// parseDayCount accepts an engine name or a market short name.
func parseDayCount(v cue.Value, field string) (deal.DayCount, error) {
	s, err := stringOf(v, field)
	if err != nil {
		return "", err
	}
	if dc, ok := dayCountNames[s]; ok {
		return dc, nil
	}
	for _, dc := range deal.DayCounts {
		if string(dc) == s {
			return dc, nil
		}
	}
	return "", fail(UnmatchedEntityVariant, field, v, "unknown day count %q", s)
}

// optDayCount applies the default convention when key is absent. This is
// the only place the default is applied.
func optDayCount(v cue.Value, key, field string) (deal.DayCount, error) {
	if !has(v, key) {
		return deal.DefaultDayCount, nil
	}
	return parseDayCount(lookup(v, key), join(field, key))
}

func parseIndex(v cue.Value, field string) (deal.Index, error) {
	s, err := stringOf(v, field)
	if err != nil {
		return "", err
	}
	for _, idx := range deal.Indexes {
		if string(idx) == s {
			return idx, nil
		}
	}
	return "", fail(UnmatchedEntityVariant, field, v, "unknown rate index %q", s)
}

// parseCurve reads [[date, value]...].
func parseCurve(v cue.Value, field string) (deal.Curve, error) {
	rows, err := listOf(v, field)
	if err != nil {
		return nil, err
	}
	curve := make(deal.Curve, 0, len(rows))
	for _, row := range rows {
		pt, err := parsePoint(row, field)
		if err != nil {
			return nil, err
		}
		curve = append(curve, pt)
	}
	return curve, nil
}

func parsePoint(v cue.Value, field string) (deal.Point, error) {
	pair, err := listOf(v, field)
	if err != nil || len(pair) != 2 {
		return deal.Point{}, fail(InvalidSource, field, v, "expected [date, value]")
	}
	d, err := dateOf(pair[0], field)
	if err != nil {
		return deal.Point{}, err
	}
	n, err := decimalOf(pair[1], field)
	if err != nil {
		return deal.Point{}, err
	}
	return deal.Point{Date: d, Value: n}, nil
}
