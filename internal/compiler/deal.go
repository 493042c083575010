package compiler

import (
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
	"github.com/absbox/absc/internal/ir"
)

// CompiledDeal is one deal translated to IR.
type CompiledDeal struct {
	Label       string
	IR          ir.IRTagged
	Names       deal.NameSet
	Fingerprint string
}

var phaseNames = map[string]deal.Phase{
	string(deal.Distribution):    deal.Distribution,
	string(deal.EndOfCollection): deal.EndOfCollection,
	string(deal.CleanUp):         deal.CleanUp,
}

// Compile translates the deal description v, found under deal.<label>.
// It is all or nothing: the first failing sub-translation is returned and
// no document is produced.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	cd, err := Compile("demo", v.LookupPath(cue.ParsePath("deal.demo")))
func Compile(label string, v cue.Value) (*CompiledDeal, error) {
	d, err := Translate(label, v)
	if err != nil {
		return nil, err
	}
	doc := d.Encode()
	fp, err := ir.Fingerprint(ir.DomainDeal, doc)
	if err != nil {
		return nil, err
	}
	return &CompiledDeal{
		Label:       label,
		IR:          doc,
		Names:       d.Names(),
		Fingerprint: fp,
	}, nil
}

// Translate builds the typed deal model without encoding it.
func Translate(label string, v cue.Value) (*deal.Deal, error) {
	field := join("deal", label)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(field, err)
	}
	if !isStruct(v) {
		return nil, fail(InvalidSource, field, v, "deal description must be a struct")
	}

	d := &deal.Deal{Name: label, Status: deal.Amortizing}
	var err error

	if has(v, "name") {
		if d.Name, err = requireString(v, "name", field); err != nil {
			return nil, err
		}
	}
	if has(v, "status") {
		if d.Status, err = parseStatus(lookup(v, "status"), join(field, "status")); err != nil {
			return nil, err
		}
	}
	if d.Dates, err = parseDates(lookup(v, "dates"), join(field, "dates")); err != nil {
		return nil, err
	}
	if d.Pool, err = parsePool(lookup(v, "pool"), d.Dates.Cutoff, join(field, "pool")); err != nil {
		return nil, err
	}

	accounts, err := required(v, "accounts", "account", field)
	if err != nil {
		return nil, err
	}
	for _, e := range accounts {
		a, err := parseAccount(e.name, e.value, join(field, "accounts."+e.name))
		if err != nil {
			return nil, err
		}
		d.Accounts = append(d.Accounts, a)
	}

	bonds, err := required(v, "bonds", "bond", field)
	if err != nil {
		return nil, err
	}
	for _, e := range bonds {
		b, err := parseBond(e.name, e.value, join(field, "bonds."+e.name))
		if err != nil {
			return nil, err
		}
		d.Bonds = append(d.Bonds, b)
	}

	fees, err := entities(lookup(v, "fees"), "fee", join(field, "fees"))
	if err != nil {
		return nil, err
	}
	for _, e := range fees {
		f, err := parseFee(e.name, e.value, join(field, "fees."+e.name))
		if err != nil {
			return nil, err
		}
		d.Fees = append(d.Fees, f)
	}

	if d.Waterfalls, err = parseWaterfall(lookup(v, "waterfall"), join(field, "waterfall")); err != nil {
		return nil, err
	}
	if !has(v, "collection") {
		return nil, fail(InvalidSource, join(field, "collection"), v, "required field is missing")
	}
	if d.Collects, err = parseCollection(lookup(v, "collection"), join(field, "collection")); err != nil {
		return nil, err
	}

	liq, err := entities(lookup(v, "liquidity"), "liquidity provider", join(field, "liquidity"))
	if err != nil {
		return nil, err
	}
	for _, e := range liq {
		l, err := parseLiquidity(e.name, e.value, join(field, "liquidity."+e.name))
		if err != nil {
			return nil, err
		}
		d.Liquidity = append(d.Liquidity, l)
	}

	swaps, err := entities(lookup(v, "rateSwap"), "rate swap", join(field, "rateSwap"))
	if err != nil {
		return nil, err
	}
	for _, e := range swaps {
		s, err := parseRateSwap(e.name, e.value, join(field, "rateSwap."+e.name))
		if err != nil {
			return nil, err
		}
		d.RateSwaps = append(d.RateSwaps, s)
	}

	ccys, err := entities(lookup(v, "currencySwap"), "currency swap", join(field, "currencySwap"))
	if err != nil {
		return nil, err
	}
	for _, e := range ccys {
		c, err := parseCurrencySwap(e.name, e.value, join(field, "currencySwap."+e.name))
		if err != nil {
			return nil, err
		}
		d.CurrencySwaps = append(d.CurrencySwaps, c)
	}

	customs, err := entities(lookup(v, "custom"), "custom formula", join(field, "custom"))
	if err != nil {
		return nil, err
	}
	if len(customs) > 0 {
		d.Custom = make(map[string]deal.Custom, len(customs))
		for _, e := range customs {
			c, err := parseCustom(e.value, join(field, "custom."+e.name))
			if err != nil {
				return nil, err
			}
			d.Custom[e.name] = c
		}
	}

	if has(v, "triggers") {
		elems, err := listOf(lookup(v, "triggers"), join(field, "triggers"))
		if err != nil {
			return nil, err
		}
		for _, e := range elems {
			t, err := parseTrigger(e, join(field, "triggers"))
			if err != nil {
				return nil, err
			}
			d.Triggers = append(d.Triggers, t)
		}
	}

	defaultStarts(d)
	return d, nil
}

// defaultStarts gives every fee and liquidity provider without a start
// date the deal's accrual start. It runs once all entities are translated.
func defaultStarts(d *deal.Deal) {
	for i := range d.Fees {
		if d.Fees[i].Start == nil {
			start := d.Dates.AccrualStart
			d.Fees[i].Start = &start
		}
	}
	for i := range d.Liquidity {
		if d.Liquidity[i].Start == nil {
			start := d.Dates.AccrualStart
			d.Liquidity[i].Start = &start
		}
	}
}

func required(v cue.Value, key, category, field string) ([]entity, error) {
	if !has(v, key) {
		return nil, fail(InvalidSource, join(field, key), v, "required field is missing")
	}
	return entities(lookup(v, key), category, join(field, key))
}

func parseDates(v cue.Value, field string) (deal.Dates, error) {
	var d deal.Dates
	if !isStruct(v) {
		return d, fail(InvalidSource, field, v, "expected dates struct")
	}
	var err error
	if d.Cutoff, err = requireDate(v, "cutoff", field); err != nil {
		return d, err
	}
	if d.Closing, err = requireDate(v, "closing", field); err != nil {
		return d, err
	}
	if d.FirstPay, err = requireDate(v, "firstPay", field); err != nil {
		return d, err
	}
	if d.StatedMaturity, err = requireDate(v, "statedMaturity", field); err != nil {
		return d, err
	}
	d.AccrualStart = d.Closing
	if has(v, "accrualStart") {
		if d.AccrualStart, err = requireDate(v, "accrualStart", field); err != nil {
			return d, err
		}
	}
	if d.PoolFreq, err = parseDatePattern(lookup(v, "poolFreq"), join(field, "poolFreq")); err != nil {
		return d, err
	}
	if d.PayFreq, err = parseDatePattern(lookup(v, "payFreq"), join(field, "payFreq")); err != nil {
		return d, err
	}
	return d, nil
}

// parseWaterfall reads phase -> entries. An unknown phase name is an
// error; phases absent from the source are not emitted.
func parseWaterfall(v cue.Value, field string) ([]deal.Waterfall, error) {
	if !isStruct(v) {
		return nil, fail(InvalidSource, field, v, "expected a map of phase name to entries")
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(field, err)
	}
	var out []deal.Waterfall
	for iter.Next() {
		name := iter.Selector().Unquoted()
		phase, ok := phaseNames[name]
		if !ok {
			return nil, fail(UnrecognizedPattern, join(field, name), iter.Value(),
				"unknown waterfall phase %q (want distribution, endOfCollection or cleanUp)", name)
		}
		entries, err := listOf(iter.Value(), join(field, name))
		if err != nil {
			return nil, err
		}
		w := deal.Waterfall{Phase: phase, Steps: []deal.Step{}}
		for _, e := range entries {
			steps, err := parseEntry(e, join(field, name))
			if err != nil {
				return nil, err
			}
			w.Steps = append(w.Steps, steps...)
		}
		out = append(out, w)
	}
	return out, nil
}
