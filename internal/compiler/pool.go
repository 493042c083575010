package compiler

import (
	"cloud.google.com/go/civil"
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

var assetKinds = map[string]deal.AssetKind{
	"mortgage":    deal.Mortgage,
	"loan":        deal.Loan,
	"installment": deal.Installment,
}

var amortTypes = map[string]deal.AmortType{
	"level":        deal.Level,
	"even":         deal.Even,
	"interestOnly": deal.InterestOnly,
	"flat":         deal.FlatPrin,
}

var collectSources = map[string]deal.CollectSource{
	"interest":   deal.CollectedInterest,
	"principal":  deal.CollectedPrincipal,
	"prepayment": deal.CollectedPrepayment,
	"recoveries": deal.CollectedRecoveries,
}

// parsePool reads {assets, issuanceBalance?, cashflow?}. The as-of date is
// the deal's cutoff.
func parsePool(v cue.Value, cutoff civil.Date, field string) (deal.Pool, error) {
	p := deal.Pool{AsOf: cutoff}
	if !isStruct(v) {
		return p, fail(InvalidSource, field, v, "expected pool struct")
	}
	if has(v, "assets") {
		elems, err := listOf(lookup(v, "assets"), join(field, "assets"))
		if err != nil {
			return p, err
		}
		for _, e := range elems {
			a, err := parseAsset(e, join(field, "assets"))
			if err != nil {
				return p, err
			}
			p.Assets = append(p.Assets, a)
		}
	}
	if has(v, "issuanceBalance") {
		bal, err := requireDecimal(v, "issuanceBalance", field)
		if err != nil {
			return p, err
		}
		p.IssuanceBalance = &bal
	}
	if has(v, "cashflow") {
		rows, err := listOf(lookup(v, "cashflow"), join(field, "cashflow"))
		if err != nil {
			return p, err
		}
		for _, row := range rows {
			r, err := parseFlowRow(row, join(field, "cashflow"))
			if err != nil {
				return p, err
			}
			p.Cashflow = append(p.Cashflow, r)
		}
	}
	if _, ok := p.Kind(); !ok {
		return p, fail(UnmatchedEntityVariant, join(field, "assets"), lookup(v, "assets"), "pool mixes asset kinds")
	}
	return p, nil
}

// parseAsset reads [kind, origin, current].
func parseAsset(v cue.Value, field string) (deal.Asset, error) {
	var a deal.Asset
	parts, err := listOf(v, field)
	if err != nil || len(parts) != 3 {
		return a, fail(UnmatchedEntityVariant, field, v, "expected [kind, origin, current]")
	}
	kind, err := stringOf(parts[0], field)
	if err != nil {
		return a, err
	}
	k, ok := assetKinds[kind]
	if !ok {
		return a, fail(UnmatchedEntityVariant, field, parts[0], "unknown asset kind %q", kind)
	}
	a.Kind = k

	origin, current := parts[1], parts[2]
	if a.OriginBalance, err = requireDecimal(origin, "originBalance", field); err != nil {
		return a, err
	}
	if a.OriginRate, err = parseAssetRate(lookup(origin, "originRate"), join(field, "originRate")); err != nil {
		return a, err
	}
	if a.OriginTerm, err = requireInt(origin, "originTerm", field); err != nil {
		return a, err
	}
	if a.Period, err = parseFreq(lookup(origin, "freq"), join(field, "freq")); err != nil {
		return a, err
	}
	if a.StartDate, err = requireDate(origin, "startDate", field); err != nil {
		return a, err
	}
	amort, err := requireString(origin, "type", field)
	if err != nil {
		return a, err
	}
	if a.AmortType, ok = amortTypes[amort]; !ok {
		return a, fail(UnmatchedEntityVariant, join(field, "type"), lookup(origin, "type"), "unknown amortization type %q", amort)
	}

	if a.Balance, err = requireDecimal(current, "balance", field); err != nil {
		return a, err
	}
	if a.Rate, err = requireDecimal(current, "rate", field); err != nil {
		return a, err
	}
	if a.RemainTerms, err = requireInt(current, "remainTerms", field); err != nil {
		return a, err
	}
	a.Status = deal.AssetCurrent
	if has(current, "status") {
		st, err := requireString(current, "status", field)
		if err != nil {
			return a, err
		}
		switch st {
		case "current":
		case "defaulted":
			a.Status = deal.AssetDefaulted
		default:
			return a, fail(UnmatchedEntityVariant, join(field, "status"), lookup(current, "status"), "unknown asset status %q", st)
		}
	}
	return a, nil
}

// parseAssetRate reads ["fix", r] or ["floater", r, {index, spread, resetFreq}].
func parseAssetRate(v cue.Value, field string) (deal.AssetRate, error) {
	op, args, ok := head(v)
	switch {
	case ok && op == "fix" && len(args) == 1:
		r, err := decimalOf(args[0], field)
		if err != nil {
			return nil, err
		}
		return deal.AssetFix{Rate: r}, nil
	case ok && op == "floater" && len(args) == 2:
		r, err := decimalOf(args[0], field)
		if err != nil {
			return nil, err
		}
		terms := args[1]
		idx, err := parseIndex(lookup(terms, "index"), join(field, "index"))
		if err != nil {
			return nil, err
		}
		spread, err := requireDecimal(terms, "spread", field)
		if err != nil {
			return nil, err
		}
		reset, err := parseFreq(lookup(terms, "resetFreq"), join(field, "resetFreq"))
		if err != nil {
			return nil, err
		}
		return deal.AssetFloater{Index: idx, Spread: spread, Rate: r, Reset: reset}, nil
	}
	return nil, fail(UnmatchedEntityVariant, field, v, "expected [\"fix\", rate] or [\"floater\", rate, {index, spread, resetFreq}]")
}

// parseFlowRow reads [date, balance, principal, interest].
func parseFlowRow(v cue.Value, field string) (deal.FlowRow, error) {
	var r deal.FlowRow
	cols, err := listOf(v, field)
	if err != nil || len(cols) != 4 {
		return r, fail(InvalidSource, field, v, "expected [date, balance, principal, interest]")
	}
	if r.Date, err = dateOf(cols[0], field); err != nil {
		return r, err
	}
	if r.Balance, err = decimalOf(cols[1], field); err != nil {
		return r, err
	}
	if r.Principal, err = decimalOf(cols[2], field); err != nil {
		return r, err
	}
	if r.Interest, err = decimalOf(cols[3], field); err != nil {
		return r, err
	}
	return r, nil
}

// parseCollection reads [[source, account]...].
func parseCollection(v cue.Value, field string) ([]deal.Collect, error) {
	rules, err := listOf(v, field)
	if err != nil {
		return nil, err
	}
	out := make([]deal.Collect, 0, len(rules))
	for _, rule := range rules {
		pair, err := listOf(rule, field)
		if err != nil || len(pair) != 2 {
			return nil, fail(UnmatchedEntityVariant, field, rule, "expected [source, account]")
		}
		src, err := stringOf(pair[0], field)
		if err != nil {
			return nil, err
		}
		s, ok := collectSources[src]
		if !ok {
			return nil, fail(UnmatchedEntityVariant, field, pair[0], "unknown collection source %q", src)
		}
		acc, err := stringOf(pair[1], field)
		if err != nil {
			return nil, err
		}
		out = append(out, deal.Collect{Source: s, Account: acc})
	}
	return out, nil
}
