package deal

import (
	"cloud.google.com/go/civil"

	"github.com/absbox/absc/internal/ir"
)

// Dates are the deal's key dates and period patterns.
type Dates struct {
	Cutoff         civil.Date
	Closing        civil.Date
	FirstPay       civil.Date
	StatedMaturity civil.Date
	AccrualStart   civil.Date
	PoolFreq       DatePattern
	PayFreq        DatePattern
}

// Encode builds the PatternInterval record the engine expands into
// collection and distribution dates.
func (d Dates) Encode() ir.IRTagged {
	maturity := Date(d.StatedMaturity)
	return ir.Tag("PatternInterval", ir.Obj(
		ir.O("CutoffDate", ir.Arr(Date(d.Cutoff), d.PoolFreq.Encode(), maturity)),
		ir.O("ClosingDate", ir.Arr(Date(d.Closing), d.PoolFreq.Encode(), maturity)),
		ir.O("FirstPayDate", ir.Arr(Date(d.FirstPay), d.PayFreq.Encode(), maturity)),
	))
}

// Phase is a named waterfall run.
type Phase string

const (
	Distribution    Phase = "distribution"
	EndOfCollection Phase = "endOfCollection"
	CleanUp         Phase = "cleanUp"
)

// Phases is the closed set of waterfall phases, in output order.
var Phases = []Phase{Distribution, EndOfCollection, CleanUp}

// Key is the engine waterfall key. The distribution key carries the deal
// status so the engine can select a status-specific waterfall.
func (p Phase) Key(status Status) string {
	switch p {
	case Distribution:
		return "DistributionDay " + string(status)
	case EndOfCollection:
		return "EndOfPoolCollection"
	default:
		return "CleanUp"
	}
}

// Waterfall is the ordered steps of one phase.
type Waterfall struct {
	Phase Phase
	Steps []Step
}

// Deal is a fully translated deal description. Its entity slices are in
// source order and names are unique within each slice.
type Deal struct {
	Name          string
	Status        Status
	Dates         Dates
	Pool          Pool
	Accounts      []Account
	Bonds         []Bond
	Fees          []Fee
	Waterfalls    []Waterfall
	Collects      []Collect
	Liquidity     []LiquidityProvider
	RateSwaps     []RateSwap
	CurrencySwaps []CurrencySwap
	Custom        map[string]Custom
	Triggers      []Trigger
}

// Type is the engine's top-level deal variant.
func (d Deal) Type() string {
	kind, _ := d.Pool.Kind()
	return kind.DealType()
}

// Encode builds the whole IR document. Optional sections are emitted only
// when the deal has them: a missing key means "feature disabled" to the
// engine, which is not the same as an empty one.
func (d Deal) Encode() ir.IRTagged {
	bonds := make(ir.IRObject, len(d.Bonds))
	for _, b := range d.Bonds {
		bonds[b.Name] = b.Encode()
	}
	fees := make(ir.IRObject, len(d.Fees))
	for _, f := range d.Fees {
		fees[f.Name] = f.Encode()
	}
	accounts := make(ir.IRObject, len(d.Accounts))
	for _, a := range d.Accounts {
		accounts[a.Name] = a.Encode()
	}
	waterfall := make(ir.IRObject, len(d.Waterfalls))
	for _, w := range d.Waterfalls {
		steps := make(ir.IRArray, len(w.Steps))
		for i, s := range w.Steps {
			steps[i] = s.Encode()
		}
		waterfall[w.Phase.Key(d.Status)] = steps
	}
	collects := make(ir.IRArray, len(d.Collects))
	for i, c := range d.Collects {
		collects[i] = c.Encode()
	}

	doc := ir.Obj(
		ir.O("dates", d.Dates.Encode()),
		ir.O("name", ir.Str(d.Name)),
		ir.O("status", d.Status.Encode()),
		ir.O("pool", d.Pool.Encode()),
		ir.O("bonds", bonds),
		ir.O("waterfall", waterfall),
		ir.O("fees", fees),
		ir.O("accounts", accounts),
		ir.O("collects", collects),
	)

	if len(d.Liquidity) > 0 {
		liq := make(ir.IRObject, len(d.Liquidity))
		for _, l := range d.Liquidity {
			liq[l.Name] = l.Encode()
		}
		doc["liqProvider"] = liq
	}
	if len(d.RateSwaps) > 0 {
		rs := make(ir.IRObject, len(d.RateSwaps))
		for _, s := range d.RateSwaps {
			rs[s.Name] = s.Encode()
		}
		doc["rateSwap"] = rs
	}
	if len(d.CurrencySwaps) > 0 {
		cs := make(ir.IRObject, len(d.CurrencySwaps))
		for _, s := range d.CurrencySwaps {
			cs[s.Name] = s.Encode()
		}
		doc["currencySwap"] = cs
	}
	if len(d.Custom) > 0 {
		custom := make(ir.IRObject, len(d.Custom))
		for name, c := range d.Custom {
			custom[name] = c.Encode()
		}
		doc["custom"] = custom
	}
	if len(d.Triggers) > 0 {
		triggers := make(ir.IRArray, len(d.Triggers))
		for i, t := range d.Triggers {
			triggers[i] = t.Encode()
		}
		doc["triggers"] = triggers
	}

	return ir.Tag(d.Type(), doc)
}

// Names returns the entity name sets of the deal.
func (d Deal) Names() NameSet {
	ns := NewNameSet()
	for _, a := range d.Accounts {
		ns.Accounts[a.Name] = struct{}{}
	}
	for _, b := range d.Bonds {
		ns.Bonds[b.Name] = struct{}{}
	}
	for _, f := range d.Fees {
		ns.Fees[f.Name] = struct{}{}
	}
	for _, s := range d.RateSwaps {
		ns.Swaps[s.Name] = struct{}{}
	}
	for _, l := range d.Liquidity {
		ns.Liquidity[l.Name] = struct{}{}
	}
	for name := range d.Custom {
		ns.Custom[name] = struct{}{}
	}
	ns.Assets = len(d.Pool.Assets)
	return ns
}
