package deal

import (
	"slices"

	"github.com/absbox/absc/internal/ir"
)

// SingleRun wraps a compiled deal with an optional assumption set and
// pricing into the engine's single-scenario request. Nil parts render as
// null.
func SingleRun(doc ir.IRTagged, assumption *AssumptionSet, pricing *Pricing) ir.IRTagged {
	var a ir.IRValue = ir.IRNull{}
	if assumption != nil {
		a = assumption.Encode()
	}
	return ir.Tag("SingleRunReq", doc, a, encodePricing(pricing))
}

// MultiScenarioRun wraps a deal with several named assumption sets.
func MultiScenarioRun(doc ir.IRTagged, scenarios []AssumptionSet, pricing *Pricing) ir.IRTagged {
	named := make(ir.IRObject, len(scenarios))
	for _, s := range scenarios {
		named[s.Name] = s.Encode()
	}
	return ir.Tag("MultiScenarioRunReq", doc, named, encodePricing(pricing))
}

func encodePricing(p *Pricing) ir.IRValue {
	if p == nil {
		return ir.IRNull{}
	}
	return p.Encode()
}

// ScenarioNames lists scenario names in sorted order.
func ScenarioNames(scenarios []AssumptionSet) []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	slices.Sort(names)
	return names
}
