package compiler

import (
	"cuelang.org/go/cue"

	"github.com/absbox/absc/internal/deal"
)

var triggerPoints = map[string]deal.TriggerPoint{
	"endCollection":          deal.EndCollection,
	"endCollectionWaterfall": deal.EndCollectionWF,
	"beforeDistribution":     deal.BeginDistributionWF,
	"afterDistribution":      deal.EndDistributionWF,
}

// parseTrigger reads {when, condition, effect: {dealStatusTo}}.
func parseTrigger(v cue.Value, field string) (deal.Trigger, error) {
	var t deal.Trigger
	when, err := requireString(v, "when", field)
	if err != nil {
		return t, err
	}
	pt, ok := triggerPoints[when]
	if !ok {
		return t, fail(UnrecognizedPattern, join(field, "when"), lookup(v, "when"), "unknown trigger point %q", when)
	}
	t.Point = pt
	if t.Condition, err = parsePredicate(lookup(v, "condition"), join(field, "condition")); err != nil {
		return t, err
	}
	effect := lookup(v, "effect")
	key, val, ok := singleKey(effect)
	if !ok || key != "dealStatusTo" {
		return t, fail(UnmatchedEntityVariant, join(field, "effect"), effect, "expected {dealStatusTo: status}")
	}
	if t.ToStatus, err = parseStatus(val, join(field, "effect.dealStatusTo")); err != nil {
		return t, err
	}
	return t, nil
}
