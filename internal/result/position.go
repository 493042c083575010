package result

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// ErrPositionTooLarge is returned when a holding exceeds the bond's
// original balance.
var ErrPositionTooLarge = errors.New("position factor greater than 1")

// Position scales each held bond's principal, interest and cash by
// holding / original balance, rounded to 4 decimal places. holdings maps
// bond name to face amount held.
func (r *Result) Position(holdings map[string]decimal.Decimal) (map[string]*Table, error) {
	names := make([]string, 0, len(holdings))
	for n := range holdings {
		names = append(names, n)
	}
	slices.Sort(names)

	out := make(map[string]*Table, len(holdings))
	one := decimal.NewFromInt(1)
	for _, name := range names {
		bond, ok := r.Bonds[name]
		if !ok {
			return nil, fmt.Errorf("position %s: bond not in result", name)
		}
		origin, ok := r.origins[name]
		if !ok || origin.IsZero() {
			return nil, fmt.Errorf("position %s: original balance unknown", name)
		}
		factor := holdings[name].Div(origin)
		if factor.GreaterThan(one) {
			return nil, fmt.Errorf("position %s: holding %s of %s: %w", name, holdings[name], origin, ErrPositionTooLarge)
		}

		view := DropColumns(bond, "balance", "rate", "memo")
		for i := range view.Rows {
			for j, c := range view.Rows[i].Cells {
				if d, ok := c.Decimal(); ok {
					view.Rows[i].Cells[j] = Num(d.Mul(factor).Round(4))
				}
			}
		}
		out[name] = view
	}
	return out, nil
}
